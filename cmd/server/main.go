// Command server runs the Brewly auth API.
//
//	@title						Brewly API
//	@version					1.0
//	@description				Account registration, login, email verification and password reset.
//	@BasePath					/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Mahmoud3mmar/brewly/internal/api"
	"github.com/Mahmoud3mmar/brewly/internal/api/handler"
	"github.com/Mahmoud3mmar/brewly/internal/core/ports"
	"github.com/Mahmoud3mmar/brewly/internal/core/service"
	"github.com/Mahmoud3mmar/brewly/internal/infrastructure/db/memory"
	mongodb "github.com/Mahmoud3mmar/brewly/internal/infrastructure/db/mongo"
	redisdb "github.com/Mahmoud3mmar/brewly/internal/infrastructure/db/redis"
	"github.com/Mahmoud3mmar/brewly/internal/infrastructure/mail"
	"github.com/Mahmoud3mmar/brewly/internal/infrastructure/security"
	"github.com/Mahmoud3mmar/brewly/internal/pkg/config"
	"github.com/Mahmoud3mmar/brewly/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "brewly",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "brewly",
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongodb.NewUserRepository(db, cfg.StoreTimeout)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	checks := map[string]handler.HealthCheck{"mongodb": handler.MongoCheck(db)}

	var store ports.OTPStore
	switch cfg.OTP.Store {
	case config.OTPStoreRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close")
			}
		}()
		store = redisdb.NewOTPStore(rdb, cfg.StoreTimeout)
		checks["redis"] = handler.RedisCheck(rdb)
	default:
		log.Warn().Msg("using in-memory OTP store; codes are lost on restart and not shared between instances")
		store = memory.NewOTPStore()
	}

	var notifier ports.OTPNotifier
	if cfg.Mail.Host != "" {
		notifier = mail.NewSMTPSender(mail.SMTPConfig{
			Host:       cfg.Mail.Host,
			Port:       cfg.Mail.Port,
			Secure:     cfg.Mail.Secure,
			RequireTLS: cfg.Mail.RequireTLS,
			User:       cfg.Mail.User,
			Password:   cfg.Mail.Password,
			From:       cfg.Mail.From,
			FromName:   cfg.Mail.FromName,
		}, log)
	} else {
		log.Warn().Msg("MAIL_HOST not set; OTP emails are written to the log")
		notifier = mail.NewLogSender(log)
	}

	tokens := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, security.WithIssuer(cfg.Auth.JWTIssuer))
	otp := service.NewOTPService(store, users, notifier, service.OTPConfig{
		TTL:          cfg.OTP.TTL,
		LockStripes:  cfg.OTP.LockStripes,
		StoreTimeout: cfg.StoreTimeout,
		MailTimeout:  cfg.Mail.Timeout,
	}, log)
	auth := service.NewAuthService(
		users,
		security.NewBcryptHasher(cfg.Auth.HashCost, cfg.Auth.HashTimeout),
		otp,
		tokens,
		cfg.Auth.TokenTTL,
		log,
	)

	e := api.NewRouter(api.Deps{
		AuthService:  auth,
		Tokens:       tokens,
		Users:        users,
		HealthChecks: checks,
		APIPrefix:    cfg.APIPrefix,
		Log:          log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	return g.Wait()
}
