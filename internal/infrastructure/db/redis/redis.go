package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = 3 * time.Second
)

// Config captures the settings for establishing a Redis connection.
// DialTimeout also bounds the startup ping; IOTimeout applies to each
// command read and write.
type Config struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	IOTimeout   time.Duration
	PoolSize    int
}

func (c Config) options() *redis.Options {
	dial := c.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}
	io := c.IOTimeout
	if io <= 0 {
		io = defaultIOTimeout
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  dial,
		ReadTimeout:  io,
		WriteTimeout: io,
		PoolSize:     c.PoolSize,
		// Command timeouts follow the caller's context deadline as well.
		ContextTimeoutEnabled: true,
	}
}

// Connect opens a client and pings it. The OTP store relies on GETDEL, so
// the server must be Redis 6.2 or newer.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts := cfg.options()
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
