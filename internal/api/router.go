package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/Mahmoud3mmar/brewly/docs"
	"github.com/Mahmoud3mmar/brewly/internal/api/handler"
	"github.com/Mahmoud3mmar/brewly/internal/api/middleware"
	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
	"github.com/Mahmoud3mmar/brewly/internal/core/ports"
)

const metricsSubsystem = "http"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	AuthService ports.AuthService
	Tokens      ports.TokenVerifier
	Users       ports.UserReader
	// HealthChecks are run by the readiness probe, keyed by dependency name.
	HealthChecks map[string]handler.HealthCheck
	// APIPrefix is the version segment routes are mounted under, e.g. "v1".
	APIPrefix string
	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.APIPrefix == "" {
		d.APIPrefix = "v1"
	}
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	// Outside the request logger so it observes the status the error
	// handler wrote rather than the raw handler error.
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "brewly",
		Subsystem:  metricsSubsystem,
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(middleware.RequestLogger(d.Log))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	requireUser := middleware.Guard(domain.TokenTypeUser, d.Tokens, d.Users, d.Log)

	auth := e.Group("/" + d.APIPrefix + "/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/password/reset", authHandler.RequestPasswordReset)
	auth.POST("/password/reset/confirm", authHandler.ConfirmPasswordReset)
	auth.POST("/verify-email", middleware.Authenticated(authHandler.VerifyEmail), requireUser)
	auth.POST("/resend-verification-otp", middleware.Authenticated(authHandler.ResendVerificationOTP), requireUser)
	auth.GET("/profile", middleware.Authenticated(authHandler.Profile), requireUser)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.HealthChecks)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
