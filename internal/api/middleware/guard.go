package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
	"github.com/Mahmoud3mmar/brewly/internal/core/ports"
	"github.com/Mahmoud3mmar/brewly/internal/pkg/metrics"
)

type userContextKey struct{}

const (
	msgMissingHeader = "authorization header is missing. Please include: Authorization: Bearer <token>"
	msgBadFormat     = "invalid authorization format. Expected: Authorization: Bearer <token>"
)

// Guard authenticates requests carrying a bearer token of the expected type.
// The token's subject is re-read from users so deactivation takes effect on
// the next request. On success the user is attached to the request context.
func Guard(expected domain.TokenType, verifier ports.TokenVerifier, users ports.UserReader, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, reason, err := authenticate(c.Request(), expected, verifier, users)
			if err != nil {
				metrics.GuardRejectionsTotal.WithLabelValues(reason).Inc()
				log.Debug().
					Err(err).
					Str("reason", reason).
					Str("path", c.Path()).
					Msg("request rejected")
				return err
			}

			req := c.Request()
			c.SetRequest(req.WithContext(WithUser(req.Context(), user)))
			return next(c)
		}
	}
}

func authenticate(r *http.Request, expected domain.TokenType, verifier ports.TokenVerifier, users ports.UserReader) (*domain.User, string, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil, "missing_header", echo.NewHTTPError(http.StatusUnauthorized, msgMissingHeader)
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return nil, "bad_format", echo.NewHTTPError(http.StatusUnauthorized, msgBadFormat)
	}

	payload, err := verifier.Verify(token)
	if err != nil {
		return nil, "invalid_token", echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	if payload.Type() != expected {
		msg := fmt.Sprintf("invalid token type. Expected '%s', got '%s'", expected, payload.Type())
		return nil, "wrong_type", echo.NewHTTPError(http.StatusUnauthorized, msg)
	}

	id, _ := payload.Subject()
	user, err := users.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "unknown_user", echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("user not found with ID: %d", id))
		}
		return nil, "error", err
	}
	if !user.IsActive {
		return nil, "inactive", echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUserInactive.Error())
	}
	return user, "", nil
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user attached by Guard, if any.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*domain.User)
	return user, ok && user != nil
}

// Authenticated adapts a handler that needs the guarded identity. It must run
// behind Guard.
func Authenticated(h func(c echo.Context, user *domain.User) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := UserFromContext(c.Request().Context())
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated user")
		}
		return h(c, user)
	}
}
