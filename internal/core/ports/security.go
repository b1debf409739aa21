package ports

import (
	"context"
	"time"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

// PasswordHasher is a one-way hash with a constant-time verify.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	// Compare returns domain.ErrInvalidCredentials on mismatch.
	Compare(ctx context.Context, hash, password string) error
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(payload domain.TokenPayload, ttl time.Duration) (string, error)
}

// TokenVerifier checks bearer tokens and decodes their payload.
type TokenVerifier interface {
	Verify(token string) (domain.TokenPayload, error)
}
