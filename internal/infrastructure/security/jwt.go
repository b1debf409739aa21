package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

// claims is the JWT body. Registered claims carry lifetime and identity of
// the token itself; id, email and tokenType carry the payload.
type claims struct {
	UserID    int64            `json:"id,omitempty"`
	Email     string           `json:"email,omitempty"`
	TokenType domain.TokenType `json:"tokenType,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
	now        func() time.Time
}

// TokenOption customises a TokenManager.
type TokenOption func(*TokenManager)

// WithIssuer sets the iss claim and requires it on verification.
func WithIssuer(issuer string) TokenOption {
	return func(m *TokenManager) { m.issuer = issuer }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

func NewTokenManager(secret string, defaultTTL time.Duration, opts ...TokenOption) *TokenManager {
	if defaultTTL <= 0 {
		defaultTTL = 7 * 24 * time.Hour
	}
	m := &TokenManager{
		secret:     []byte(secret),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a token for payload valid for ttl (the default TTL when ttl <= 0).
func (m *TokenManager) Issue(payload domain.TokenPayload, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	id, email := payload.Subject()
	now := m.now()

	c := claims{
		UserID:    id,
		Email:     email,
		TokenType: payload.Type(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// Verify checks signature and lifetime and decodes the payload.
func (m *TokenManager) Verify(token string) (domain.TokenPayload, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, verifyError(err)
	}

	if c.UserID <= 0 || c.Email == "" || c.TokenType == "" {
		return nil, domain.ErrTokenMalformedPayload
	}
	payload, ok := domain.NewTokenPayload(c.TokenType, c.UserID, c.Email)
	if !ok {
		return nil, domain.ErrTokenMalformedPayload
	}
	return payload, nil
}

func verifyError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return domain.ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return domain.ErrTokenInvalidSignature
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return domain.ErrTokenMalformedPayload
	default:
		return domain.ErrTokenMalformed
	}
}
