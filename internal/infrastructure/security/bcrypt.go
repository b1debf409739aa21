package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

const defaultHashTimeout = 5 * time.Second

var errPasswordTooLong = domain.Recast(bcrypt.ErrPasswordTooLong, domain.KindBadRequest, "password must be at most 72 bytes")

// BcryptHasher hashes passwords with bcrypt. Each call is bounded by timeout;
// running past it yields domain.ErrTimeout.
type BcryptHasher struct {
	cost    int
	timeout time.Duration
}

// NewBcryptHasher returns a hasher with the given cost and per-call timeout.
// Out-of-range costs fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int, timeout time.Duration) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if timeout <= 0 {
		timeout = defaultHashTimeout
	}
	return &BcryptHasher{cost: cost, timeout: timeout}
}

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	var hash []byte
	err := h.bounded(ctx, func() error {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), h.cost)
		return err
	})
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", errPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(ctx context.Context, hash, password string) error {
	err := h.bounded(ctx, func() error {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	})
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}

// bounded runs fn in its own goroutine and stops waiting once ctx (narrowed
// to h.timeout) is done. fn still runs to completion in the background.
func (h *BcryptHasher) bounded(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return contextError(ctx.Err())
	}
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	return err
}
