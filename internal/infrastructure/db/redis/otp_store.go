package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

const (
	// expiredRetention keeps a record around after its expiry so that a late
	// attempt reports domain.ErrOTPExpired rather than domain.ErrOTPNotFound.
	expiredRetention = time.Hour
	defaultOpTimeout = 5 * time.Second
)

// OTPStore persists OTP records in Redis.
// Key format: otp:<purpose>:<email>
type OTPStore struct {
	client  *redis.Client
	timeout time.Duration
	now     func() time.Time
}

// NewOTPStore creates an OTPStore wrapping the given Redis client. Every call
// is bounded by timeout.
func NewOTPStore(client *redis.Client, timeout time.Duration) *OTPStore {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &OTPStore{client: client, timeout: timeout, now: time.Now}
}

func (s *OTPStore) Put(ctx context.Context, rec domain.OTPRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	ttl := retentionTTL(rec, s.now())
	if err := s.client.Set(ctx, otpKey(rec.Email, rec.Purpose), val, ttl).Err(); err != nil {
		return storeError("otp put", err)
	}
	return nil
}

func (s *OTPStore) Get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.client.Get(ctx, otpKey(email, purpose)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, storeError("otp get", err)
	}
	return decodeRecord(val)
}

// Take uses GETDEL so that concurrent instances never consume a record twice.
func (s *OTPStore) Take(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.client.GetDel(ctx, otpKey(email, purpose)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, storeError("otp take", err)
	}
	return decodeRecord(val)
}

func (s *OTPStore) Delete(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	keys := make([]string, 0, len(domain.OTPPurposes))
	for _, p := range domain.OTPPurposes {
		keys = append(keys, otpKey(email, p))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return storeError("otp delete", err)
	}
	return nil
}

func otpKey(email string, purpose domain.OTPPurpose) string {
	return fmt.Sprintf("otp:%s:%s", purpose, email)
}

// retentionTTL is the Redis expiry for rec: its remaining validity plus
// expiredRetention, never less than expiredRetention.
func retentionTTL(rec domain.OTPRecord, now time.Time) time.Duration {
	remaining := rec.ExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining + expiredRetention
}

func encodeRecord(rec domain.OTPRecord) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode otp record: %w", err)
	}
	return b, nil
}

func decodeRecord(b []byte) (*domain.OTPRecord, error) {
	var rec domain.OTPRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode otp record: %w", err)
	}
	return &rec, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, domain.ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}
