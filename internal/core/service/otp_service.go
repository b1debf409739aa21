package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
	"github.com/Mahmoud3mmar/brewly/internal/core/ports"
	"github.com/Mahmoud3mmar/brewly/internal/pkg/keylock"
	"github.com/Mahmoud3mmar/brewly/internal/pkg/metrics"
)

const (
	otpLow   = 100000
	otpRange = 900000

	defaultMailTimeout  = 15 * time.Second
	defaultStoreTimeout = 5 * time.Second
)

// OTPConfig tunes an OTPService. Zero values fall back to defaults.
type OTPConfig struct {
	TTL          time.Duration
	LockStripes  int
	StoreTimeout time.Duration
	MailTimeout  time.Duration
}

// OTPService issues, delivers and consumes one-time passcodes.
type OTPService struct {
	store    ports.OTPStore
	users    ports.UserReader
	notifier ports.OTPNotifier
	locks    *keylock.Striped
	cfg      OTPConfig
	now      func() time.Time
	log      zerolog.Logger
}

// OTPOption customises an OTPService.
type OTPOption func(*OTPService)

// WithOTPClock replaces the wall clock used for expiry.
func WithOTPClock(now func() time.Time) OTPOption {
	return func(s *OTPService) { s.now = now }
}

func NewOTPService(
	store ports.OTPStore,
	users ports.UserReader,
	notifier ports.OTPNotifier,
	cfg OTPConfig,
	log zerolog.Logger,
	opts ...OTPOption,
) *OTPService {
	if cfg.TTL <= 0 {
		cfg.TTL = domain.DefaultOTPTTL
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if cfg.MailTimeout <= 0 {
		cfg.MailTimeout = defaultMailTimeout
	}
	s := &OTPService{
		store:    store,
		users:    users,
		notifier: notifier,
		locks:    keylock.New(cfg.LockStripes),
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns a uniformly random six digit code.
func (s *OTPService) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpLow), nil
}

// IssueAndSend stores a fresh code for (email, purpose), replacing any live
// one, and hands it to the notifier. The stored code stays live when delivery
// fails.
func (s *OTPService) IssueAndSend(ctx context.Context, rawEmail string, purpose domain.OTPPurpose) (string, error) {
	if !purpose.Valid() {
		return "", domain.ErrInvalidPurpose
	}
	email := domain.NormalizeEmail(rawEmail)

	if purpose == domain.PurposePasswordReset {
		if _, err := s.lookupUser(ctx, email); err != nil {
			return "", err
		}
	}

	code, err := s.Generate()
	if err != nil {
		return "", err
	}

	rec := domain.OTPRecord{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(s.cfg.TTL),
	}
	if err := s.put(ctx, rec); err != nil {
		return "", err
	}
	metrics.OTPIssuedTotal.WithLabelValues(string(purpose)).Inc()

	if err := s.send(ctx, rec); err != nil {
		metrics.OTPDeliveryFailuresTotal.WithLabelValues(string(purpose)).Inc()
		s.log.Warn().Err(err).Str("email", email).Str("purpose", string(purpose)).Msg("otp delivery failed")
		return "", err
	}

	s.log.Info().Str("email", email).Str("purpose", string(purpose)).Msg("otp issued")
	return code, nil
}

// Verify consumes the record for the email and checks it against code and
// purpose. The record is gone afterwards whatever the outcome.
func (s *OTPService) Verify(ctx context.Context, rawEmail, code string, purpose domain.OTPPurpose) error {
	if !purpose.Valid() {
		return domain.ErrInvalidPurpose
	}
	email := domain.NormalizeEmail(rawEmail)

	err := s.verify(ctx, email, code, purpose)
	metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), verifyResult(err)).Inc()
	return err
}

func (s *OTPService) verify(ctx context.Context, email, code string, purpose domain.OTPPurpose) error {
	unlock := s.locks.Lock(email)
	defer unlock()

	rec, err := s.take(ctx, email, purpose)
	if errors.Is(err, domain.ErrOTPNotFound) {
		// A live code for another purpose is still consumed so it cannot be
		// probed through the wrong workflow.
		other, otherErr := s.takeOther(ctx, email, purpose)
		if otherErr != nil {
			return otherErr
		}
		if other != nil {
			return domain.ErrOTPPurposeMismatch
		}
		return domain.ErrOTPNotFound
	}
	if err != nil {
		return err
	}

	if rec.Purpose != purpose {
		return domain.ErrOTPPurposeMismatch
	}
	if !codeMatches(rec, code) {
		// The code may belong to a live record for another purpose; that
		// record is consumed too so it cannot be replayed in its own flow.
		stray, err := s.takeMatching(ctx, email, code, purpose)
		if err != nil {
			return err
		}
		if stray != nil {
			return domain.ErrOTPPurposeMismatch
		}
		return domain.ErrOTPCodeMismatch
	}
	if rec.Expired(s.now()) {
		return domain.ErrOTPExpired
	}
	return nil
}

// Invalidate drops every live code for the email.
func (s *OTPService) Invalidate(ctx context.Context, rawEmail string) error {
	email := domain.NormalizeEmail(rawEmail)

	unlock := s.locks.Lock(email)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, email); err != nil {
		return timeoutError(ctx, fmt.Errorf("invalidate otp: %w", err))
	}
	return nil
}

func (s *OTPService) put(ctx context.Context, rec domain.OTPRecord) error {
	unlock := s.locks.Lock(rec.Email)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	if err := s.store.Put(ctx, rec); err != nil {
		return timeoutError(ctx, fmt.Errorf("store otp: %w", err))
	}
	return nil
}

// take must be called with the email's stripe held.
func (s *OTPService) take(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	rec, err := s.store.Take(ctx, email, purpose)
	if err != nil && !errors.Is(err, domain.ErrOTPNotFound) {
		return nil, timeoutError(ctx, fmt.Errorf("take otp: %w", err))
	}
	return rec, err
}

// takeOther consumes the first live record for email under a purpose other
// than skip. It returns nil when there is none.
func (s *OTPService) takeOther(ctx context.Context, email string, skip domain.OTPPurpose) (*domain.OTPRecord, error) {
	for _, p := range domain.OTPPurposes {
		if p == skip {
			continue
		}
		rec, err := s.take(ctx, email, p)
		if errors.Is(err, domain.ErrOTPNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, nil
}

// takeMatching consumes the live record for email under a purpose other than
// skip whose code equals code. Records with other codes are left in place.
// It must be called with the email's stripe held.
func (s *OTPService) takeMatching(ctx context.Context, email, code string, skip domain.OTPPurpose) (*domain.OTPRecord, error) {
	for _, p := range domain.OTPPurposes {
		if p == skip {
			continue
		}
		rec, err := s.get(ctx, email, p)
		if errors.Is(err, domain.ErrOTPNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !codeMatches(rec, code) {
			continue
		}
		rec, err = s.take(ctx, email, p)
		if errors.Is(err, domain.ErrOTPNotFound) {
			return nil, nil
		}
		return rec, err
	}
	return nil, nil
}

func (s *OTPService) get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	rec, err := s.store.Get(ctx, email, purpose)
	if err != nil && !errors.Is(err, domain.ErrOTPNotFound) {
		return nil, timeoutError(ctx, fmt.Errorf("get otp: %w", err))
	}
	return rec, err
}

func codeMatches(rec *domain.OTPRecord, code string) bool {
	return subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) == 1
}

func (s *OTPService) send(ctx context.Context, rec domain.OTPRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.MailTimeout)
	defer cancel()

	err := s.notifier.SendOTP(ctx, ports.OTPMessage{
		To:        rec.Email,
		Code:      rec.Code,
		Purpose:   rec.Purpose,
		ExpiresIn: s.cfg.TTL,
	})
	if err != nil {
		return timeoutError(ctx, fmt.Errorf("send otp: %w", err))
	}
	return nil
}

func (s *OTPService) lookupUser(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, timeoutError(ctx, err)
	}
	return u, err
}

// timeoutError makes a deadline hit on ctx visible as domain.ErrTimeout.
func timeoutError(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}

func verifyResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrOTPNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrOTPPurposeMismatch):
		return "purpose_mismatch"
	case errors.Is(err, domain.ErrOTPCodeMismatch):
		return "code_mismatch"
	case errors.Is(err, domain.ErrOTPExpired):
		return "expired"
	default:
		return "error"
	}
}
