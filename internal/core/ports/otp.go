package ports

import (
	"context"
	"time"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

// OTPStore persists live OTP records keyed by (email, purpose).
// Emails passed in are already normalized.
type OTPStore interface {
	// Put stores rec, replacing any record for the same (email, purpose).
	Put(ctx context.Context, rec domain.OTPRecord) error
	// Get returns the record for (email, purpose) without removing it.
	// It returns domain.ErrOTPNotFound when there is none.
	Get(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error)
	// Take atomically removes and returns the record for (email, purpose).
	// It returns domain.ErrOTPNotFound when there is none.
	Take(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error)
	// Delete removes the records for email under every purpose.
	Delete(ctx context.Context, email string) error
}

// OTPRegistry issues and consumes one-time passcodes.
type OTPRegistry interface {
	IssueAndSend(ctx context.Context, email string, purpose domain.OTPPurpose) (string, error)
	Verify(ctx context.Context, email, code string, purpose domain.OTPPurpose) error
	Invalidate(ctx context.Context, email string) error
}

// OTPMessage is a passcode ready for delivery.
type OTPMessage struct {
	To        string
	Code      string
	Purpose   domain.OTPPurpose
	ExpiresIn time.Duration
}

// OTPNotifier delivers passcodes to users.
type OTPNotifier interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}
