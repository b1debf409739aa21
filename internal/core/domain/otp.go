package domain

import "time"

// OTPPurpose scopes a one-time passcode to a single workflow.
type OTPPurpose string

const (
	PurposeEmailVerification OTPPurpose = "email_verification"
	PurposePasswordReset     OTPPurpose = "password_reset"
)

// DefaultOTPTTL is how long an issued OTP stays valid.
const DefaultOTPTTL = 10 * time.Minute

// OTPPurposes lists every known purpose.
var OTPPurposes = []OTPPurpose{PurposeEmailVerification, PurposePasswordReset}

// Valid reports whether p is a known purpose.
func (p OTPPurpose) Valid() bool {
	return p == PurposeEmailVerification || p == PurposePasswordReset
}

// OTPRecord is a live one-time passcode for (Email, Purpose).
type OTPRecord struct {
	Email     string     `json:"email"`
	Code      string     `json:"code"`
	Purpose   OTPPurpose `json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (r OTPRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
