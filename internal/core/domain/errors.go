package domain

import "errors"

// Kind classifies an Error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindConflict
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Error is a classified domain failure. Sentinels are compared by identity,
// so errors.Is keeps working through Recast and fmt.Errorf("%w") wrapping.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Recast gives err a new caller-facing kind and message while keeping the
// original in the chain.
func Recast(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, cause: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Identity errors.
var (
	ErrUserNotFound         = newError(KindNotFound, "user not found")
	ErrUserExists           = newError(KindConflict, "user already exists")
	ErrInvalidCredentials   = newError(KindUnauthorized, "invalid credentials")
	ErrUserInactive         = newError(KindUnauthorized, "user is inactive")
	ErrEmailNotVerified     = newError(KindUnauthorized, "please verify your email before logging in. Check your inbox for the verification code.")
	ErrEmailAlreadyVerified = newError(KindBadRequest, "email already verified")
)

// OTP errors.
var (
	ErrOTPNotFound        = newError(KindBadRequest, "OTP not found or expired")
	ErrOTPPurposeMismatch = newError(KindBadRequest, "invalid OTP purpose")
	ErrOTPCodeMismatch    = newError(KindBadRequest, "invalid OTP")
	ErrOTPExpired         = newError(KindBadRequest, "OTP expired")
	ErrInvalidPurpose     = newError(KindBadRequest, "unknown OTP purpose")
)

// Token errors.
var (
	ErrTokenMalformed        = newError(KindUnauthorized, "invalid token: malformed")
	ErrTokenInvalidSignature = newError(KindUnauthorized, "invalid token: signature is invalid")
	ErrTokenExpired          = newError(KindUnauthorized, "token has expired")
	ErrTokenNotYetValid      = newError(KindUnauthorized, "token not active yet")
	ErrTokenMalformedPayload = newError(KindUnauthorized, "token payload is missing required fields")
)

// ErrTimeout is returned when a bounded operation runs past its deadline.
var ErrTimeout = newError(KindTimeout, "operation timed out")
