package ports

import (
	"context"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

// SignupInput carries the data needed to register a user.
type SignupInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// SignupResult is returned by a successful signup.
type SignupResult struct {
	User    *domain.User
	Token   string
	Message string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User  *domain.User
	Token string
}

// AuthService orchestrates the account flows. Methods returning a string
// return a human-readable status message.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*SignupResult, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	VerifyEmail(ctx context.Context, userID int64, code string) (string, error)
	ResendVerificationOTP(ctx context.Context, userID int64) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) (string, error)
	GetProfile(ctx context.Context, userID int64) (*domain.User, error)
}
