package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
	"github.com/Mahmoud3mmar/brewly/internal/core/ports"
	"github.com/Mahmoud3mmar/brewly/internal/pkg/metrics"
)

const (
	msgSignupComplete     = "Registration successful. Please verify your email with the OTP sent to your inbox."
	msgEmailVerified      = "Email verified successfully"
	msgVerificationResent = "Verification OTP sent to your email"
	msgResetSent          = "OTP sent to your email"
	msgResetNeutral       = "If the email exists, an OTP has been sent"
	msgPasswordReset      = "Password reset successfully"

	msgResetUserNotFound = "User not found with this email address. Please check your email and try again."
	msgResetOTPNotFound  = "OTP not found. Please request a new password reset OTP. Make sure you use the same email address you used to request the reset."

	// timingPassword is hashed once and compared against on unknown-email
	// logins so they cost the same as a wrong password.
	timingPassword = "brewly-timing-equalizer"
)

// AuthService implements the account flows: signup, login, email
// verification and password reset.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	otp      ports.OTPRegistry
	tokens   ports.TokenIssuer
	tokenTTL time.Duration
	now      func() time.Time
	log      zerolog.Logger

	timingOnce sync.Once
	timingHash string
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	otp ports.OTPRegistry,
	tokens ports.TokenIssuer,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		otp:      otp,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		now:      time.Now,
		log:      log,
	}
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*ports.SignupResult, error) {
	email := domain.NormalizeEmail(in.Email)

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("signup: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user, err := s.users.Create(ctx, &domain.User{
		Email:         email,
		PasswordHash:  hash,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		PhoneNumber:   in.PhoneNumber,
		EmailVerified: false,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, err
	}
	metrics.SignupsTotal.Inc()

	// The account exists from here on; a failed send can be retried through
	// the resend flow.
	if _, err := s.otp.IssueAndSend(ctx, email, domain.PurposeEmailVerification); err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to send verification otp")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return &ports.SignupResult{User: user, Token: token, Message: msgSignupComplete}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	user, err := s.login(ctx, email, password)
	metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &ports.LoginResult{User: user, Token: token}, nil
}

// dummyHash returns a hash of timingPassword made with the configured hasher.
func (s *AuthService) dummyHash(ctx context.Context) string {
	s.timingOnce.Do(func() {
		h, err := s.hasher.Hash(context.WithoutCancel(ctx), timingPassword)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare timing hash")
			return
		}
		s.timingHash = h
	})
	return s.timingHash
}

func (s *AuthService) login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = s.hasher.Compare(ctx, s.dummyHash(ctx), password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, password); err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	if !user.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}
	return user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, userID int64, code string) (string, error) {
	user, err := s.unverifiedUser(ctx, userID)
	if err != nil {
		return "", err
	}

	if err := s.otp.Verify(ctx, user.Email, code, domain.PurposeEmailVerification); err != nil {
		return "", err
	}

	verified := true
	if _, err := s.users.Update(ctx, user.ID, domain.UserUpdate{EmailVerified: &verified}); err != nil {
		return "", fmt.Errorf("verify email: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("email verified")
	return msgEmailVerified, nil
}

func (s *AuthService) ResendVerificationOTP(ctx context.Context, userID int64) (string, error) {
	user, err := s.unverifiedUser(ctx, userID)
	if err != nil {
		return "", err
	}

	if _, err := s.otp.IssueAndSend(ctx, user.Email, domain.PurposeEmailVerification); err != nil {
		return "", err
	}
	return msgVerificationResent, nil
}

// RequestPasswordReset never reveals whether the account exists: only
// validation failures reach the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if _, err := s.otp.IssueAndSend(ctx, email, domain.PurposePasswordReset); err != nil {
		if domain.KindOf(err) == domain.KindBadRequest {
			return "", err
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn().Err(err).Msg("password reset otp not sent")
		}
		return msgResetNeutral, nil
	}
	return msgResetSent, nil
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) (string, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.Recast(err, domain.KindBadRequest, msgResetUserNotFound)
		}
		return "", fmt.Errorf("confirm password reset: %w", err)
	}

	if err := s.otp.Verify(ctx, user.Email, code, domain.PurposePasswordReset); err != nil {
		if errors.Is(err, domain.ErrOTPNotFound) {
			return "", domain.Recast(err, domain.KindBadRequest, msgResetOTPNotFound)
		}
		return "", err
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return "", err
	}
	if _, err := s.users.Update(ctx, user.ID, domain.UserUpdate{PasswordHash: &hash}); err != nil {
		return "", fmt.Errorf("confirm password reset: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("password reset")
	return msgPasswordReset, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) unverifiedUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return nil, domain.ErrEmailAlreadyVerified
	}
	return user, nil
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	token, err := s.tokens.Issue(domain.UserPayload{ID: user.ID, Email: user.Email}, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUserInactive):
		return "inactive"
	case errors.Is(err, domain.ErrEmailNotVerified):
		return "unverified"
	default:
		return "error"
	}
}
