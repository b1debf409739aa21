package handler

import (
	"time"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

// --- Requests ---

type signupRequest struct {
	Email       string `json:"email"       validate:"required,email"        example:"user@example.com"`
	Password    string `json:"password"    validate:"required,min=6"        example:"password123"`
	FirstName   string `json:"firstName"   validate:"required"              example:"John"`
	LastName    string `json:"lastName"    validate:"required"              example:"Doe"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,e164"        example:"+14155550100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required"       example:"password123"`
}

type otpVerifyRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric" example:"123456"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
}

type passwordResetConfirmRequest struct {
	Email       string `json:"email"       validate:"required,email"        example:"user@example.com"`
	OTP         string `json:"otp"         validate:"required,len=6,numeric" example:"123456"`
	NewPassword string `json:"newPassword" validate:"required,min=6"        example:"newpassword123"`
}

// --- Responses ---

// envelope wraps every successful response body.
type envelope struct {
	Data       any    `json:"data"`
	StatusCode int    `json:"statusCode" example:"200"`
	Message    string `json:"message"    example:"Success"`
}

type userProfile struct {
	ID            int64     `json:"id"                    example:"1"`
	Email         string    `json:"email"                 example:"user@example.com"`
	FirstName     string    `json:"firstName"             example:"John"`
	LastName      string    `json:"lastName"              example:"Doe"`
	PhoneNumber   string    `json:"phoneNumber,omitempty" example:"+14155550100"`
	EmailVerified bool      `json:"emailVerified"         example:"true"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type authResponse struct {
	User    userProfile `json:"user"`
	Token   string      `json:"token"`
	Message string      `json:"message,omitempty"`
}

type messageResponse struct {
	Message string `json:"message" example:"OTP sent to your email"`
}

func toUserProfile(u *domain.User) userProfile {
	return userProfile{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PhoneNumber:   u.PhoneNumber,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
