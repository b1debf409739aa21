package domain

import (
	"strings"
	"time"
)

// User is a registered identity. Email is always stored normalized.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UserUpdate carries the mutable fields of a user; nil fields are left as-is.
type UserUpdate struct {
	PasswordHash  *string
	EmailVerified *bool
	IsActive      *bool
}

// NormalizeEmail returns the canonical lookup form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
