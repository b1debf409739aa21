package ports

import (
	"context"

	"github.com/Mahmoud3mmar/brewly/internal/core/domain"
)

// UserReader resolves users by id or by email. FindByEmail normalizes its
// argument. Both return domain.ErrUserNotFound when there is no match.
type UserReader interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	UserReader
	// Create assigns the user's ID and timestamps and returns the stored copy.
	// It returns domain.ErrUserExists on a duplicate email.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error)
}
