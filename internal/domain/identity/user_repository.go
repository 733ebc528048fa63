package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create inserts a new user. Duplicate username or email yields shared.ErrAlreadyExists.
	Create(ctx context.Context, user *User) error

	// Update saves the user with an optimistic version check
	Update(ctx context.Context, user *User) error

	// UpdateLoginState saves only the login bookkeeping fields without a version check
	UpdateLoginState(ctx context.Context, user *User) error

	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Search matches username or display name by substring
	Search(ctx context.Context, filter shared.Filter) ([]*User, int64, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
