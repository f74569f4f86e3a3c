package domain

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	// Create persists a user without a role profile (admins).
	// Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *User) error

	// GetByID returns ErrUserNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail expects a normalized email. Returns ErrUserNotFound if not found.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns users ordered by creation time; an empty role lists everyone.
	List(ctx context.Context, role Role) ([]*User, error)

	// Update saves name, email, password hash and MFA fields.
	Update(ctx context.Context, u *User) error

	// Delete removes the user and, through cascades, its role profile and
	// everything the profile owns.
	Delete(ctx context.Context, id uuid.UUID) error

	CountByRole(ctx context.Context) (map[Role]int64, error)

	RecordLogin(ctx context.Context, id uuid.UUID) error
}

type AuditRepository interface {
	Create(ctx context.Context, entry *AuditLog) error
}
