package doctor

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/google/uuid"
)

type Repository interface {
	// Create persists the user and its doctor profile in one transaction.
	// Returns domain.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *domain.User, d *Doctor) error

	// GetByID returns ErrDoctorNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// List returns doctors ordered by name, optionally filtered by specialization.
	List(ctx context.Context, specialization string) ([]*Doctor, error)

	// Update saves the profile together with the identity fields of d.User
	// in a single write. Returns domain.ErrEmailTaken on a duplicate email.
	Update(ctx context.Context, d *Doctor) error
}
