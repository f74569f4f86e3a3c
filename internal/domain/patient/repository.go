package patient

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/prescription"
	"github.com/google/uuid"
)

type Repository interface {
	// Create persists the user and its patient profile in one transaction and
	// assigns p.Code from the atomic patient counter. Returns domain.ErrEmailTaken
	// on a duplicate email.
	Create(ctx context.Context, u *domain.User, p *Patient) error

	// GetByID retrieves a patient (with its user) by user ID, without the report
	// blob. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// List returns every patient ordered by code, without report blobs.
	List(ctx context.Context) ([]*Patient, error)

	// Update saves the demographic fields together with the identity fields of
	// p.User in a single write. Returns domain.ErrEmailTaken on a duplicate email.
	Update(ctx context.Context, p *Patient) error

	// ReplacePrescriptions overwrites the whole prescription list.
	ReplacePrescriptions(ctx context.Context, id uuid.UUID, entries []prescription.Entry) error

	SetReport(ctx context.Context, id uuid.UUID, data []byte, contentType string) error

	// GetReport returns ErrReportNotFound when the patient has no document.
	GetReport(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}
