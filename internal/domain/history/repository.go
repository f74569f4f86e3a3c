package history

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Append(ctx context.Context, e *Entry) error

	// ListByPatient returns entries oldest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error)
}
