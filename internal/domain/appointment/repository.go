package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error

	// GetByID returns ErrAppointmentNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)

	// ListByDoctor returns the doctor's appointments in any of the given statuses
	// (all statuses when none are given) with Patient and Patient.User loaded.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, statuses ...Status) ([]*Appointment, error)

	// UpdateStatus writes status, doctor name and status timestamp only if the
	// stored version still equals expectedVersion, then bumps a.Version.
	// Returns ErrConcurrentUpdate when the row moved on.
	UpdateStatus(ctx context.Context, a *Appointment, expectedVersion int) error
}
