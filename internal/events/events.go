// Package events publishes appointment lifecycle events for downstream
// consumers (notifications, analytics).
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	AppointmentBooked    Type = "appointment.booked"
	AppointmentApproved  Type = "appointment.approved"
	AppointmentRejected  Type = "appointment.rejected"
	AppointmentCompleted Type = "appointment.completed"
	AppointmentCancelled Type = "appointment.cancelled"
)

type Event struct {
	ID            uuid.UUID `json:"id"`
	Type          Type      `json:"type"`
	OccurredAt    time.Time `json:"occurredAt"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	PatientID     uuid.UUID `json:"patientId"`
	DoctorID      uuid.UUID `json:"doctorId"`
	Status        string    `json:"status"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher discards every event. Used when EVENTS_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
