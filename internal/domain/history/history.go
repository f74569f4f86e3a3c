package history

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one line of a patient's medical history.
// Once created, entries cannot be edited or deleted; they go with the patient.
type Entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	Condition   string     `gorm:"column:condition;type:varchar(255);not null"`
	DiagnosedOn *time.Time `gorm:"column:diagnosed_on;type:date"`
	Notes       string     `gorm:"column:notes;type:text"` // PHI

	RecordedBy uuid.UUID `gorm:"column:recorded_by;type:uuid;not null"`
}

func (Entry) TableName() string {
	return "clinical.medical_history"
}

type AddEntryCommand struct {
	PatientID   uuid.UUID
	Condition   string
	DiagnosedOn *time.Time
	Notes       string
	RecordedBy  uuid.UUID
}

func (cmd *AddEntryCommand) Validate(now time.Time) error {
	if strings.TrimSpace(cmd.Condition) == "" {
		return ErrConditionRequired
	}
	if cmd.DiagnosedOn != nil && cmd.DiagnosedOn.After(now) {
		return ErrDiagnosedInFuture
	}
	return nil
}
