package appointment

import (
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/google/uuid"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// State transitions possibilities:
//
//	scheduled → approved → completed
//	scheduled → rejected
//	scheduled → cancelled
//	approved  → cancelled
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus maps any casing, plus the legacy "Pending" and "Approve"
// spellings, onto the canonical statuses.
func ParseStatus(s string) (Status, bool) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "pending":
		return StatusScheduled, true
	case "approve":
		return StatusApproved, true
	default:
		st := Status(v)
		return st, st.IsValid()
	}
}

// Appointment is owned by exactly one patient and removed with it. Deleting
// the doctor removes it too.
type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID uuid.UUID       `gorm:"column:patient_id;type:uuid;not null;index"`
	Patient   patient.Patient `gorm:"foreignKey:PatientID;references:UserID;constraint:OnDelete:CASCADE"`

	DoctorID   uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index:idx_appointments_doctor_status,priority:1"`
	DoctorName string    `gorm:"column:doctor_name;type:varchar(200)"`

	Date   string `gorm:"column:date;type:varchar(10);not null"`
	Time   string `gorm:"column:time;type:varchar(5);not null"`
	Reason string `gorm:"column:reason;type:text"`

	Status Status `gorm:"column:status;type:varchar(20);not null;default:'scheduled';index:idx_appointments_doctor_status,priority:2"`
	// Version guards status updates against lost writes.
	Version int `gorm:"column:version;not null;default:1"`

	StatusChangedAt *time.Time `gorm:"column:status_changed_at"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

var transitions = map[Status][]Status{
	StatusScheduled: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusCompleted, StatusCancelled},
	StatusRejected:  {},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (a *Appointment) CanTransitionTo(next Status) bool {
	for _, s := range transitions[a.Status] {
		if s == next {
			return true
		}
	}
	return false
}

func (a *Appointment) transition(next Status, now time.Time) error {
	if !a.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	a.Status = next
	a.StatusChangedAt = &now
	return nil
}

// Approve moves a scheduled appointment to approved and records the doctor's
// display name. Approving an approved appointment changes nothing and reports
// changed=false.
func (a *Appointment) Approve(doctorName string, now time.Time) (changed bool, err error) {
	if a.Status == StatusApproved {
		return false, nil
	}
	if err := a.transition(StatusApproved, now); err != nil {
		return false, err
	}
	a.DoctorName = doctorName
	return true, nil
}

func (a *Appointment) Reject(now time.Time) error {
	return a.transition(StatusRejected, now)
}

func (a *Appointment) Complete(now time.Time) error {
	return a.transition(StatusCompleted, now)
}

func (a *Appointment) Cancel(now time.Time) error {
	return a.transition(StatusCancelled, now)
}

type BookAppointmentCommand struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      string
	Time      string
	Reason    string
}

// Validate checks the date and time formats of the requested slot.
func (cmd *BookAppointmentCommand) Validate() []string {
	var errs []string
	if cmd.DoctorID == uuid.Nil {
		errs = append(errs, "doctorId is required")
	}
	if _, err := time.Parse(DateLayout, cmd.Date); err != nil {
		errs = append(errs, "date must be formatted as YYYY-MM-DD")
	}
	if _, err := time.Parse(TimeLayout, cmd.Time); err != nil {
		errs = append(errs, "time must be formatted as HH:MM")
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		errs = append(errs, "reason is required")
	}
	return errs
}
