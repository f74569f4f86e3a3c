package patient

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/prescription"
	"github.com/google/uuid"
)

// CodePrefix starts every human-readable patient code (P001, P002, ...).
const CodePrefix = "P"

// Patient is the patient profile of a User with RolePatient.
type Patient struct {
	UserID    uuid.UUID   `gorm:"column:user_id;type:uuid;primaryKey"`
	User      domain.User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime"`

	Code string `gorm:"column:code;type:varchar(20);uniqueIndex;not null"`

	// Age wins over DateOfBirth when both are set.
	Age         *int       `gorm:"column:age"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth;type:date"`
	Gender      string     `gorm:"column:gender;type:varchar(30)"`
	Phone       string     `gorm:"column:phone;type:varchar(30)"`
	Address     string     `gorm:"column:address;type:text"`
	BloodGroup  string     `gorm:"column:blood_group;type:varchar(5)"`

	// Replaced as a whole by the prescribing doctor.
	Prescriptions []prescription.Entry `gorm:"column:prescriptions;serializer:json"`

	Report            []byte `gorm:"column:report;type:bytea"`
	ReportContentType string `gorm:"column:report_content_type;type:varchar(100)"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) Name() string {
	return p.User.Name
}

// AgeOn returns the patient's age on the given day. ok is false when neither an
// age nor a date of birth is recorded.
func (p *Patient) AgeOn(now time.Time) (age int, ok bool) {
	if p.Age != nil {
		return *p.Age, true
	}
	if p.DateOfBirth != nil {
		return AgeOn(*p.DateOfBirth, now), true
	}
	return 0, false
}

// AgeOn counts whole years from dob to now; the current year only counts once
// the birthday has been reached.
func AgeOn(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() ||
		(now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// FormatCode renders a sequence number as a patient code, padded to three digits.
func FormatCode(n int64) string {
	return fmt.Sprintf("%s%03d", CodePrefix, n)
}

type CreatePatientCommand struct {
	Age         *int
	DateOfBirth *time.Time
	Gender      string
	Phone       string
	Address     string
	BloodGroup  string
}

type UpdatePatientCommand struct {
	Age         *int
	DateOfBirth *time.Time
	Gender      *string
	Phone       *string
	Address     *string
	BloodGroup  *string
}

// Apply copies the set fields of cmd onto p.
func (cmd *UpdatePatientCommand) Apply(p *Patient) {
	if cmd.Age != nil {
		p.Age = cmd.Age
	}
	if cmd.DateOfBirth != nil {
		p.DateOfBirth = cmd.DateOfBirth
	}
	if cmd.Gender != nil {
		p.Gender = strings.TrimSpace(*cmd.Gender)
	}
	if cmd.Phone != nil {
		p.Phone = strings.TrimSpace(*cmd.Phone)
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.BloodGroup != nil {
		p.BloodGroup = strings.TrimSpace(*cmd.BloodGroup)
	}
}

// ValidateDemographics rejects impossible ages and birth dates.
func ValidateDemographics(age *int, dob *time.Time, now time.Time) error {
	if age != nil && (*age < 0 || *age > 150) {
		return ErrInvalidAge
	}
	if dob != nil && dob.After(now) {
		return ErrInvalidDateOfBirth
	}
	return nil
}
