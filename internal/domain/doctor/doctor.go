package doctor

import (
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/google/uuid"
)

// Doctor is the doctor profile of a User with RoleDoctor.
type Doctor struct {
	UserID    uuid.UUID   `gorm:"column:user_id;type:uuid;primaryKey"`
	User      domain.User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"autoCreateTime"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime"`

	Specialization  string `gorm:"column:specialization;type:varchar(120);not null;index"`
	Phone           string `gorm:"column:phone;type:varchar(30)"`
	ExperienceYears int    `gorm:"column:experience_years;default:0"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

func (d *Doctor) Name() string {
	return d.User.Name
}

type CreateDoctorCommand struct {
	Specialization  string
	Phone           string
	ExperienceYears int
}

type UpdateDoctorCommand struct {
	Specialization  *string
	Phone           *string
	ExperienceYears *int
}

func (cmd *UpdateDoctorCommand) Apply(d *Doctor) error {
	if cmd.Specialization != nil {
		s := strings.TrimSpace(*cmd.Specialization)
		if s == "" {
			return ErrSpecializationRequired
		}
		d.Specialization = s
	}
	if cmd.Phone != nil {
		d.Phone = strings.TrimSpace(*cmd.Phone)
	}
	if cmd.ExperienceYears != nil {
		d.ExperienceYears = *cmd.ExperienceYears
	}
	return nil
}
