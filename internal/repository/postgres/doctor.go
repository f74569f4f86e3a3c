package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorRepository struct {
	db *gorm.DB
}

func (r *DoctorRepository) Create(ctx context.Context, u *domain.User, d *doctor.Doctor) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrEmailTaken
			}
			return fmt.Errorf("inserting user: %w", err)
		}

		d.UserID = u.ID
		if err := tx.Omit("User").Create(d).Error; err != nil {
			return fmt.Errorf("inserting doctor profile: %w", err)
		}
		d.User = *u
		return nil
	})
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Preload("User").First(&d, "user_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("loading doctor %s: %w", id, err)
	}
	return &d, nil
}

func (r *DoctorRepository) List(ctx context.Context, specialization string) ([]*doctor.Doctor, error) {
	q := r.db.WithContext(ctx).
		Joins("User").
		Order(`"User"."name" ASC`)
	if specialization != "" {
		q = q.Where("LOWER(clinical.doctors.specialization) = LOWER(?)", specialization)
	}

	var doctors []*doctor.Doctor
	if err := q.Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}
	return doctors, nil
}

func (r *DoctorRepository) Update(ctx context.Context, d *doctor.Doctor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&doctor.Doctor{}).
			Where("user_id = ?", d.UserID).
			Updates(map[string]any{
				"specialization":   d.Specialization,
				"phone":            d.Phone,
				"experience_years": d.ExperienceYears,
			})
		if res.Error != nil {
			return fmt.Errorf("updating doctor %s: %w", d.UserID, res.Error)
		}
		if res.RowsAffected == 0 {
			return doctor.ErrDoctorNotFound
		}

		d.User.ID = d.UserID
		return updateUser(tx, &d.User)
	})
}
