package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository struct {
	db *gorm.DB
}

// withoutReport skips the document blob, which can be megabytes per row.
func withoutReport(db *gorm.DB) *gorm.DB {
	return db.Omit("report")
}

func (r *PatientRepository) Create(ctx context.Context, u *domain.User, p *patient.Patient) error {
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

		n, err := database.NextValue(tx, database.PatientCodeSequence)
		if err != nil {
			return err
		}

		p.UserID = u.ID
		p.Code = patient.FormatCode(n)
		if p.Prescriptions == nil {
			p.Prescriptions = []prescription.Entry{}
		}
		if err := tx.Omit("User").Create(p).Error; err != nil {
			return fmt.Errorf("inserting patient profile: %w", err)
		}
		p.User = *u
		return nil
	})
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := withoutReport(r.db.WithContext(ctx)).
		Preload("User").
		First(&p, "user_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("loading patient %s: %w", id, err)
	}
	return &p, nil
}

func (r *PatientRepository) List(ctx context.Context) ([]*patient.Patient, error) {
	var patients []*patient.Patient
	err := withoutReport(r.db.WithContext(ctx)).
		Preload("User").
		Order("LENGTH(code) ASC, code ASC").
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	return patients, nil
}

func (r *PatientRepository) Update(ctx context.Context, p *patient.Patient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&patient.Patient{}).
			Where("user_id = ?", p.UserID).
			Updates(map[string]any{
				"age":           p.Age,
				"date_of_birth": p.DateOfBirth,
				"gender":        p.Gender,
				"phone":         p.Phone,
				"address":       p.Address,
				"blood_group":   p.BloodGroup,
			})
		if res.Error != nil {
			return fmt.Errorf("updating patient %s: %w", p.UserID, res.Error)
		}
		if res.RowsAffected == 0 {
			return patient.ErrPatientNotFound
		}

		p.User.ID = p.UserID
		return updateUser(tx, &p.User)
	})
}

func (r *PatientRepository) ReplacePrescriptions(ctx context.Context, id uuid.UUID, entries []prescription.Entry) error {
	res := r.db.WithContext(ctx).Model(&patient.Patient{UserID: id}).
		Select("prescriptions").
		Updates(&patient.Patient{Prescriptions: entries})
	if res.Error != nil {
		return fmt.Errorf("replacing prescriptions for %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) SetReport(ctx context.Context, id uuid.UUID, data []byte, contentType string) error {
	res := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Where("user_id = ?", id).
		Updates(map[string]any{
			"report":              data,
			"report_content_type": contentType,
		})
	if res.Error != nil {
		return fmt.Errorf("storing report for %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) GetReport(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	var row struct {
		Report            []byte
		ReportContentType string
	}
	res := r.db.WithContext(ctx).Model(&patient.Patient{}).
		Select("report, report_content_type").
		Where("user_id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, "", fmt.Errorf("loading report for %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, "", patient.ErrPatientNotFound
	}
	if len(row.Report) == 0 {
		return nil, "", patient.ErrReportNotFound
	}
	return row.Report, row.ReportContentType, nil
}
