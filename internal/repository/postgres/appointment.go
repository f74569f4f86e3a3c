package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	if err := r.db.WithContext(ctx).Omit("Patient").Create(a).Error; err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("loading appointment %s: %w", id, err)
	}
	return &a, nil
}

func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("date ASC, time ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments for patient %s: %w", patientID, err)
	}
	return out, nil
}

func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, statuses ...appointment.Status) ([]*appointment.Appointment, error) {
	// served by idx_appointments_doctor_status
	q := r.db.WithContext(ctx).
		Preload("Patient", withoutReport).
		Preload("Patient.User").
		Where("doctor_id = ?", doctorID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var out []*appointment.Appointment
	if err := q.Order("date ASC, time ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing appointments for doctor %s: %w", doctorID, err)
	}
	return out, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment, expectedVersion int) error {
	res := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("id = ? AND version = ?", a.ID, expectedVersion).
		Updates(map[string]any{
			"status":            a.Status,
			"doctor_name":       a.DoctorName,
			"status_changed_at": a.StatusChangedAt,
			"version":           gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("updating appointment %s: %w", a.ID, res.Error)
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
			Where("id = ?", a.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("checking appointment %s: %w", a.ID, err)
		}
		if count == 0 {
			return appointment.ErrAppointmentNotFound
		}
		return appointment.ErrConcurrentUpdate
	}

	a.Version = expectedVersion + 1
	return nil
}
