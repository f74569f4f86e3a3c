package postgres

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func (r *HistoryRepository) Append(ctx context.Context, e *history.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("appending history entry: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*history.Entry, error) {
	var out []*history.Entry
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing history for %s: %w", patientID, err)
	}
	return out, nil
}
