package postgres

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Changes == "" {
		// jsonb rejects the empty string
		entry.Changes = "{}"
	}
	return r.db.WithContext(ctx).Create(entry).Error
}
