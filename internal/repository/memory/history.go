package memory

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/google/uuid"
)

type HistoryRepository struct {
	s *state
}

func (r *HistoryRepository) Append(_ context.Context, e *history.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now().UTC()
	cp := *e
	r.s.history = append(r.s.history, &cp)
	return nil
}

func (r *HistoryRepository) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*history.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*history.Entry
	for _, e := range r.s.history {
		if e.PatientID == patientID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type AuditRepository struct {
	s *state
}

func (r *AuditRepository) Create(_ context.Context, entry *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.OccurredAt = time.Now().UTC()
	cp := *entry
	r.s.audit = append(r.s.audit, &cp)
	return nil
}
