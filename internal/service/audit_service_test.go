package service

import (
	"context"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

type blockingAuditRepo struct {
	release chan struct{}
}

func (r *blockingAuditRepo) Create(ctx context.Context, _ *domain.AuditLog) error {
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return nil
}

func TestAuditService_ShutdownDrainsQueue(t *testing.T) {
	st := memory.NewStore()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	svc := NewAuditService(st.Audit, m, zap.NewNop())

	caller := Caller{ID: uuid.New(), Role: domain.RoleDoctor, RequestID: "req-1"}
	for i := 0; i < 5; i++ {
		svc.LogAsync(AuditEntry{Caller: caller, Action: domain.ActionRead, ResourceType: "patient", ResourceID: "p"})
	}
	svc.Shutdown(context.Background())

	entries := st.AuditEntries()
	if len(entries) != 5 {
		t.Fatalf("persisted %d entries, want 5", len(entries))
	}
	if entries[0].UserID != caller.ID || entries[0].RequestID != "req-1" || entries[0].UserRole != domain.RoleDoctor {
		t.Errorf("caller not recorded: %+v", entries[0])
	}
	if got := testutil.ToFloat64(m.AuditEntriesTotal); got != 5 {
		t.Errorf("entries_total = %v, want 5", got)
	}
}

func TestAuditService_ShutdownHonoursDeadline(t *testing.T) {
	repo := &blockingAuditRepo{release: make(chan struct{})}
	defer close(repo.release)

	m := metrics.NewCollector("test", prometheus.NewRegistry())
	svc := NewAuditService(repo, m, zap.NewNop())
	svc.LogAsync(AuditEntry{Action: domain.ActionRead, ResourceType: "patient"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	svc.Shutdown(ctx)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("shutdown waited %v past its deadline", elapsed)
	}
}
