package service

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"go.uber.org/zap"
)

const (
	auditQueueSize    = 10_000
	auditWriteTimeout = 5 * time.Second
)

// AuditService records who touched which clinical resource. Entries are
// queued by the request path and written by a single background worker, so a
// slow audit table never holds up a response.
type AuditService struct {
	repo    domain.AuditRepository
	metrics *metrics.Collector
	log     *zap.Logger

	queue   chan *domain.AuditLog
	drained chan struct{}
}

func NewAuditService(repo domain.AuditRepository, m *metrics.Collector, log *zap.Logger) *AuditService {
	s := &AuditService{
		repo:    repo,
		metrics: m,
		log:     log.Named("audit"),
		queue:   make(chan *domain.AuditLog, auditQueueSize),
		drained: make(chan struct{}),
	}
	go s.run()
	return s
}

// LogAsync queues entry without blocking. When the queue is full the entry
// is dropped, counted in buffer_dropped_total and logged with enough context
// to reconstruct it from the request log.
func (s *AuditService) LogAsync(entry AuditEntry) {
	record := entry.record()

	select {
	case s.queue <- record:
	default:
		s.metrics.AuditBufferDropped.Inc()
		s.log.Warn("audit queue full, entry dropped",
			zap.String("action", string(record.Action)),
			zap.String("resource_type", record.ResourceType),
			zap.String("resource_id", record.ResourceID),
			zap.String("request_id", record.RequestID),
		)
	}
}

// Shutdown stops accepting entries and waits until everything already queued
// has been written or ctx expires, whichever comes first. LogAsync must not be
// called afterwards.
func (s *AuditService) Shutdown(ctx context.Context) {
	close(s.queue)
	select {
	case <-s.drained:
	case <-ctx.Done():
		s.log.Warn("audit queue not drained before shutdown deadline",
			zap.Int("pending", len(s.queue)),
		)
	}
}

func (s *AuditService) run() {
	defer close(s.drained)
	for record := range s.queue {
		s.persist(record)
	}
}

func (s *AuditService) persist(record *domain.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, record); err != nil {
		s.log.Error("writing audit entry",
			zap.String("action", string(record.Action)),
			zap.String("resource_id", record.ResourceID),
			zap.Error(err),
		)
		return
	}
	s.metrics.AuditEntriesTotal.Inc()
}

func (e AuditEntry) record() *domain.AuditLog {
	return &domain.AuditLog{
		UserID:       e.Caller.ID,
		UserRole:     e.Caller.Role,
		IPAddress:    e.Caller.IP,
		RequestID:    e.Caller.RequestID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Changes:      e.Changes,
	}
}
