// Package jobs runs periodic background work on a gocron scheduler.
package jobs

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// PoolStats is implemented by *sql.DB.
type PoolStats interface {
	Stats() sql.DBStats
}

type Scheduler struct {
	s   *gocron.Scheduler
	log *zap.Logger
}

// Start schedules the jobs and runs them asynchronously. db may be nil when the
// memory store is in use, in which case the pool job is skipped.
func Start(cfg config.JobsConfig, db PoolStats, m *metrics.Collector, log *zap.Logger) (*Scheduler, error) {
	log = log.Named("jobs")
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	if db != nil && cfg.DBStatsInterval > 0 {
		_, err := s.Every(cfg.DBStatsInterval).Do(func() {
			RecordPoolStats(db, m)
		})
		if err != nil {
			return nil, fmt.Errorf("scheduling db stats job: %w", err)
		}
	}

	s.StartAsync()
	log.Info("background jobs started", zap.Int("jobs", len(s.Jobs())))

	return &Scheduler{s: s, log: log}, nil
}

func (j *Scheduler) Stop() {
	j.s.Stop()
	j.log.Info("background jobs stopped")
}

// RecordPoolStats copies the connection pool counters into the gauges.
func RecordPoolStats(db PoolStats, m *metrics.Collector) {
	st := db.Stats()
	m.DBConnections.Set(float64(st.OpenConnections))
	m.DBInUse.Set(float64(st.InUse))
	m.DBIdle.Set(float64(st.Idle))
}
