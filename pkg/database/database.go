package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func Connect(cfg config.DatabaseConfig, log *zap.Logger, m *metrics.Collector) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   NewGormLogger(log, cfg.SlowQueryThreshold, m),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: cfg.DSN(),
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Ping reports whether the pool can still reach the server.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"clinical", "auth", "audit"}
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.User{},
		&domain.AuditLog{},
		&doctor.Doctor{},
		&patient.Patient{},
		&appointment.Appointment{},
		&history.Entry{},
		&Sequence{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	// these references have no association field, so the cascades are added by hand
	for _, fk := range cascadeKeys {
		if err := addForeignKey(db, fk); err != nil {
			return err
		}
	}

	if err := seedPatientSequence(db); err != nil {
		return fmt.Errorf("seeding patient code sequence: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

type foreignKey struct {
	name, table, column, refTable, refColumn string
}

var cascadeKeys = []foreignKey{
	{"fk_medical_history_patient", "clinical.medical_history", "patient_id", "clinical.patients", "user_id"},
	{"fk_appointments_doctor", "clinical.appointments", "doctor_id", "clinical.doctors", "user_id"},
}

func addForeignKey(db *gorm.DB, fk foreignKey) error {
	stmt := fmt.Sprintf(`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
			ALTER TABLE %s
				ADD CONSTRAINT %s FOREIGN KEY (%s)
				REFERENCES %s (%s) ON DELETE CASCADE;
		END IF;
	END $$`, fk.name, fk.table, fk.name, fk.column, fk.refTable, fk.refColumn)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("adding foreign key %s: %w", fk.name, err)
	}
	return nil
}

// seedPatientSequence moves the counter up to the highest code already stored,
// so databases populated before the counter existed keep issuing fresh codes.
func seedPatientSequence(db *gorm.DB) error {
	var maxCode int64
	err := db.Raw(`SELECT COALESCE(MAX(CAST(SUBSTRING(code FROM 2) AS BIGINT)), 0)
		FROM clinical.patients WHERE code ~ '^P[0-9]+$'`).Scan(&maxCode).Error
	if err != nil {
		return err
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value": gorm.Expr("GREATEST(clinical.sequences.value, EXCLUDED.value)"),
		}),
	}).Create(&Sequence{Name: PatientCodeSequence, Value: maxCode}).Error
}
