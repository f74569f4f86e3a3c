package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/events"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/handler"
	v1 "github.com/dmehra2102/prod-golang-projects/clinicflow/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/jobs"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/secrets"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds what every command needs: configuration, logging, metrics and
// the repositories of the configured store.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Collector

	users        domain.UserRepository
	doctors      doctor.Repository
	patients     patient.Repository
	appointments appointment.Repository
	history      history.Repository
	audit        domain.AuditRepository

	// nil for the memory store
	db *gorm.DB
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	log = logger.WithService(log, cfg.App)

	if err := resolveJWTSecret(ctx, cfg); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewCollector("clinicflow", reg),
	}

	switch cfg.Database.Driver {
	case "memory":
		log.Warn("using the in-memory store; data is lost on restart")
		st := memory.NewStore()
		a.users, a.doctors, a.patients = st.Users, st.Doctors, st.Patients
		a.appointments, a.history, a.audit = st.Appointments, st.History, st.Audit

	default:
		db, err := database.Connect(cfg.Database, log, a.metrics)
		if err != nil {
			return nil, err
		}
		st := postgres.NewStore(db)
		a.users, a.doctors, a.patients = st.Users, st.Doctors, st.Patients
		a.appointments, a.history, a.audit = st.Appointments, st.History, st.Audit
		a.db = db
	}

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.log.Sync()
}

// resolveJWTSecret fetches the signing key from Secrets Manager when only
// JWT_SECRET_ARN is configured.
func resolveJWTSecret(ctx context.Context, cfg *config.Config) error {
	if cfg.JWT.Secret != "" || cfg.JWT.SecretARN == "" {
		return nil
	}

	client, err := secrets.NewClient(ctx)
	if err != nil {
		return err
	}
	secret, err := secrets.Fetch(ctx, client, cfg.JWT.SecretARN, "jwt_secret")
	if err != nil {
		return fmt.Errorf("resolving jwt secret: %w", err)
	}
	if len(secret) < 32 && cfg.IsProduction() {
		return errors.New("jwt secret from secrets manager must be at least 32 characters in production")
	}
	cfg.JWT.Secret = secret
	return nil
}

func runServer(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, log := a.cfg, a.log

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	// the memory store has no pool to report on
	var pool jobs.PoolStats
	var ready v1.ReadinessCheck
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			return fmt.Errorf("getting underlying sql.DB: %w", err)
		}
		pool = sqlDB
		ready = func(ctx context.Context) error { return database.Ping(ctx, a.db) }
	}

	scheduler, err := jobs.Start(cfg.Jobs, pool, a.metrics, log)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Events, log)
		log.Info("publishing appointment events",
			zap.Strings("brokers", cfg.Events.Brokers),
			zap.String("topic", cfg.Events.Topic),
		)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("closing event publisher", zap.Error(err))
		}
	}()

	jwtManager := auth.NewJWTManager(cfg.JWT)
	auditSvc := service.NewAuditService(a.audit, a.metrics, log)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		auditSvc.Shutdown(drainCtx)
	}()

	authSvc := service.NewAuthService(a.users, jwtManager, auditSvc, a.metrics, cfg.Auth.MFAIssuer, log)
	api := v1.NewHandler(v1.Services{
		Auth:         authSvc,
		Users:        service.NewUserService(a.users, a.doctors, a.patients, auditSvc, a.metrics, log),
		Patients:     service.NewPatientService(a.patients, a.history, a.users, auditSvc, a.metrics, log),
		Appointments: service.NewAppointmentService(a.appointments, a.patients, a.doctors, publisher, auditSvc, a.metrics, log),
		Reports:      service.NewReportService(a.patients),
	}, ready, cfg.Server.MaxReportBytes, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter, credentialLimiter := handler.NewLimiters(cfg.RateLimit)
	go limiter.Janitor(ctx)
	go credentialLimiter.Janitor(ctx)

	router := handler.NewRouter(handler.RouterDeps{
		Config:            cfg,
		API:               api,
		Tokens:            jwtManager,
		Subjects:          authSvc,
		Metrics:           a.metrics,
		Log:               log,
		Limiter:           limiter,
		CredentialLimiter: credentialLimiter,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Database.Driver),
			zap.Bool("strict_admin_check", cfg.Auth.StrictAdminCheck),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func runMigrate(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.db == nil {
		return errors.New("migrate requires STORE_DRIVER=postgres")
	}
	return database.Migrate(a.db, a.log)
}

func runCreateAdmin(ctx context.Context, name, email, password string) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	auditSvc := service.NewAuditService(a.audit, a.metrics, a.log)
	defer auditSvc.Shutdown(context.Background())

	users := service.NewUserService(a.users, a.doctors, a.patients, auditSvc, a.metrics, a.log)
	acct, err := users.CreateUser(ctx, service.Caller{IP: "cli"}, service.CreateUserCommand{
		Role:     string(domain.RoleAdmin),
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}

	a.log.Info("admin account created",
		zap.String("user_id", acct.User.ID.String()),
		zap.String("email", acct.User.Email),
	)
	return nil
}
