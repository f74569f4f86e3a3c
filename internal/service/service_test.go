package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/events"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store        *memory.Store
	metrics      *metrics.Collector
	publisher    *recordingPublisher
	jwt          *auth.JWTManager
	audit        *AuditService
	auth         *AuthService
	users        *UserService
	patients     *PatientService
	appointments *AppointmentService
	reports      *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := zap.NewNop()
	st := memory.NewStore()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	pub := &recordingPublisher{}
	jwt := auth.NewJWTManager(config.JWTConfig{
		Secret: "service-test-secret-service-test-secret",
		TTL:    24 * time.Hour,
		Issuer: "clinicflow",
	})
	audit := NewAuditService(st.Audit, m, log)
	t.Cleanup(func() { audit.Shutdown(context.Background()) })

	return &fixture{
		store:        st,
		metrics:      m,
		publisher:    pub,
		jwt:          jwt,
		audit:        audit,
		auth:         NewAuthService(st.Users, jwt, audit, m, "clinicflow", log),
		users:        NewUserService(st.Users, st.Doctors, st.Patients, audit, m, log),
		patients:     NewPatientService(st.Patients, st.History, st.Users, audit, m, log),
		appointments: NewAppointmentService(st.Appointments, st.Patients, st.Doctors, pub, audit, m, log),
		reports:      NewReportService(st.Patients),
	}
}

func (f *fixture) admin(t *testing.T, email string) Caller {
	t.Helper()
	acct, err := f.users.CreateUser(context.Background(), Caller{}, CreateUserCommand{
		Role: "admin", Name: "Admin " + email, Email: email, Password: "password123",
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return Caller{ID: acct.User.ID, Role: domain.RoleAdmin}
}

func (f *fixture) doctor(t *testing.T, name, email string) Caller {
	t.Helper()
	acct, err := f.users.Register(context.Background(), CreateUserCommand{
		Role: "doctor", Name: name, Email: email, Password: "password123",
		Doctor: doctor.CreateDoctorCommand{Specialization: "cardiology"},
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("register doctor: %v", err)
	}
	return Caller{ID: acct.User.ID, Role: domain.RoleDoctor}
}

func (f *fixture) patient(t *testing.T, name, email string) Caller {
	t.Helper()
	acct, err := f.users.Register(context.Background(), CreateUserCommand{
		Role: "patient", Name: name, Email: email, Password: "password123",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("register patient: %v", err)
	}
	return Caller{ID: acct.User.ID, Role: domain.RolePatient}
}
