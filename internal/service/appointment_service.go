package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/events"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppointmentService struct {
	repo        appointment.Repository
	patientRepo patient.Repository
	doctorRepo  doctor.Repository
	publisher   events.Publisher
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
	now         func() time.Time
}

func NewAppointmentService(
	repo appointment.Repository,
	patientRepo patient.Repository,
	doctorRepo doctor.Repository,
	publisher events.Publisher,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:        repo,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		publisher:   publisher,
		auditSvc:    auditSvc,
		metrics:     m,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Book creates a scheduled appointment for the calling patient. Slots are not
// checked for overlap.
func (s *AppointmentService) Book(ctx context.Context, caller Caller, cmd appointment.BookAppointmentCommand) (*appointment.Appointment, error) {
	if caller.Role != domain.RolePatient {
		return nil, ErrForbidden
	}
	cmd.PatientID = caller.ID
	cmd.Date = strings.TrimSpace(cmd.Date)
	cmd.Time = strings.TrimSpace(cmd.Time)

	if errs := cmd.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	if _, err := s.patientRepo.GetByID(ctx, cmd.PatientID); err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if _, err := s.doctorRepo.GetByID(ctx, cmd.DoctorID); err != nil {
		return nil, err
	}

	a := &appointment.Appointment{
		ID:        uuid.New(),
		PatientID: cmd.PatientID,
		DoctorID:  cmd.DoctorID,
		Date:      cmd.Date,
		Time:      cmd.Time,
		Reason:    strings.TrimSpace(cmd.Reason),
		Status:    appointment.StatusScheduled,
		Version:   1,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.recorded(ctx, caller, a, events.AppointmentBooked, domain.ActionCreate)
	return a, nil
}

func (s *AppointmentService) ListMine(ctx context.Context, caller Caller) ([]*appointment.Appointment, error) {
	if caller.Role != domain.RolePatient {
		return nil, ErrForbidden
	}
	return s.repo.ListByPatient(ctx, caller.ID)
}

// ListPending returns the calling doctor's appointments awaiting a decision.
func (s *AppointmentService) ListPending(ctx context.Context, caller Caller) ([]*appointment.Appointment, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	return s.repo.ListByDoctor(ctx, caller.ID, appointment.StatusScheduled)
}

// ListForDoctor is the doctor's own appointment list. Without a status it
// holds the approved appointments; "all" lifts the filter.
func (s *AppointmentService) ListForDoctor(ctx context.Context, caller Caller, status string) ([]*appointment.Appointment, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}

	switch strings.ToLower(strings.TrimSpace(status)) {
	case "":
		return s.repo.ListByDoctor(ctx, caller.ID, appointment.StatusApproved)
	case "all":
		return s.repo.ListByDoctor(ctx, caller.ID)
	}

	st, ok := appointment.ParseStatus(status)
	if !ok {
		return nil, validationError("status is not a valid appointment status")
	}
	return s.repo.ListByDoctor(ctx, caller.ID, st)
}

// Approve is idempotent: approving an approved appointment returns it as is.
func (s *AppointmentService) Approve(ctx context.Context, caller Caller, id uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.loadForDoctor(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	d, err := s.doctorRepo.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("loading approving doctor: %w", err)
	}

	version := a.Version
	changed, err := a.Approve(d.Name(), s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return a, nil
	}

	if err := s.repo.UpdateStatus(ctx, a, version); err != nil {
		return nil, err
	}

	s.recorded(ctx, caller, a, events.AppointmentApproved, domain.ActionUpdate)
	return a, nil
}

// Reject leaves every other appointment, and the doctor's approved list,
// untouched.
func (s *AppointmentService) Reject(ctx context.Context, caller Caller, id uuid.UUID) (*appointment.Appointment, error) {
	return s.transitionForDoctor(ctx, caller, id, (*appointment.Appointment).Reject, events.AppointmentRejected)
}

func (s *AppointmentService) Complete(ctx context.Context, caller Caller, id uuid.UUID) (*appointment.Appointment, error) {
	return s.transitionForDoctor(ctx, caller, id, (*appointment.Appointment).Complete, events.AppointmentCompleted)
}

// Cancel lets a patient withdraw one of their own appointments.
func (s *AppointmentService) Cancel(ctx context.Context, caller Caller, id uuid.UUID) (*appointment.Appointment, error) {
	if caller.Role != domain.RolePatient {
		return nil, ErrForbidden
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Is(a.PatientID) {
		return nil, ErrForbidden
	}

	version := a.Version
	if err := a.Cancel(s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, a, version); err != nil {
		return nil, err
	}

	s.recorded(ctx, caller, a, events.AppointmentCancelled, domain.ActionUpdate)
	return a, nil
}

func (s *AppointmentService) transitionForDoctor(
	ctx context.Context,
	caller Caller,
	id uuid.UUID,
	apply func(*appointment.Appointment, time.Time) error,
	evt events.Type,
) (*appointment.Appointment, error) {
	a, err := s.loadForDoctor(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	version := a.Version
	if err := apply(a, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, a, version); err != nil {
		return nil, err
	}

	s.recorded(ctx, caller, a, evt, domain.ActionUpdate)
	return a, nil
}

// loadForDoctor fetches the appointment and checks that it was booked with
// the calling doctor.
func (s *AppointmentService) loadForDoctor(ctx context.Context, caller Caller, id uuid.UUID) (*appointment.Appointment, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != caller.ID {
		return nil, ErrForbidden
	}
	return a, nil
}

// recorded counts, audits and publishes a completed lifecycle step.
func (s *AppointmentService) recorded(ctx context.Context, caller Caller, a *appointment.Appointment, evt events.Type, action domain.AuditAction) {
	s.metrics.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()

	s.auditSvc.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       action,
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		Changes:      fmt.Sprintf(`{"status":%q}`, a.Status),
	})

	err := s.publisher.Publish(ctx, events.Event{
		ID:            uuid.New(),
		Type:          evt,
		OccurredAt:    s.now(),
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Status:        string(a.Status),
		Date:          a.Date,
		Time:          a.Time,
	})
	if err != nil {
		// the state change is already committed; consumers reconcile from the store
		s.metrics.EventsPublished.WithLabelValues(string(evt), "error").Inc()
		level := zap.ErrorLevel
		if errors.Is(err, events.ErrUnavailable) {
			level = zap.WarnLevel
		}
		s.log.Log(level, "failed to publish appointment event",
			zap.String("event", string(evt)),
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
		return
	}
	s.metrics.EventsPublished.WithLabelValues(string(evt), "ok").Inc()
}
