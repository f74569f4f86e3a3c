package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PatientService struct {
	repo     patient.Repository
	history  history.Repository
	users    domain.UserRepository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewPatientService(
	repo patient.Repository,
	historyRepo history.Repository,
	users domain.UserRepository,
	auditSvc *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *PatientService {
	return &PatientService{
		repo:     repo,
		history:  historyRepo,
		users:    users,
		auditSvc: auditSvc,
		metrics:  m,
		log:      log,
	}
}

// canRead lets staff read any patient and a patient only itself.
func canRead(caller Caller, patientID uuid.UUID) bool {
	switch caller.Role {
	case domain.RoleAdmin, domain.RoleDoctor:
		return true
	case domain.RolePatient:
		return caller.Is(patientID)
	}
	return false
}

func (s *PatientService) ListPatients(ctx context.Context, caller Caller) ([]*patient.Patient, error) {
	if caller.Role == domain.RolePatient {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

func (s *PatientService) GetPatient(ctx context.Context, caller Caller, id uuid.UUID) (*patient.Patient, error) {
	// RBAC: patients can only read their own record
	if !canRead(caller, id) {
		return nil, ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       domain.ActionRead,
		ResourceType: "patient",
		ResourceID:   id.String(),
	})

	return p, nil
}

// DeletePatient removes the patient account together with its appointments,
// history and prescriptions.
func (s *PatientService) DeletePatient(ctx context.Context, caller Caller, id uuid.UUID) error {
	if caller.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting patient %s: %w", id, err)
	}

	s.auditSvc.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       domain.ActionDelete,
		ResourceType: "patient",
		ResourceID:   id.String(),
	})
	return nil
}

func (s *PatientService) GetPrescriptions(ctx context.Context, caller Caller, id uuid.UUID) ([]prescription.Entry, error) {
	p, err := s.GetPatient(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if p.Prescriptions == nil {
		return []prescription.Entry{}, nil
	}
	return p.Prescriptions, nil
}

// ReplacePrescriptions overwrites the patient's whole prescription list.
func (s *PatientService) ReplacePrescriptions(ctx context.Context, caller Caller, id uuid.UUID, entries []prescription.Entry) ([]prescription.Entry, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}

	normalized, err := prescription.Normalize(entries)
	if err != nil {
		return nil, validationError(err.Error())
	}

	if err := s.repo.ReplacePrescriptions(ctx, id, normalized); err != nil {
		return nil, err
	}

	s.metrics.PrescriptionsUpdated.Inc()
	s.auditSvc.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       domain.ActionUpdate,
		ResourceType: "prescription",
		ResourceID:   id.String(),
		Changes:      fmt.Sprintf(`{"entries":%d}`, len(normalized)),
	})

	return normalized, nil
}

func (s *PatientService) ListHistory(ctx context.Context, caller Caller, id uuid.UUID) ([]*history.Entry, error) {
	if !canRead(caller, id) {
		return nil, ErrForbidden
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*history.Entry{}
	}
	return entries, nil
}

func (s *PatientService) AddHistory(ctx context.Context, caller Caller, cmd history.AddEntryCommand) (*history.Entry, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	if err := cmd.Validate(time.Now()); err != nil {
		return nil, validationError(err.Error())
	}
	if _, err := s.repo.GetByID(ctx, cmd.PatientID); err != nil {
		return nil, err
	}

	e := &history.Entry{
		PatientID:   cmd.PatientID,
		Condition:   strings.TrimSpace(cmd.Condition),
		DiagnosedOn: cmd.DiagnosedOn,
		Notes:       cmd.Notes,
		RecordedBy:  caller.ID,
	}
	if err := s.history.Append(ctx, e); err != nil {
		return nil, err
	}

	s.metrics.HistoryEntriesTotal.Inc()
	s.auditSvc.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       domain.ActionCreate,
		ResourceType: "medical_history",
		ResourceID:   e.ID.String(),
	})
	return e, nil
}

// SetReport stores an already rendered document for the patient.
func (s *PatientService) SetReport(ctx context.Context, caller Caller, id uuid.UUID, data []byte, contentType string) error {
	if caller.Role == domain.RolePatient {
		return ErrForbidden
	}
	if len(data) == 0 {
		return validationError("report body is empty")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.repo.SetReport(ctx, id, data, contentType); err != nil {
		return err
	}

	s.auditSvc.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       domain.ActionUpdate,
		ResourceType: "patient_report",
		ResourceID:   id.String(),
		Changes:      fmt.Sprintf(`{"bytes":%d}`, len(data)),
	})
	return nil
}

func (s *PatientService) GetReport(ctx context.Context, caller Caller, id uuid.UUID) ([]byte, string, error) {
	if !canRead(caller, id) {
		return nil, "", ErrForbidden
	}
	data, contentType, err := s.repo.GetReport(ctx, id)
	if err != nil {
		return nil, "", err
	}

	s.auditSvc.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       domain.ActionRead,
		ResourceType: "patient_report",
		ResourceID:   id.String(),
	})
	return data, contentType, nil
}
