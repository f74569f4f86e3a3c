package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/report"
)

// ReportService projects the patient population into FHIR-shaped bundles.
type ReportService struct {
	patients patient.Repository
	now      func() time.Time
}

func NewReportService(patients patient.Repository) *ReportService {
	return &ReportService{
		patients: patients,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReportService) AgeDistribution(ctx context.Context) (*report.Bundle, error) {
	all, err := s.patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading patients: %w", err)
	}
	now := s.now()
	return report.AgeDistribution(all, now).Bundle(now), nil
}

func (s *ReportService) GenderDistribution(ctx context.Context) (*report.Bundle, error) {
	all, err := s.patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading patients: %w", err)
	}
	return report.GenderDistribution(all).Bundle(s.now()), nil
}
