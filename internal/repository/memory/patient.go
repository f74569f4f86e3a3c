package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/prescription"
	"github.com/google/uuid"
)

type PatientRepository struct {
	s *state
}

func (r *PatientRepository) Create(_ context.Context, u *domain.User, p *patient.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if err := r.s.insertUser(u); err != nil {
		return err
	}

	r.s.patientSeq++
	p.UserID = u.ID
	p.Code = patient.FormatCode(r.s.patientSeq)
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Prescriptions == nil {
		p.Prescriptions = []prescription.Entry{}
	}
	p.User = *u

	cp := *p
	cp.Prescriptions = append([]prescription.Entry{}, p.Prescriptions...)
	r.s.patients[u.ID] = &cp
	return nil
}

// load copies a patient without its report. Must be called with the lock held.
func (s *state) loadPatient(id uuid.UUID) (*patient.Patient, bool) {
	p, ok := s.patients[id]
	if !ok {
		return nil, false
	}
	cp := *p
	cp.User = *s.users[id]
	cp.Prescriptions = append([]prescription.Entry{}, p.Prescriptions...)
	cp.Report = nil
	return &cp, true
}

func (r *PatientRepository) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.loadPatient(id)
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (r *PatientRepository) List(_ context.Context) ([]*patient.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*patient.Patient, 0, len(r.s.patients))
	for id := range r.s.patients {
		p, _ := r.s.loadPatient(id)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Code) != len(out[j].Code) {
			return len(out[i].Code) < len(out[j].Code)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (r *PatientRepository) Update(_ context.Context, p *patient.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.patients[p.UserID]
	if !ok {
		return patient.ErrPatientNotFound
	}
	u := p.User
	u.ID = p.UserID
	if err := r.s.updateUser(&u); err != nil {
		return err
	}
	cur.Age = p.Age
	cur.DateOfBirth = p.DateOfBirth
	cur.Gender = p.Gender
	cur.Phone = p.Phone
	cur.Address = p.Address
	cur.BloodGroup = p.BloodGroup
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *PatientRepository) ReplacePrescriptions(_ context.Context, id uuid.UUID, entries []prescription.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	cur.Prescriptions = append([]prescription.Entry{}, entries...)
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *PatientRepository) SetReport(_ context.Context, id uuid.UUID, data []byte, contentType string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	cur.Report = append([]byte(nil), data...)
	cur.ReportContentType = contentType
	return nil
}

func (r *PatientRepository) GetReport(_ context.Context, id uuid.UUID) ([]byte, string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cur, ok := r.s.patients[id]
	if !ok {
		return nil, "", patient.ErrPatientNotFound
	}
	if len(cur.Report) == 0 {
		return nil, "", patient.ErrReportNotFound
	}
	return append([]byte(nil), cur.Report...), cur.ReportContentType, nil
}
