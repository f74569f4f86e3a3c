package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/google/uuid"
)

type AppointmentRepository struct {
	s *state
}

func (r *AppointmentRepository) Create(_ context.Context, a *appointment.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Version == 0 {
		a.Version = 1
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	cp := *a
	r.s.appointments[a.ID] = &cp
	return nil
}

func (r *AppointmentRepository) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AppointmentRepository) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*appointment.Appointment
	for _, a := range r.s.appointments {
		if a.PatientID == patientID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortBySlot(out)
	return out, nil
}

func (r *AppointmentRepository) ListByDoctor(_ context.Context, doctorID uuid.UUID, statuses ...appointment.Status) ([]*appointment.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*appointment.Appointment
	for _, a := range r.s.appointments {
		if a.DoctorID != doctorID || !statusIn(a.Status, statuses) {
			continue
		}
		cp := *a
		if p, ok := r.s.loadPatient(a.PatientID); ok {
			cp.Patient = *p
		}
		out = append(out, &cp)
	}
	sortBySlot(out)
	return out, nil
}

func (r *AppointmentRepository) UpdateStatus(_ context.Context, a *appointment.Appointment, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.appointments[a.ID]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	if cur.Version != expectedVersion {
		return appointment.ErrConcurrentUpdate
	}

	cur.Status = a.Status
	cur.DoctorName = a.DoctorName
	cur.StatusChangedAt = a.StatusChangedAt
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()

	a.Version = cur.Version
	return nil
}

func statusIn(s appointment.Status, set []appointment.Status) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func sortBySlot(as []*appointment.Appointment) {
	sort.Slice(as, func(i, j int) bool {
		if as[i].Date != as[j].Date {
			return as[i].Date < as[j].Date
		}
		if as[i].Time != as[j].Time {
			return as[i].Time < as[j].Time
		}
		return as[i].CreatedAt.Before(as[j].CreatedAt)
	})
}
