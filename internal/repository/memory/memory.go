// Package memory implements the domain repositories in process memory. It backs
// STORE_DRIVER=memory and the service and handler tests.
package memory

import (
	"sync"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/google/uuid"
)

// state is shared by every repository of a Store so that deletes cascade the
// way the foreign keys do in PostgreSQL.
type state struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*domain.User
	emails       map[string]uuid.UUID
	doctors      map[uuid.UUID]*doctor.Doctor
	patients     map[uuid.UUID]*patient.Patient
	appointments map[uuid.UUID]*appointment.Appointment
	history      []*history.Entry
	audit        []*domain.AuditLog

	patientSeq int64
}

type Store struct {
	Users        *UserRepository
	Doctors      *DoctorRepository
	Patients     *PatientRepository
	Appointments *AppointmentRepository
	History      *HistoryRepository
	Audit        *AuditRepository

	s *state
}

func NewStore() *Store {
	s := &state{
		users:        make(map[uuid.UUID]*domain.User),
		emails:       make(map[string]uuid.UUID),
		doctors:      make(map[uuid.UUID]*doctor.Doctor),
		patients:     make(map[uuid.UUID]*patient.Patient),
		appointments: make(map[uuid.UUID]*appointment.Appointment),
	}
	return &Store{
		Users:        &UserRepository{s: s},
		Doctors:      &DoctorRepository{s: s},
		Patients:     &PatientRepository{s: s},
		Appointments: &AppointmentRepository{s: s},
		History:      &HistoryRepository{s: s},
		Audit:        &AuditRepository{s: s},
		s:            s,
	}
}

// AuditEntries returns a snapshot of the persisted audit log.
func (st *Store) AuditEntries() []domain.AuditLog {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()

	out := make([]domain.AuditLog, len(st.s.audit))
	for i, e := range st.s.audit {
		out[i] = *e
	}
	return out
}

// insertUser must be called with the write lock held.
func (s *state) insertUser(u *domain.User) error {
	if _, taken := s.emails[u.Email]; taken {
		return domain.ErrEmailTaken
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	s.users[u.ID] = &cp
	s.emails[u.Email] = u.ID
	return nil
}

// deleteUser cascades to the role profile, appointments and history.
// Must be called with the write lock held.
func (s *state) deleteUser(id uuid.UUID) bool {
	u, ok := s.users[id]
	if !ok {
		return false
	}
	delete(s.emails, u.Email)
	delete(s.users, id)

	if _, ok := s.doctors[id]; ok {
		delete(s.doctors, id)
		for aid, a := range s.appointments {
			if a.DoctorID == id {
				delete(s.appointments, aid)
			}
		}
	}

	if _, ok := s.patients[id]; ok {
		delete(s.patients, id)
		for aid, a := range s.appointments {
			if a.PatientID == id {
				delete(s.appointments, aid)
			}
		}
		kept := s.history[:0]
		for _, e := range s.history {
			if e.PatientID != id {
				kept = append(kept, e)
			}
		}
		s.history = kept
	}
	return true
}
