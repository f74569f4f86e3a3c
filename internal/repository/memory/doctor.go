package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/google/uuid"
)

type DoctorRepository struct {
	s *state
}

func (r *DoctorRepository) Create(_ context.Context, u *domain.User, d *doctor.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if err := r.s.insertUser(u); err != nil {
		return err
	}

	d.UserID = u.ID
	d.CreatedAt, d.UpdatedAt = now, now
	d.User = *u
	cp := *d
	r.s.doctors[u.ID] = &cp
	return nil
}

// load must be called with the lock held.
func (r *DoctorRepository) load(id uuid.UUID) (*doctor.Doctor, bool) {
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, false
	}
	cp := *d
	cp.User = *r.s.users[id]
	return &cp, true
}

func (r *DoctorRepository) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.load(id)
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

func (r *DoctorRepository) List(_ context.Context, specialization string) ([]*doctor.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*doctor.Doctor, 0, len(r.s.doctors))
	for id, d := range r.s.doctors {
		if specialization != "" && !strings.EqualFold(d.Specialization, specialization) {
			continue
		}
		cp, _ := r.load(id)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (r *DoctorRepository) Update(_ context.Context, d *doctor.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.doctors[d.UserID]
	if !ok {
		return doctor.ErrDoctorNotFound
	}
	u := d.User
	u.ID = d.UserID
	if err := r.s.updateUser(&u); err != nil {
		return err
	}
	cur.Specialization = d.Specialization
	cur.Phone = d.Phone
	cur.ExperienceYears = d.ExperienceYears
	cur.UpdatedAt = time.Now().UTC()
	return nil
}
