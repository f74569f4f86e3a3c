package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/google/uuid"
)

type UserRepository struct {
	s *state
}

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return r.s.insertUser(u)
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *r.s.users[id]
	return &cp, nil
}

func (r *UserRepository) List(_ context.Context, role domain.Role) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if role != "" && u.Role != role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.updateUser(u)
}

// updateUser expects s.mu to be held for writing.
func (s *state) updateUser(u *domain.User) error {
	cur, ok := s.users[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.Email != cur.Email {
		if _, taken := s.emails[u.Email]; taken {
			return domain.ErrEmailTaken
		}
		delete(s.emails, cur.Email)
		s.emails[u.Email] = u.ID
	}

	cur.Name = u.Name
	cur.Email = u.Email
	cur.PasswordHash = u.PasswordHash
	cur.MFAEnabled = u.MFAEnabled
	cur.MFASecret = u.MFASecret
	cur.MFAPendingSecret = u.MFAPendingSecret
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.s.deleteUser(id) {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) CountByRole(_ context.Context) (map[domain.Role]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[domain.Role]int64, 3)
	for _, u := range r.s.users {
		counts[u.Role]++
	}
	return counts, nil
}

func (r *UserRepository) RecordLogin(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[id]; ok {
		now := time.Now().UTC()
		u.LastLoginAt = &now
	}
	return nil
}
