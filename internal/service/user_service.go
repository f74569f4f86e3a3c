package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Account is a user together with its role profile. At most one of Doctor and
// Patient is set.
type Account struct {
	User    *domain.User
	Doctor  *doctor.Doctor
	Patient *patient.Patient
}

type CreateUserCommand struct {
	Role     string
	Name     string
	Email    string
	Password string
	Doctor   doctor.CreateDoctorCommand
	Patient  patient.CreatePatientCommand
}

// UpdateUserCommand changes only the fields that are set. The role profile
// part matching the account's role is applied, the other is ignored.
type UpdateUserCommand struct {
	Name     *string
	Email    *string
	Password *string
	Doctor   *doctor.UpdateDoctorCommand
	Patient  *patient.UpdatePatientCommand
}

type Stats struct {
	TotalUsers int64 `json:"totalUsers"`
	Admins     int64 `json:"admins"`
	Doctors    int64 `json:"doctors"`
	Patients   int64 `json:"patients"`
}

type UserService struct {
	users    domain.UserRepository
	doctors  doctor.Repository
	patients patient.Repository
	audit    *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewUserService(
	users domain.UserRepository,
	doctors doctor.Repository,
	patients patient.Repository,
	audit *AuditService,
	m *metrics.Collector,
	log *zap.Logger,
) *UserService {
	return &UserService{users: users, doctors: doctors, patients: patients, audit: audit, metrics: m, log: log}
}

// Register is the public sign-up. Only doctors and patients may register
// themselves; admin accounts are created by another admin.
func (s *UserService) Register(ctx context.Context, cmd CreateUserCommand, ip string) (*Account, error) {
	role, ok := domain.ParseRole(cmd.Role)
	if !ok || role == domain.RoleAdmin {
		return nil, validationError("role must be doctor or patient")
	}
	return s.create(ctx, role, cmd, Caller{IP: ip})
}

// CreateUser is the admin path and accepts every role.
func (s *UserService) CreateUser(ctx context.Context, caller Caller, cmd CreateUserCommand) (*Account, error) {
	role, ok := domain.ParseRole(cmd.Role)
	if !ok {
		return nil, validationError("role must be one of admin, doctor, patient")
	}
	return s.create(ctx, role, cmd, caller)
}

func (s *UserService) create(ctx context.Context, role domain.Role, cmd CreateUserCommand, caller Caller) (*Account, error) {
	if errs := validateIdentity(cmd.Name, cmd.Email); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, validationError(err.Error())
		}
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &domain.User{
		ID:           uuid.New(),
		Email:        domain.NormalizeEmail(cmd.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(cmd.Name),
		Role:         role,
	}
	acct := &Account{User: u}

	switch role {
	case domain.RoleAdmin:
		err = s.users.Create(ctx, u)

	case domain.RoleDoctor:
		spec := strings.TrimSpace(cmd.Doctor.Specialization)
		if spec == "" {
			return nil, validationError(doctor.ErrSpecializationRequired.Error())
		}
		d := &doctor.Doctor{
			Specialization:  spec,
			Phone:           strings.TrimSpace(cmd.Doctor.Phone),
			ExperienceYears: cmd.Doctor.ExperienceYears,
		}
		err = s.doctors.Create(ctx, u, d)
		acct.Doctor = d

	case domain.RolePatient:
		pc := cmd.Patient
		if verr := patient.ValidateDemographics(pc.Age, pc.DateOfBirth, time.Now()); verr != nil {
			return nil, verr
		}
		p := &patient.Patient{
			Age:         pc.Age,
			DateOfBirth: pc.DateOfBirth,
			Gender:      strings.TrimSpace(pc.Gender),
			Phone:       strings.TrimSpace(pc.Phone),
			Address:     pc.Address,
			BloodGroup:  strings.TrimSpace(pc.BloodGroup),
		}
		err = s.patients.Create(ctx, u, p)
		acct.Patient = p
	}
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		s.log.Error("failed to create account", zap.String("role", string(role)), zap.Error(err))
		return nil, fmt.Errorf("creating %s: %w", role, err)
	}

	s.metrics.UsersRegistered.WithLabelValues(string(role)).Inc()
	if role == domain.RolePatient {
		s.metrics.PatientsCreatedTotal.Inc()
	}

	actor := caller
	if actor.ID == uuid.Nil {
		// self-registration
		actor.ID, actor.Role = u.ID, u.Role
	}
	s.audit.LogAsync(AuditEntry{
		Caller:       actor,
		Action:       domain.ActionCreate,
		ResourceType: string(role),
		ResourceID:   u.ID.String(),
	})
	s.log.Info("account created",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(role)),
		zap.String("created_by", actor.ID.String()),
	)

	return acct, nil
}

// GetAccount loads a user and its role profile.
func (s *UserService) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	acct := &Account{User: u}

	switch u.Role {
	case domain.RoleDoctor:
		acct.Doctor, err = s.doctors.GetByID(ctx, id)
	case domain.RolePatient:
		acct.Patient, err = s.patients.GetByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s profile: %w", u.Role, err)
	}
	return acct, nil
}

func (s *UserService) ListUsers(ctx context.Context, role string) ([]*domain.User, error) {
	var r domain.Role
	if role != "" {
		var ok bool
		if r, ok = domain.ParseRole(role); !ok {
			return nil, validationError("role must be one of admin, doctor, patient")
		}
	}
	return s.users.List(ctx, r)
}

func (s *UserService) ListDoctors(ctx context.Context, specialization string) ([]*doctor.Doctor, error) {
	return s.doctors.List(ctx, strings.TrimSpace(specialization))
}

// UpdateUser applies cmd to the account. Callers other than admins may only
// update themselves.
func (s *UserService) UpdateUser(ctx context.Context, caller Caller, id uuid.UUID, cmd UpdateUserCommand) (*Account, error) {
	if caller.Role != domain.RoleAdmin && !caller.Is(id) {
		return nil, ErrForbidden
	}

	acct, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	u := acct.User
	var changed []string

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return nil, validationError("name cannot be empty")
		}
		u.Name = name
		changed = append(changed, "name")
	}
	if cmd.Email != nil {
		if errs := validateIdentity(u.Name, *cmd.Email); len(errs) > 0 {
			return nil, &ValidationError{Fields: errs}
		}
		u.Email = domain.NormalizeEmail(*cmd.Email)
		changed = append(changed, "email")
	}
	if cmd.Password != nil && *cmd.Password != "" {
		hash, err := auth.HashPassword(*cmd.Password)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooShort) {
				return nil, validationError(err.Error())
			}
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		u.PasswordHash = hash
		changed = append(changed, "password")
	}

	// every check runs before anything is written
	switch {
	case acct.Doctor != nil && cmd.Doctor != nil:
		if err := cmd.Doctor.Apply(acct.Doctor); err != nil {
			return nil, validationError(err.Error())
		}
		changed = append(changed, "doctor")

	case acct.Patient != nil && cmd.Patient != nil:
		if err := patient.ValidateDemographics(cmd.Patient.Age, cmd.Patient.DateOfBirth, time.Now()); err != nil {
			return nil, err
		}
		cmd.Patient.Apply(acct.Patient)
		changed = append(changed, "patient")
	}

	if len(changed) > 0 {
		// profile updates carry the identity fields in the same transaction
		switch {
		case acct.Doctor != nil:
			acct.Doctor.User = *u
			err = s.doctors.Update(ctx, acct.Doctor)
		case acct.Patient != nil:
			acct.Patient.User = *u
			err = s.patients.Update(ctx, acct.Patient)
		default:
			err = s.users.Update(ctx, u)
		}
		if err != nil {
			return nil, err
		}
	}

	acct.User = u
	if acct.Doctor != nil {
		acct.Doctor.User = *u
	}
	if acct.Patient != nil {
		acct.Patient.User = *u
	}

	s.audit.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       domain.ActionUpdate,
		ResourceType: string(u.Role),
		ResourceID:   u.ID.String(),
		Changes:      changedFields(changed),
	})

	return acct, nil
}

// DeleteUser hard-deletes an account and everything its profile owns.
func (s *UserService) DeleteUser(ctx context.Context, caller Caller, id uuid.UUID) error {
	if caller.Is(id) {
		return validationError("admins cannot delete their own account")
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       domain.ActionDelete,
		ResourceType: string(u.Role),
		ResourceID:   id.String(),
	})
	s.log.Info("account deleted",
		zap.String("user_id", id.String()),
		zap.String("role", string(u.Role)),
		zap.String("deleted_by", caller.ID.String()),
	)
	return nil
}

func (s *UserService) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{
		Admins:   counts[domain.RoleAdmin],
		Doctors:  counts[domain.RoleDoctor],
		Patients: counts[domain.RolePatient],
	}
	st.TotalUsers = st.Admins + st.Doctors + st.Patients
	return st, nil
}

func validateIdentity(name, email string) []string {
	var errs []string
	if strings.TrimSpace(name) == "" {
		errs = append(errs, "name is required")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		errs = append(errs, "email is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs = append(errs, "email is invalid")
	}
	return errs
}

func changedFields(fields []string) string {
	if len(fields) == 0 {
		return "{}"
	}
	return `{"fields":["` + strings.Join(fields, `","`) + `"]}`
}

// UpdatePatient is UpdateUser restricted to patient accounts.
func (s *UserService) UpdatePatient(ctx context.Context, caller Caller, id uuid.UUID, cmd UpdateUserCommand) (*Account, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) || (err == nil && u.Role != domain.RolePatient) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.UpdateUser(ctx, caller, id, cmd)
}
