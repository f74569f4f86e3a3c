package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LoginCommand struct {
	Role     string
	Email    string
	Password string
	OTP      string
}

type AuthService struct {
	users     domain.UserRepository
	jwt       *auth.JWTManager
	audit     *AuditService
	metrics   *metrics.Collector
	mfaIssuer string
	log       *zap.Logger
}

func NewAuthService(
	users domain.UserRepository,
	jwt *auth.JWTManager,
	audit *AuditService,
	m *metrics.Collector,
	mfaIssuer string,
	log *zap.Logger,
) *AuthService {
	return &AuthService{users: users, jwt: jwt, audit: audit, metrics: m, mfaIssuer: mfaIssuer, log: log}
}

// Login looks the account up within the requested role and only then compares
// the password. Every failure is reported as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, cmd LoginCommand, ip string) (*domain.Token, *domain.User, error) {
	if cmd.Role == "" {
		return nil, nil, validationError("role is required")
	}
	role, ok := domain.ParseRole(cmd.Role)
	if !ok {
		return nil, nil, validationError("role must be one of admin, doctor, patient")
	}

	email := domain.NormalizeEmail(cmd.Email)
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil, nil, s.failLogin(role, "unknown_account", email, ip)
	case err != nil:
		return nil, nil, fmt.Errorf("looking up account: %w", err)
	case user.Role != role:
		return nil, nil, s.failLogin(role, "unknown_account", email, ip)
	}

	if !auth.CheckPassword(user.PasswordHash, cmd.Password) {
		return nil, nil, s.failLogin(role, "bad_password", email, ip)
	}

	if user.MFAEnabled {
		if cmd.OTP == "" {
			s.metrics.LoginAttempts.WithLabelValues(string(role), "otp_required").Inc()
			return nil, nil, ErrOTPRequired
		}
		if !auth.ValidateTOTP(cmd.OTP, user.MFASecret) {
			return nil, nil, s.failLogin(role, "bad_otp", email, ip)
		}
	}

	token, err := s.jwt.Issue(&domain.Claims{UserID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, nil, fmt.Errorf("issuing token: %w", err)
	}

	if err := s.users.RecordLogin(ctx, user.ID); err != nil {
		s.log.Warn("failed to record login time", zap.Error(err))
	}

	s.metrics.LoginAttempts.WithLabelValues(string(role), "success").Inc()
	s.audit.LogAsync(AuditEntry{
		Caller:       Caller{ID: user.ID, Role: user.Role, IP: ip},
		Action:       domain.ActionLogin,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
	})
	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("ip", ip),
	)

	return token, user, nil
}

func (s *AuthService) failLogin(role domain.Role, reason, email, ip string) error {
	s.metrics.LoginAttempts.WithLabelValues(string(role), "failure").Inc()
	s.log.Warn("failed login attempt",
		zap.String("role", string(role)),
		zap.String("reason", reason),
		zap.String("email", email),
		zap.String("ip", ip),
	)
	return ErrInvalidCredentials
}

// SubjectExists reports whether the account behind a credential still exists
// with the given role.
func (s *AuthService) SubjectExists(ctx context.Context, id uuid.UUID, role domain.Role) (bool, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == role, nil
}

// EnrollMFA stores a fresh TOTP secret as pending. The active secret, if any,
// keeps guarding login until VerifyMFA succeeds with a code from the new one.
// Rotating an enabled factor requires a valid code for the current secret.
func (s *AuthService) EnrollMFA(ctx context.Context, caller Caller, currentCode string) (*auth.TOTPKey, error) {
	u, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	if u.MFAEnabled {
		if currentCode == "" {
			return nil, ErrMFAAlreadyEnabled
		}
		if !auth.ValidateTOTP(currentCode, u.MFASecret) {
			s.log.Warn("mfa rotation rejected",
				zap.String("user_id", u.ID.String()),
				zap.String("ip", caller.IP),
			)
			return nil, ErrInvalidCredentials
		}
	}

	key, err := auth.GenerateTOTP(s.mfaIssuer, u.Email)
	if err != nil {
		return nil, err
	}

	u.MFAPendingSecret = key.Secret
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("storing mfa secret: %w", err)
	}
	return key, nil
}

func (s *AuthService) VerifyMFA(ctx context.Context, caller Caller, code string) error {
	u, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return err
	}
	if u.MFAPendingSecret == "" {
		return validationError("mfa enrollment has not been started")
	}
	if !auth.ValidateTOTP(code, u.MFAPendingSecret) {
		return ErrInvalidCredentials
	}

	u.MFASecret = u.MFAPendingSecret
	u.MFAPendingSecret = ""
	u.MFAEnabled = true
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("enabling mfa: %w", err)
	}

	s.audit.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       domain.ActionUpdate,
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		Changes:      `{"mfaEnabled":true}`,
	})
	return nil
}
