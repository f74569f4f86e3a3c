package service

import (
	"errors"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrForbidden          = errors.New("forbidden: insufficient permissions")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPRequired        = errors.New("one-time password required")
	ErrMFAAlreadyEnabled  = errors.New("mfa already enabled: current code required")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

func validationError(fields ...string) error {
	return &ValidationError{Fields: fields}
}

// Caller identifies who is performing an operation, as established by the
// authentication gate.
type Caller struct {
	ID        uuid.UUID
	Role      domain.Role
	IP        string
	RequestID string
}

func (c Caller) Is(id uuid.UUID) bool {
	return c.ID == id
}

type AuditEntry struct {
	Caller       Caller
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	Changes      string
}
