package history

import "errors"

var (
	ErrConditionRequired = errors.New("condition is required")
	ErrDiagnosedInFuture = errors.New("diagnosis date cannot be in the future")
)
