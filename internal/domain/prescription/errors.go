package prescription

import "errors"

var (
	ErrMedicineRequired = errors.New("medicine is required")
	ErrTooManyEntries   = errors.New("too many prescription entries")
)
