package doctor

import "errors"

var (
	ErrDoctorNotFound         = errors.New("doctor not found")
	ErrSpecializationRequired = errors.New("specialization is required")
)
