package patient

import "errors"

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrReportNotFound     = errors.New("patient report not found")
	ErrInvalidDateOfBirth = errors.New("date of birth cannot be in the future")
	ErrInvalidAge         = errors.New("age must be between 0 and 150")
)
