// Package postgres implements the domain repositories on gorm and PostgreSQL.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// Store groups every repository over one connection pool.
type Store struct {
	Users        *UserRepository
	Doctors      *DoctorRepository
	Patients     *PatientRepository
	Appointments *AppointmentRepository
	History      *HistoryRepository
	Audit        *AuditRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		Users:        &UserRepository{db: db},
		Doctors:      &DoctorRepository{db: db},
		Patients:     &PatientRepository{db: db},
		Appointments: &AppointmentRepository{db: db},
		History:      &HistoryRepository{db: db},
		Audit:        &AuditRepository{db: db},
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
