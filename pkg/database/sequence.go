package database

import (
	"fmt"

	"gorm.io/gorm"
)

const PatientCodeSequence = "patient_code"

// Sequence is a named monotonically increasing counter.
type Sequence struct {
	Name  string `gorm:"column:name;type:varchar(50);primaryKey"`
	Value int64  `gorm:"column:value;not null;default:0"`
}

func (Sequence) TableName() string {
	return "clinical.sequences"
}

// NextValue increments the named counter and returns the new value in a single
// statement, so concurrent callers never observe the same number.
func NextValue(tx *gorm.DB, name string) (int64, error) {
	var next int64
	err := tx.Raw(`INSERT INTO clinical.sequences (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = clinical.sequences.value + 1
		RETURNING value`, name).Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("advancing sequence %s: %w", name, err)
	}
	return next, nil
}
