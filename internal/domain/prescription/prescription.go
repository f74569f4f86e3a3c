package prescription

import (
	"fmt"
	"strings"
)

// Entry is one line of a patient's prescription list. Entries have no identity
// of their own; the list is always replaced as a whole.
type Entry struct {
	Medicine     string `json:"medicine"`
	Dosage       string `json:"dosage"`    // e.g. "500mg"
	Frequency    string `json:"frequency"` // e.g. "twice daily"
	Duration     string `json:"duration"`  // e.g. "7 days"
	Instructions string `json:"instructions"`
}

// Normalize trims every field and validates the list. The returned slice is
// never nil so an empty list is stored as [].
func Normalize(entries []Entry) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		e.Medicine = strings.TrimSpace(e.Medicine)
		e.Dosage = strings.TrimSpace(e.Dosage)
		e.Frequency = strings.TrimSpace(e.Frequency)
		e.Duration = strings.TrimSpace(e.Duration)
		e.Instructions = strings.TrimSpace(e.Instructions)

		if e.Medicine == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrMedicineRequired)
		}
		out = append(out, e)
	}
	if len(out) > MaxEntries {
		return nil, ErrTooManyEntries
	}
	return out, nil
}

const MaxEntries = 50
