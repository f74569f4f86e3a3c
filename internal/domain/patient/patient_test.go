package patient

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeOn(t *testing.T) {
	today := date(2024, time.June, 15)

	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"birthday today", date(1990, time.June, 15), 34},
		{"birthday tomorrow", date(1990, time.June, 16), 33},
		{"birthday yesterday", date(1990, time.June, 14), 34},
		{"birthday next month", date(1990, time.July, 1), 33},
		{"birthday last month", date(1990, time.May, 31), 34},
		{"born this year", date(2024, time.January, 1), 0},
		{"leap day before feb 29", date(2000, time.February, 29), 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeOn(tt.dob, today); got != tt.want {
				t.Errorf("AgeOn(%s) = %d, want %d", tt.dob.Format(time.DateOnly), got, tt.want)
			}
		})
	}
}

func TestPatient_AgeOn_PrefersNumericAge(t *testing.T) {
	age := 40
	dob := date(2000, time.January, 1)
	p := &Patient{Age: &age, DateOfBirth: &dob}

	got, ok := p.AgeOn(date(2024, time.June, 1))
	if !ok || got != 40 {
		t.Errorf("expected numeric age 40, got %d (ok=%v)", got, ok)
	}

	p.Age = nil
	got, ok = p.AgeOn(date(2024, time.June, 1))
	if !ok || got != 24 {
		t.Errorf("expected derived age 24, got %d (ok=%v)", got, ok)
	}

	p.DateOfBirth = nil
	if _, ok := p.AgeOn(date(2024, time.June, 1)); ok {
		t.Error("expected ok=false without age or date of birth")
	}
}

func TestFormatCode(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "P001"},
		{8, "P008"},
		{100, "P100"},
		{1000, "P1000"},
	}

	for _, tt := range tests {
		if got := FormatCode(tt.n); got != tt.want {
			t.Errorf("FormatCode(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestUpdatePatientCommand_Apply(t *testing.T) {
	p := &Patient{Gender: "female", Phone: "111"}
	phone := " 222 "
	cmd := &UpdatePatientCommand{Phone: &phone}

	cmd.Apply(p)

	if p.Phone != "222" {
		t.Errorf("expected trimmed phone, got %q", p.Phone)
	}
	if p.Gender != "female" {
		t.Errorf("unset fields must be kept, gender = %q", p.Gender)
	}
}

func TestValidateDemographics(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(-30, 0, 0)
	future := now.AddDate(0, 0, 1)
	neg, old, ok := -1, 151, 42

	tests := []struct {
		name string
		age  *int
		dob  *time.Time
		want error
	}{
		{"nothing", nil, nil, nil},
		{"valid", &ok, &past, nil},
		{"negative age", &neg, nil, ErrInvalidAge},
		{"too old", &old, nil, ErrInvalidAge},
		{"future dob", nil, &future, ErrInvalidDateOfBirth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateDemographics(tt.age, tt.dob, now); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
