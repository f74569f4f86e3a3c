package doctor

import (
	"errors"
	"testing"
)

func TestUpdateDoctorCommand_Apply(t *testing.T) {
	d := &Doctor{Specialization: "Cardiology", Phone: "123"}
	spec := "  Neurology "
	years := 12

	cmd := &UpdateDoctorCommand{Specialization: &spec, ExperienceYears: &years}
	if err := cmd.Apply(d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Specialization != "Neurology" || d.ExperienceYears != 12 || d.Phone != "123" {
		t.Errorf("unexpected doctor: %+v", d)
	}

	blank := "  "
	cmd = &UpdateDoctorCommand{Specialization: &blank}
	if err := cmd.Apply(d); !errors.Is(err, ErrSpecializationRequired) {
		t.Fatalf("expected ErrSpecializationRequired, got %v", err)
	}
	if d.Specialization != "Neurology" {
		t.Errorf("failed update must not clear specialization, got %q", d.Specialization)
	}
}
