package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/google/uuid"
)

func newPatient(t *testing.T, st *Store, email string) *patient.Patient {
	t.Helper()
	p := &patient.Patient{}
	u := &domain.User{Email: email, Name: email, Role: domain.RolePatient}
	if err := st.Patients.Create(context.Background(), u, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}

func TestPatientCodes_Sequential(t *testing.T) {
	st := NewStore()

	a := newPatient(t, st, "a@x.io")
	b := newPatient(t, st, "b@x.io")

	if a.Code != "P001" || b.Code != "P002" {
		t.Fatalf("codes = %s, %s", a.Code, b.Code)
	}
}

func TestPatientCodes_Concurrent(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	codes := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := &patient.Patient{}
			u := &domain.User{Email: uuid.NewString() + "@x.io", Role: domain.RolePatient}
			if err := st.Patients.Create(ctx, u, p); err != nil {
				t.Errorf("create: %v", err)
				return
			}
			codes <- p.Code
		}()
	}
	wg.Wait()
	close(codes)

	seen := map[string]bool{}
	for c := range codes {
		if seen[c] {
			t.Fatalf("duplicate code %s", c)
		}
		seen[c] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d codes, got %d", n, len(seen))
	}
}

func TestEmailUniqueAcrossRoles(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	newPatient(t, st, "same@x.io")

	err := st.Doctors.Create(ctx,
		&domain.User{Email: "same@x.io", Role: domain.RoleDoctor},
		&doctor.Doctor{Specialization: "cardiology"},
	)
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	err = st.Users.Create(ctx, &domain.User{Email: "same@x.io", Role: domain.RoleAdmin})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken for admin, got %v", err)
	}
}

func TestDeletePatient_Cascades(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	p := newPatient(t, st, "gone@x.io")
	other := newPatient(t, st, "stays@x.io")
	doc := uuid.New()

	mine := &appointment.Appointment{PatientID: p.UserID, DoctorID: doc, Status: appointment.StatusScheduled}
	theirs := &appointment.Appointment{PatientID: other.UserID, DoctorID: doc, Status: appointment.StatusScheduled}
	_ = st.Appointments.Create(ctx, mine)
	_ = st.Appointments.Create(ctx, theirs)
	_ = st.History.Append(ctx, &history.Entry{PatientID: p.UserID, Condition: "asthma"})

	if err := st.Users.Delete(ctx, p.UserID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := st.Patients.GetByID(ctx, p.UserID); !errors.Is(err, patient.ErrPatientNotFound) {
		t.Errorf("patient still present: %v", err)
	}
	if _, err := st.Appointments.GetByID(ctx, mine.ID); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("appointment not cascaded: %v", err)
	}
	if _, err := st.Appointments.GetByID(ctx, theirs.ID); err != nil {
		t.Errorf("unrelated appointment removed: %v", err)
	}
	if h, _ := st.History.ListByPatient(ctx, p.UserID); len(h) != 0 {
		t.Errorf("history not cascaded: %d entries", len(h))
	}
	if _, err := st.Users.GetByEmail(ctx, "gone@x.io"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("email still indexed: %v", err)
	}
}

func TestUpdateStatus_VersionCheck(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	a := &appointment.Appointment{PatientID: uuid.New(), DoctorID: uuid.New(), Status: appointment.StatusScheduled}
	_ = st.Appointments.Create(ctx, a)

	first, _ := st.Appointments.GetByID(ctx, a.ID)
	second, _ := st.Appointments.GetByID(ctx, a.ID)

	first.Status = appointment.StatusApproved
	if err := st.Appointments.UpdateStatus(ctx, first, 1); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("version = %d, want 2", first.Version)
	}

	second.Status = appointment.StatusRejected
	if err := st.Appointments.UpdateStatus(ctx, second, 1); !errors.Is(err, appointment.ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}

	got, _ := st.Appointments.GetByID(ctx, a.ID)
	if got.Status != appointment.StatusApproved {
		t.Errorf("lost update: status %s", got.Status)
	}
}

func TestListByDoctor_LoadsPatient(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	p := newPatient(t, st, "pat@x.io")
	doc := uuid.New()
	_ = st.Appointments.Create(ctx, &appointment.Appointment{PatientID: p.UserID, DoctorID: doc, Status: appointment.StatusScheduled, Date: "2024-01-10"})
	_ = st.Appointments.Create(ctx, &appointment.Appointment{PatientID: p.UserID, DoctorID: doc, Status: appointment.StatusApproved, Date: "2024-01-09"})
	_ = st.Appointments.Create(ctx, &appointment.Appointment{PatientID: p.UserID, DoctorID: uuid.New(), Status: appointment.StatusScheduled})

	pending, _ := st.Appointments.ListByDoctor(ctx, doc, appointment.StatusScheduled)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].Patient.Code != "P001" || pending[0].Patient.Name() != "pat@x.io" {
		t.Errorf("patient not loaded: %+v", pending[0].Patient)
	}

	all, _ := st.Appointments.ListByDoctor(ctx, doc)
	if len(all) != 2 || all[0].Date != "2024-01-09" {
		t.Errorf("unexpected listing %+v", all)
	}
}

func TestDeleteDoctor_CascadesAppointments(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	p := newPatient(t, st, "pat@x.io")
	d := &doctor.Doctor{Specialization: "cardiology"}
	if err := st.Doctors.Create(ctx, &domain.User{Email: "doc@x.io", Name: "Dr. X", Role: domain.RoleDoctor}, d); err != nil {
		t.Fatalf("create doctor: %v", err)
	}

	a := &appointment.Appointment{PatientID: p.UserID, DoctorID: d.UserID, Status: appointment.StatusScheduled}
	if err := st.Appointments.Create(ctx, a); err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	if err := st.Users.Delete(ctx, d.UserID); err != nil {
		t.Fatalf("delete doctor: %v", err)
	}

	if _, err := st.Appointments.GetByID(ctx, a.ID); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("appointment should be gone, got %v", err)
	}
	mine, _ := st.Appointments.ListByPatient(ctx, p.UserID)
	if len(mine) != 0 {
		t.Errorf("patient still sees %d appointments", len(mine))
	}
}
