package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/events"
	"github.com/google/uuid"
)

func book(t *testing.T, f *fixture, p, d Caller, date string) *appointment.Appointment {
	t.Helper()
	a, err := f.appointments.Book(context.Background(), p, appointment.BookAppointmentCommand{
		DoctorID: d.ID, Date: date, Time: "09:00", Reason: "checkup",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return a
}

func TestBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")

	a := book(t, f, p, d, "2024-01-10")
	if a.Status != appointment.StatusScheduled || a.PatientID != p.ID || a.DoctorID != d.ID {
		t.Fatalf("unexpected appointment %+v", a)
	}

	mine, _ := f.appointments.ListMine(ctx, p)
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Errorf("ListMine = %+v", mine)
	}

	pending, _ := f.appointments.ListPending(ctx, d)
	if len(pending) != 1 || pending[0].Patient.Code != "P001" || pending[0].Patient.Name() != "Ann" {
		t.Errorf("pending = %+v", pending)
	}

	if got := f.publisher.types(); len(got) != 1 || got[0] != events.AppointmentBooked {
		t.Errorf("events = %v", got)
	}
}

func TestBook_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")

	_, err := f.appointments.Book(ctx, p, appointment.BookAppointmentCommand{DoctorID: d.ID})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = f.appointments.Book(ctx, p, appointment.BookAppointmentCommand{
		DoctorID: uuid.New(), Date: "2024-01-10", Time: "09:00", Reason: "x",
	})
	if !errors.Is(err, doctor.ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}

	_, err = f.appointments.Book(ctx, d, appointment.BookAppointmentCommand{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("doctor booking: expected ErrForbidden, got %v", err)
	}
}

func TestApprove_IdempotentAndDoctorView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")
	a := book(t, f, p, d, "2024-01-10")
	other := book(t, f, p, d, "2024-01-11")

	approved, err := f.appointments.Approve(ctx, d, a.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != appointment.StatusApproved || approved.DoctorName != "Dr. Grey" {
		t.Fatalf("unexpected %+v", approved)
	}

	again, err := f.appointments.Approve(ctx, d, a.ID)
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if again.Version != approved.Version {
		t.Errorf("second approve wrote: version %d -> %d", approved.Version, again.Version)
	}

	view, _ := f.appointments.ListForDoctor(ctx, d, "")
	if len(view) != 1 || view[0].ID != a.ID {
		t.Fatalf("doctor view = %+v", view)
	}

	untouched, _ := f.store.Appointments.GetByID(ctx, other.ID)
	if untouched.Status != appointment.StatusScheduled {
		t.Errorf("other appointment changed to %s", untouched.Status)
	}

	// approve counted once
	if got := f.publisher.types(); len(got) != 3 {
		t.Errorf("events = %v", got)
	}
}

func TestReject_LeavesDoctorViewUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")
	keep := book(t, f, p, d, "2024-01-10")
	drop := book(t, f, p, d, "2024-01-11")

	if _, err := f.appointments.Approve(ctx, d, keep.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	before, _ := f.appointments.ListForDoctor(ctx, d, "")

	rejected, err := f.appointments.Reject(ctx, d, drop.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != appointment.StatusRejected {
		t.Errorf("status = %s", rejected.Status)
	}

	after, _ := f.appointments.ListForDoctor(ctx, d, "")
	if len(before) != len(after) || after[0].ID != keep.ID {
		t.Errorf("doctor view changed: before=%d after=%d", len(before), len(after))
	}

	if _, err := f.appointments.Approve(ctx, d, drop.ID); !errors.Is(err, appointment.ErrInvalidStatusTransition) {
		t.Errorf("approving rejected: expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestDoctorActions_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	intruder := f.doctor(t, "Dr. House", "house@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")
	a := book(t, f, p, d, "2024-01-10")

	if _, err := f.appointments.Approve(ctx, intruder, a.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("approve by other doctor: %v", err)
	}
	if _, err := f.appointments.Reject(ctx, intruder, a.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("reject by other doctor: %v", err)
	}
	if _, err := f.appointments.Approve(ctx, d, uuid.New()); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("unknown appointment: %v", err)
	}
}

func TestCompleteAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")
	other := f.patient(t, "Bob", "bob@mail.io")

	a := book(t, f, p, d, "2024-01-10")
	if _, err := f.appointments.Complete(ctx, d, a.ID); !errors.Is(err, appointment.ErrInvalidStatusTransition) {
		t.Fatalf("complete before approve: %v", err)
	}
	_, _ = f.appointments.Approve(ctx, d, a.ID)
	done, err := f.appointments.Complete(ctx, d, a.ID)
	if err != nil || done.Status != appointment.StatusCompleted {
		t.Fatalf("complete: %v %+v", err, done)
	}

	b := book(t, f, p, d, "2024-01-12")
	if _, err := f.appointments.Cancel(ctx, other, b.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("cancel by other patient: %v", err)
	}
	cancelled, err := f.appointments.Cancel(ctx, p, b.ID)
	if err != nil || cancelled.Status != appointment.StatusCancelled {
		t.Fatalf("cancel: %v %+v", err, cancelled)
	}
}

func TestListForDoctor_StatusFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")
	book(t, f, p, d, "2024-01-10")
	a := book(t, f, p, d, "2024-01-11")
	_, _ = f.appointments.Approve(ctx, d, a.ID)

	pending, err := f.appointments.ListForDoctor(ctx, d, "Pending")
	if err != nil || len(pending) != 1 {
		t.Fatalf("Pending filter: %v %d", err, len(pending))
	}
	all, _ := f.appointments.ListForDoctor(ctx, d, "all")
	if len(all) != 2 {
		t.Errorf("all = %d", len(all))
	}
	if _, err := f.appointments.ListForDoctor(ctx, d, "bogus"); err == nil {
		t.Error("expected validation error for unknown status")
	}
}
