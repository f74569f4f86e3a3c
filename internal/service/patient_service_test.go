package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/report"
)

func TestGetPatient_RBAC(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t, "root@clinic.io")
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	ann := f.patient(t, "Ann", "ann@mail.io")
	bob := f.patient(t, "Bob", "bob@mail.io")

	for _, c := range []Caller{admin, d, ann} {
		if _, err := f.patients.GetPatient(ctx, c, ann.ID); err != nil {
			t.Errorf("%s reading ann: %v", c.Role, err)
		}
	}
	if _, err := f.patients.GetPatient(ctx, bob, ann.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("bob reading ann: %v", err)
	}
	if _, err := f.patients.ListPatients(ctx, ann); !errors.Is(err, ErrForbidden) {
		t.Errorf("patient listing: %v", err)
	}

	list, err := f.patients.ListPatients(ctx, d)
	if err != nil || len(list) != 2 || list[0].Code != "P001" {
		t.Errorf("list = %v %+v", err, list)
	}
}

func TestPrescriptions_ReplaceWholeList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")

	empty, err := f.patients.GetPrescriptions(ctx, p, p.ID)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("initial = %v %v", empty, err)
	}

	_, err = f.patients.ReplacePrescriptions(ctx, d, p.ID, []prescription.Entry{
		{Medicine: "Amoxicillin", Dosage: "500mg"},
		{Medicine: "Ibuprofen"},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	_, err = f.patients.ReplacePrescriptions(ctx, d, p.ID, []prescription.Entry{{Medicine: " Paracetamol "}})
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}

	got, _ := f.patients.GetPrescriptions(ctx, p, p.ID)
	if len(got) != 1 || got[0].Medicine != "Paracetamol" {
		t.Errorf("prescriptions = %+v", got)
	}

	if _, err := f.patients.ReplacePrescriptions(ctx, d, p.ID, []prescription.Entry{{Dosage: "1"}}); !isValidation(err) {
		t.Errorf("missing medicine: %v", err)
	}
	if _, err := f.patients.ReplacePrescriptions(ctx, p, p.ID, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("patient prescribing: %v", err)
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")

	tomorrow := time.Now().AddDate(0, 0, 1)
	_, err := f.patients.AddHistory(ctx, d, history.AddEntryCommand{PatientID: p.ID, Condition: "flu", DiagnosedOn: &tomorrow})
	if !isValidation(err) {
		t.Errorf("future diagnosis: %v", err)
	}

	e, err := f.patients.AddHistory(ctx, d, history.AddEntryCommand{PatientID: p.ID, Condition: " asthma "})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.RecordedBy != d.ID || e.Condition != "asthma" {
		t.Errorf("entry = %+v", e)
	}

	entries, err := f.patients.ListHistory(ctx, p, p.ID)
	if err != nil || len(entries) != 1 {
		t.Fatalf("list = %v %+v", err, entries)
	}
}

func TestReport_Document(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t, "root@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")

	if _, _, err := f.patients.GetReport(ctx, p, p.ID); !errors.Is(err, patient.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}

	if err := f.patients.SetReport(ctx, admin, p.ID, []byte("%PDF-1.4"), "application/pdf"); err != nil {
		t.Fatalf("set: %v", err)
	}
	data, ct, err := f.patients.GetReport(ctx, p, p.ID)
	if err != nil || string(data) != "%PDF-1.4" || ct != "application/pdf" {
		t.Errorf("report = %q %q %v", data, ct, err)
	}

	// lists never carry the blob
	got, _ := f.patients.GetPatient(ctx, admin, p.ID)
	if len(got.Report) != 0 {
		t.Error("report blob loaded with patient")
	}
}

func TestDeletePatient_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t, "root@clinic.io")
	d := f.doctor(t, "Dr. Grey", "grey@clinic.io")
	p := f.patient(t, "Ann", "ann@mail.io")
	a := book(t, f, p, d, "2024-01-10")

	if err := f.patients.DeletePatient(ctx, d, p.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("doctor deleting: %v", err)
	}
	if err := f.patients.DeletePatient(ctx, admin, d.ID); !errors.Is(err, patient.ErrPatientNotFound) {
		t.Errorf("deleting a doctor through patients: %v", err)
	}
	if err := f.patients.DeletePatient(ctx, admin, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.store.Appointments.GetByID(ctx, a.ID); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("appointment survived: %v", err)
	}
}

func TestReportService_Distributions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t, "root@clinic.io")

	ages := []int{10, 25, 80}
	genders := []string{"Female", "male", ""}
	for i := range ages {
		c := f.patient(t, "p", string(rune('a'+i))+"@mail.io")
		age, gender := ages[i], genders[i]
		_, err := f.users.UpdatePatient(ctx, admin, c.ID, UpdateUserCommand{
			Patient: &patient.UpdatePatientCommand{Age: &age, Gender: &gender},
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	ageBundle, err := f.reports.AgeDistribution(ctx)
	if err != nil {
		t.Fatalf("age: %v", err)
	}
	if ageBundle.Total != len(report.AgeBuckets) {
		t.Errorf("total = %d", ageBundle.Total)
	}
	counts := map[string]int{}
	for _, e := range ageBundle.Entry {
		counts[e.Resource.Code.Text] = e.Resource.ValueInteger
	}
	if counts["0-17"] != 1 || counts["18-30"] != 1 || counts["76+"] != 1 || counts["31-45"] != 0 {
		t.Errorf("age counts = %v", counts)
	}

	genderBundle, _ := f.reports.GenderDistribution(ctx)
	counts = map[string]int{}
	for _, e := range genderBundle.Entry {
		counts[e.Resource.Code.Text] = e.Resource.ValueInteger
	}
	if counts["female"] != 1 || counts["male"] != 1 || counts["unknown"] != 1 || counts["other"] != 0 {
		t.Errorf("gender counts = %v", counts)
	}
}
