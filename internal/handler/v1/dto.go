package v1

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/google/uuid"
)

// Request DTOs

type registerRequest struct {
	Role     string `json:"role" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`

	// Doctor profile
	Specialization  string `json:"specialization"`
	ExperienceYears int    `json:"experienceYears"`

	// Patient profile
	Age         *int   `json:"age"`
	DateOfBirth string `json:"dateOfBirth"` // YYYY-MM-DD
	Gender      string `json:"gender"`
	Address     string `json:"address"`
	BloodGroup  string `json:"bloodGroup"`

	Phone string `json:"phone"`
}

type loginRequest struct {
	Role     string `json:"role" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	OTP      string `json:"otp"`
}

// updateAccountRequest only touches the fields present in the body.
type updateAccountRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`

	Specialization  *string `json:"specialization"`
	ExperienceYears *int    `json:"experienceYears"`

	Age         *int    `json:"age"`
	DateOfBirth *string `json:"dateOfBirth"`
	Gender      *string `json:"gender"`
	Address     *string `json:"address"`
	BloodGroup  *string `json:"bloodGroup"`

	Phone *string `json:"phone"`
}

type enrollMFARequest struct {
	// Required once MFA is enabled.
	CurrentCode string `json:"currentCode"`
}

type verifyMFARequest struct {
	Code string `json:"code" binding:"required"`
}

type bookAppointmentRequest struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Reason   string `json:"reason"`
}

type replacePrescriptionsRequest struct {
	Prescriptions []prescription.Entry `json:"prescriptions"`
}

type addHistoryRequest struct {
	Condition   string `json:"condition"`
	DiagnosedOn string `json:"diagnosedOn"`
	Notes       string `json:"notes"`
}

func (r registerRequest) command(dob *time.Time) service.CreateUserCommand {
	return service.CreateUserCommand{
		Role:     r.Role,
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Doctor: doctor.CreateDoctorCommand{
			Specialization:  r.Specialization,
			Phone:           r.Phone,
			ExperienceYears: r.ExperienceYears,
		},
		Patient: patient.CreatePatientCommand{
			Age:         r.Age,
			DateOfBirth: dob,
			Gender:      r.Gender,
			Phone:       r.Phone,
			Address:     r.Address,
			BloodGroup:  r.BloodGroup,
		},
	}
}

func (r updateAccountRequest) command(dob *time.Time) service.UpdateUserCommand {
	cmd := service.UpdateUserCommand{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
	}
	if r.Specialization != nil || r.ExperienceYears != nil || r.Phone != nil {
		cmd.Doctor = &doctor.UpdateDoctorCommand{
			Specialization:  r.Specialization,
			Phone:           r.Phone,
			ExperienceYears: r.ExperienceYears,
		}
	}
	if r.Age != nil || dob != nil || r.Gender != nil || r.Address != nil || r.BloodGroup != nil || r.Phone != nil {
		cmd.Patient = &patient.UpdatePatientCommand{
			Age:         r.Age,
			DateOfBirth: dob,
			Gender:      r.Gender,
			Phone:       r.Phone,
			Address:     r.Address,
			BloodGroup:  r.BloodGroup,
		}
	}
	return cmd
}

// Response DTOs

type userResponse struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Role        domain.Role `json:"role"`
	MFAEnabled  bool        `json:"mfaEnabled"`
	LastLoginAt *time.Time  `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type doctorResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Specialization  string    `json:"specialization"`
	Phone           string    `json:"phone,omitempty"`
	ExperienceYears int       `json:"experienceYears"`
}

type patientResponse struct {
	ID            uuid.UUID            `json:"id"`
	Code          string               `json:"code"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	Age           *int                 `json:"age,omitempty"`
	DateOfBirth   string               `json:"dateOfBirth,omitempty"`
	Gender        string               `json:"gender,omitempty"`
	Phone         string               `json:"phone,omitempty"`
	Address       string               `json:"address,omitempty"`
	BloodGroup    string               `json:"bloodGroup,omitempty"`
	Prescriptions []prescription.Entry `json:"prescriptions"`
	CreatedAt     time.Time            `json:"createdAt"`
}

type accountResponse struct {
	User    userResponse     `json:"user"`
	Doctor  *doctorResponse  `json:"doctor,omitempty"`
	Patient *patientResponse `json:"patient,omitempty"`
}

type loginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        userResponse `json:"user"`
}

type mfaEnrollResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

type appointmentResponse struct {
	ID              uuid.UUID          `json:"id"`
	PatientID       uuid.UUID          `json:"patientId"`
	PatientName     string             `json:"patientName,omitempty"`
	PatientCode     string             `json:"patientCode,omitempty"`
	DoctorID        uuid.UUID          `json:"doctorId"`
	DoctorName      string             `json:"doctorName,omitempty"`
	Date            string             `json:"date"`
	Time            string             `json:"time"`
	Reason          string             `json:"reason"`
	Status          appointment.Status `json:"status"`
	Version         int                `json:"version"`
	CreatedAt       time.Time          `json:"createdAt"`
	StatusChangedAt *time.Time         `json:"statusChangedAt,omitempty"`
}

type historyResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patientId"`
	Condition   string    `json:"condition"`
	DiagnosedOn string    `json:"diagnosedOn,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	RecordedBy  uuid.UUID `json:"recordedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		MFAEnabled:  u.MFAEnabled,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toDoctorResponse(d *doctor.Doctor) *doctorResponse {
	return &doctorResponse{
		ID:              d.UserID,
		Name:            d.User.Name,
		Email:           d.User.Email,
		Specialization:  d.Specialization,
		Phone:           d.Phone,
		ExperienceYears: d.ExperienceYears,
	}
}

func toDoctorResponses(ds []*doctor.Doctor) []*doctorResponse {
	out := make([]*doctorResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDoctorResponse(d))
	}
	return out
}

func toPatientResponse(p *patient.Patient) *patientResponse {
	resp := &patientResponse{
		ID:            p.UserID,
		Code:          p.Code,
		Name:          p.User.Name,
		Email:         p.User.Email,
		Age:           p.Age,
		Gender:        p.Gender,
		Phone:         p.Phone,
		Address:       p.Address,
		BloodGroup:    p.BloodGroup,
		Prescriptions: p.Prescriptions,
		CreatedAt:     p.CreatedAt,
	}
	if p.DateOfBirth != nil {
		resp.DateOfBirth = p.DateOfBirth.Format(appointment.DateLayout)
	}
	if resp.Prescriptions == nil {
		resp.Prescriptions = []prescription.Entry{}
	}
	return resp
}

func toPatientResponses(ps []*patient.Patient) []*patientResponse {
	out := make([]*patientResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPatientResponse(p))
	}
	return out
}

func toAccountResponse(acct *service.Account) accountResponse {
	resp := accountResponse{User: toUserResponse(acct.User)}
	if acct.Doctor != nil {
		resp.Doctor = toDoctorResponse(acct.Doctor)
	}
	if acct.Patient != nil {
		resp.Patient = toPatientResponse(acct.Patient)
	}
	return resp
}

func toAppointmentResponse(a *appointment.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		PatientName:     a.Patient.User.Name,
		PatientCode:     a.Patient.Code,
		DoctorID:        a.DoctorID,
		DoctorName:      a.DoctorName,
		Date:            a.Date,
		Time:            a.Time,
		Reason:          a.Reason,
		Status:          a.Status,
		Version:         a.Version,
		CreatedAt:       a.CreatedAt,
		StatusChangedAt: a.StatusChangedAt,
	}
}

func toAppointmentResponses(as []*appointment.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(as))
	for _, a := range as {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

func toHistoryResponse(e *history.Entry) historyResponse {
	resp := historyResponse{
		ID:         e.ID,
		PatientID:  e.PatientID,
		Condition:  e.Condition,
		Notes:      e.Notes,
		RecordedBy: e.RecordedBy,
		CreatedAt:  e.CreatedAt,
	}
	if e.DiagnosedOn != nil {
		resp.DiagnosedOn = e.DiagnosedOn.Format(appointment.DateLayout)
	}
	return resp
}

func toHistoryResponses(es []*history.Entry) []historyResponse {
	out := make([]historyResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toHistoryResponse(e))
	}
	return out
}
