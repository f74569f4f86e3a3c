package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/handler/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondServiceError maps domain and service errors onto HTTP statuses.
// Anything unrecognised is logged and reported as an opaque 500.
func (h *Handler) respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, patient.ErrReportNotFound),
		errors.Is(err, doctor.ErrDoctorNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: rootMessage(err)})

	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, service.ErrMFAAlreadyEnabled),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, ErrorResponse{Error: rootMessage(err)})

	case errors.Is(err, patient.ErrInvalidAge),
		errors.Is(err, patient.ErrInvalidDateOfBirth),
		errors.Is(err, doctor.ErrSpecializationRequired),
		errors.Is(err, prescription.ErrMedicineRequired),
		errors.Is(err, prescription.ErrTooManyEntries),
		errors.Is(err, history.ErrConditionRequired),
		errors.Is(err, history.ErrDiagnosedInFuture):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrOTPRequired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "one-time password required", Code: "OTP_REQUIRED"})

	default:
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// rootMessage strips wrapping context so that clients see the sentinel text.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// parseDate accepts an empty string as "not provided".
func parseDate(c *gin.Context, field, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(appointment.DateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: []string{field + " must be formatted as YYYY-MM-DD"},
		})
		return nil, false
	}
	return &t, true
}

// caller builds the acting identity from the verified credential.
func caller(c *gin.Context) service.Caller {
	claims, _ := middleware.Claims(c)
	sc := service.Caller{
		IP:        c.ClientIP(),
		RequestID: middleware.GetRequestID(c),
	}
	if claims != nil {
		sc.ID = claims.UserID
		sc.Role = claims.Role
	}
	return sc
}
