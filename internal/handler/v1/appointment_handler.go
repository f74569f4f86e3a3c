package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) BookAppointment(c *gin.Context) {
	var req bookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	var doctorID uuid.UUID
	if raw := strings.TrimSpace(req.DoctorID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ValidationErrorResponse{
				Error:  "validation failed",
				Fields: []string{"doctorId must be a valid UUID"},
			})
			return
		}
		doctorID = id
	}

	a, err := h.appointments.Book(c.Request.Context(), caller(c), appointment.BookAppointmentCommand{
		DoctorID: doctorID,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCreated(c, toAppointmentResponse(a))
}

func (h *Handler) ListMyAppointments(c *gin.Context) {
	as, err := h.appointments.ListMine(c.Request.Context(), caller(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponses(as))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	h.transition(c, h.appointments.Cancel)
}

// ListDoctorAppointments defaults to the approved appointments; ?status=all
// lists every status.
func (h *Handler) ListDoctorAppointments(c *gin.Context) {
	as, err := h.appointments.ListForDoctor(c.Request.Context(), caller(c), c.Query("status"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponses(as))
}

func (h *Handler) ListPendingAppointments(c *gin.Context) {
	as, err := h.appointments.ListPending(c.Request.Context(), caller(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponses(as))
}

func (h *Handler) ApproveAppointment(c *gin.Context) {
	h.transition(c, h.appointments.Approve)
}

func (h *Handler) RejectAppointment(c *gin.Context) {
	h.transition(c, h.appointments.Reject)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	h.transition(c, h.appointments.Complete)
}

type transitionFunc func(ctx context.Context, caller service.Caller, id uuid.UUID) (*appointment.Appointment, error)

func (h *Handler) transition(c *gin.Context, apply transitionFunc) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := apply(c.Request.Context(), caller(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}
