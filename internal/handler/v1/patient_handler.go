package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/history"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/report"
	"github.com/gin-gonic/gin"
)

const fhirContentType = "application/fhir+json; charset=utf-8"

func (h *Handler) ListPatients(c *gin.Context) {
	ps, err := h.patients.ListPatients(c.Request.Context(), caller(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toPatientResponses(ps))
}

// CreatePatient is the admin shortcut for creating a patient account.
func (h *Handler) CreatePatient(c *gin.Context) {
	// the role is implied by the route
	req := registerRequest{Role: "patient"}
	if !bindJSON(c, &req) {
		return
	}
	req.Role = "patient"
	dob, ok := parseDate(c, "dateOfBirth", req.DateOfBirth)
	if !ok {
		return
	}

	acct, err := h.users.CreateUser(c.Request.Context(), caller(c), req.command(dob))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCreated(c, toPatientResponse(acct.Patient))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.patients.GetPatient(c.Request.Context(), caller(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toPatientResponse(p))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd, ok := updateCommand(c, req)
	if !ok {
		return
	}

	acct, err := h.users.UpdatePatient(c.Request.Context(), caller(c), id, cmd)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toPatientResponse(acct.Patient))
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.patients.DeletePatient(c.Request.Context(), caller(c), id); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetPrescriptions(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	entries, err := h.patients.GetPrescriptions(c.Request.Context(), caller(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, entries)
}

// ReplacePrescriptions overwrites the whole list; entries are never merged.
func (h *Handler) ReplacePrescriptions(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req replacePrescriptionsRequest
	if !bindJSON(c, &req) {
		return
	}

	entries, err := h.patients.ReplacePrescriptions(c.Request.Context(), caller(c), id, req.Prescriptions)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, entries)
}

func (h *Handler) ListHistory(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	entries, err := h.patients.ListHistory(c.Request.Context(), caller(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toHistoryResponses(entries))
}

func (h *Handler) AddHistory(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req addHistoryRequest
	if !bindJSON(c, &req) {
		return
	}
	diagnosed, ok := parseDate(c, "diagnosedOn", req.DiagnosedOn)
	if !ok {
		return
	}

	sc := caller(c)
	e, err := h.patients.AddHistory(c.Request.Context(), sc, history.AddEntryCommand{
		PatientID:   id,
		Condition:   req.Condition,
		DiagnosedOn: diagnosed,
		Notes:       req.Notes,
		RecordedBy:  sc.ID,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCreated(c, toHistoryResponse(e))
}

// PutReport stores the raw request body as the patient's rendered document.
func (h *Handler) PutReport(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxReportBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "report exceeds the maximum allowed size")
			return
		}
		respondError(c, http.StatusBadRequest, "could not read report body")
		return
	}

	if err := h.patients.SetReport(c.Request.Context(), caller(c), id, data, c.ContentType()); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetReport(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	data, contentType, err := h.patients.GetReport(c.Request.Context(), caller(c), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) AgeDistribution(c *gin.Context) {
	b, err := h.reports.AgeDistribution(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondBundle(c, b)
}

func (h *Handler) GenderDistribution(c *gin.Context) {
	b, err := h.reports.GenderDistribution(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondBundle(c, b)
}

// respondBundle writes the bundle as the top-level document so FHIR
// consumers can parse it directly.
func respondBundle(c *gin.Context, b *report.Bundle) {
	c.Header("Content-Type", fhirContentType)
	c.JSON(http.StatusOK, b)
}
