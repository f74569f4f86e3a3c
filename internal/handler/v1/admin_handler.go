package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toUserResponses(users))
}

// CreateUser accepts every role, admin included.
func (h *Handler) CreateUser(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	dob, ok := parseDate(c, "dateOfBirth", req.DateOfBirth)
	if !ok {
		return
	}

	acct, err := h.users.CreateUser(c.Request.Context(), caller(c), req.command(dob))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCreated(c, toAccountResponse(acct))
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	acct, err := h.users.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toAccountResponse(acct))
}

func (h *Handler) UpdateUser(c *gin.Context) {
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

	acct, err := h.users.UpdateUser(c.Request.Context(), caller(c), id, cmd)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toAccountResponse(acct))
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), caller(c), id); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Stats(c *gin.Context) {
	st, err := h.users.Stats(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, st)
}
