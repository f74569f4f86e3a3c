package v1

import (
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/gin-gonic/gin"
)

// Register is the public sign-up for doctors and patients.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	dob, ok := parseDate(c, "dateOfBirth", req.DateOfBirth)
	if !ok {
		return
	}

	acct, err := h.users.Register(c.Request.Context(), req.command(dob), c.ClientIP())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondCreated(c, toAccountResponse(acct))
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), service.LoginCommand{
		Role:     req.Role,
		Email:    req.Email,
		Password: req.Password,
		OTP:      req.OTP,
	}, c.ClientIP())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	respondOK(c, loginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		User:        toUserResponse(user),
	})
}

func (h *Handler) GetProfile(c *gin.Context) {
	acct, err := h.users.GetAccount(c.Request.Context(), caller(c).ID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toAccountResponse(acct))
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd, ok := updateCommand(c, req)
	if !ok {
		return
	}

	sc := caller(c)
	acct, err := h.users.UpdateUser(c.Request.Context(), sc, sc.ID, cmd)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toAccountResponse(acct))
}

func (h *Handler) EnrollMFA(c *gin.Context) {
	var req enrollMFARequest
	// the body is optional for a first enrolment
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	key, err := h.auth.EnrollMFA(c.Request.Context(), caller(c), req.CurrentCode)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, mfaEnrollResponse{Secret: key.Secret, OTPAuthURL: key.URL})
}

func (h *Handler) VerifyMFA(c *gin.Context) {
	var req verifyMFARequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.auth.VerifyMFA(c.Request.Context(), caller(c), req.Code); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse[gin.H]{Data: gin.H{"mfaEnabled": true}})
}

// ListDoctors is the directory patients pick from when booking.
func (h *Handler) ListDoctors(c *gin.Context) {
	ds, err := h.users.ListDoctors(c.Request.Context(), c.Query("specialization"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, toDoctorResponses(ds))
}

func updateCommand(c *gin.Context, req updateAccountRequest) (service.UpdateUserCommand, bool) {
	var raw string
	if req.DateOfBirth != nil {
		raw = *req.DateOfBirth
	}
	dob, ok := parseDate(c, "dateOfBirth", raw)
	if !ok {
		return service.UpdateUserCommand{}, false
	}
	return req.command(dob), true
}
