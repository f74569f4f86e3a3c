package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/handler/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether a backing dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	auth           *service.AuthService
	users          *service.UserService
	patients       *service.PatientService
	appointments   *service.AppointmentService
	reports        *service.ReportService
	ready          ReadinessCheck
	maxReportBytes int64
	log            *zap.Logger
}

type Services struct {
	Auth         *service.AuthService
	Users        *service.UserService
	Patients     *service.PatientService
	Appointments *service.AppointmentService
	Reports      *service.ReportService
}

func NewHandler(svc Services, ready ReadinessCheck, maxReportBytes int64, log *zap.Logger) *Handler {
	return &Handler{
		auth:           svc.Auth,
		users:          svc.Users,
		patients:       svc.Patients,
		appointments:   svc.Appointments,
		reports:        svc.Reports,
		ready:          ready,
		maxReportBytes: maxReportBytes,
		log:            log.Named("http"),
	}
}

// RouteMiddleware is the per-route middleware the API is mounted with.
type RouteMiddleware struct {
	// Authenticate verifies the bearer credential.
	Authenticate gin.HandlerFunc
	Guard        *middleware.Guard
	// CredentialLimit throttles the login and register endpoints. Optional.
	CredentialLimit gin.HandlerFunc
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mw RouteMiddleware) {
	authn, guard := mw.Authenticate, mw.Guard

	rg.GET("/healthz", h.Health)
	rg.GET("/readyz", h.Ready)

	public := rg.Group("")
	if mw.CredentialLimit != nil {
		public.Use(mw.CredentialLimit)
	}
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)

	anyRole := guard.RequireRoles(domain.RoleAdmin, domain.RoleDoctor, domain.RolePatient)
	staff := guard.RequireRoles(domain.RoleAdmin, domain.RoleDoctor)

	profile := rg.Group("/profile", authn, anyRole)
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
		profile.POST("/mfa/enroll", h.EnrollMFA)
		profile.POST("/mfa/verify", h.VerifyMFA)
	}

	doctors := rg.Group("/doctors", authn)
	{
		doctors.GET("", anyRole, h.ListDoctors)
		doctors.GET("/appointments", guard.RequireDoctor(), h.ListDoctorAppointments)
		doctors.GET("/appointments/pending", guard.RequireDoctor(), h.ListPendingAppointments)
		doctors.PUT("/appointments/:id/approve", guard.RequireDoctor(), h.ApproveAppointment)
		doctors.PUT("/appointments/:id/reject", guard.RequireDoctor(), h.RejectAppointment)
		doctors.PUT("/appointments/:id/complete", guard.RequireDoctor(), h.CompleteAppointment)
	}

	patients := rg.Group("/patients", authn)
	{
		patients.GET("", staff, h.ListPatients)
		patients.POST("", guard.RequireAdmin(), h.CreatePatient)

		patients.GET("/age-distribution", staff, h.AgeDistribution)
		patients.GET("/gender-distribution", staff, h.GenderDistribution)

		patients.GET("/me/appointments", guard.RequirePatient(), h.ListMyAppointments)
		patients.POST("/me/appointments", guard.RequirePatient(), h.BookAppointment)
		patients.PUT("/me/appointments/:id/cancel", guard.RequirePatient(), h.CancelAppointment)

		patients.GET("/:id", anyRole, h.GetPatient)
		patients.PUT("/:id", guard.RequireRoles(domain.RoleAdmin, domain.RolePatient), h.UpdatePatient)
		patients.DELETE("/:id", guard.RequireAdmin(), h.DeletePatient)

		patients.GET("/:id/prescriptions", anyRole, h.GetPrescriptions)
		patients.PUT("/:id/prescriptions", guard.RequireDoctor(), h.ReplacePrescriptions)

		patients.GET("/:id/history", anyRole, h.ListHistory)
		patients.POST("/:id/history", guard.RequireDoctor(), h.AddHistory)

		patients.GET("/:id/report", anyRole, h.GetReport)
		patients.PUT("/:id/report", staff, h.PutReport)
	}

	admin := rg.Group("/admin", authn, guard.RequireAdmin())
	{
		admin.GET("/users", h.ListUsers)
		admin.POST("/users", h.CreateUser)
		admin.GET("/users/:id", h.GetUser)
		admin.PUT("/users/:id", h.UpdateUser)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.GET("/stats", h.Stats)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Ready(c *gin.Context) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.log.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
