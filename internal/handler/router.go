package handler

import (
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/handler/middleware"
	v1 "github.com/dmehra2102/prod-golang-projects/clinicflow/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RouterDeps struct {
	Config   *config.Config
	API      *v1.Handler
	Tokens   middleware.TokenValidator
	Subjects middleware.SubjectChecker
	Metrics  *metrics.Collector
	Log      *zap.Logger

	// Limiter and CredentialLimiter are built by NewLimiters when nil.
	Limiter           *middleware.RateLimiter
	CredentialLimiter *middleware.RateLimiter
}

// NewLimiters builds the global per-IP limiter and the stricter one used on
// the login and register endpoints.
func NewLimiters(cfg config.RateLimitConfig) (global, credentials *middleware.RateLimiter) {
	global = middleware.NewRateLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize)
	perMinute := max(cfg.AuthRequestsPerMinute, 1)
	credentials = middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	return global, credentials
}

func NewRouter(d RouterDeps) *gin.Engine {
	if d.Limiter == nil || d.CredentialLimiter == nil {
		d.Limiter, d.CredentialLimiter = NewLimiters(d.Config.RateLimit)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(d.Log),
		middleware.Logger(d.Log),
		middleware.Metrics(d.Metrics),
		middleware.Tracing(d.Config.Tracing.ServiceName),
		cors.New(cors.Config{
			AllowOrigins:  d.Config.CORS.AllowedOrigins,
			AllowMethods:  d.Config.CORS.AllowedMethods,
			AllowHeaders:  d.Config.CORS.AllowedHeaders,
			ExposeHeaders: []string{middleware.RequestIDHeader},
			MaxAge:        d.Config.CORS.MaxAge,
		}),
		gzip.Gzip(gzip.BestSpeed, gzip.WithExcludedPaths([]string{"/metrics"})),
	)

	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api", middleware.RateLimit(d.Limiter, d.Metrics))
	d.API.RegisterRoutes(api, v1.RouteMiddleware{
		Authenticate:    middleware.Authenticate(d.Tokens),
		Guard:           middleware.NewGuard(d.Subjects, d.Config.Auth.StrictAdminCheck, d.Log),
		CredentialLimit: middleware.RateLimit(d.CredentialLimiter, d.Metrics),
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, v1.ErrorResponse{Error: "route not found"})
	})

	return r
}
