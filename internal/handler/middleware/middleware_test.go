package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/config"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/clinicflow/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSubjects struct {
	exists bool
	err    error
}

func (f fakeSubjects) SubjectExists(context.Context, uuid.UUID, domain.Role) (bool, error) {
	return f.exists, f.err
}

func jwtManager(ttl time.Duration) *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{
		Secret: "middleware-test-secret-middleware-test",
		TTL:    ttl,
		Issuer: "clinicflow",
	})
}

func bearer(t *testing.T, m *auth.JWTManager, role domain.Role) string {
	t.Helper()
	tok, err := m.Issue(&domain.Claims{UserID: uuid.New(), Email: "x@y.io", Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return "Bearer " + tok.AccessToken
}

func newRouter(v TokenValidator, guard gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{Authenticate(v)}
	if guard != nil {
		handlers = append(handlers, guard)
	}
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, authz string) int {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthenticate(t *testing.T) {
	m := jwtManager(time.Hour)
	expired := jwtManager(-time.Minute)
	r := newRouter(m, nil)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"no scheme", "abc.def.ghi", http.StatusUnauthorized},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusForbidden},
		{"expired", bearer(t, expired, domain.RolePatient), http.StatusForbidden},
		{"valid", bearer(t, m, domain.RolePatient), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := do(r, tt.header); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGuard(t *testing.T) {
	m := jwtManager(time.Hour)
	log := zap.NewNop()

	tests := []struct {
		name     string
		subjects fakeSubjects
		strict   bool
		guard    func(*Guard) gin.HandlerFunc
		role     domain.Role
		want     int
	}{
		{"doctor ok", fakeSubjects{exists: true}, true, (*Guard).RequireDoctor, domain.RoleDoctor, http.StatusNoContent},
		{"wrong role", fakeSubjects{exists: true}, true, (*Guard).RequireDoctor, domain.RolePatient, http.StatusForbidden},
		{"deleted doctor", fakeSubjects{}, true, (*Guard).RequireDoctor, domain.RoleDoctor, http.StatusForbidden},
		{"deleted patient", fakeSubjects{}, false, (*Guard).RequirePatient, domain.RolePatient, http.StatusForbidden},
		{"deleted admin strict", fakeSubjects{}, true, (*Guard).RequireAdmin, domain.RoleAdmin, http.StatusForbidden},
		{"deleted admin lenient", fakeSubjects{}, false, (*Guard).RequireAdmin, domain.RoleAdmin, http.StatusNoContent},
		{"store failure", fakeSubjects{err: errors.New("db down")}, true, (*Guard).RequirePatient, domain.RolePatient, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(tt.subjects, tt.strict, log)
			r := newRouter(m, tt.guard(g))
			if got := do(r, bearer(t, m, tt.role)); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequireRoles_Shared(t *testing.T) {
	m := jwtManager(time.Hour)
	g := NewGuard(fakeSubjects{exists: true}, true, zap.NewNop())
	r := newRouter(m, g.RequireRoles(domain.RoleAdmin, domain.RoleDoctor))

	if got := do(r, bearer(t, m, domain.RoleDoctor)); got != http.StatusNoContent {
		t.Errorf("doctor: %d", got)
	}
	if got := do(r, bearer(t, m, domain.RolePatient)); got != http.StatusForbidden {
		t.Errorf("patient: %d", got)
	}
}

func TestRateLimit(t *testing.T) {
	mc := metrics.NewCollector("test", prometheus.NewRegistry())
	rl := NewRateLimiter(rate.Every(time.Hour), 2)

	r := gin.New()
	r.Use(RateLimit(rl, mc))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := []int{do(r, ""), do(r, ""), do(r, "")}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
	if got := testutil.ToFloat64(mc.RateLimited); got != 1 {
		t.Errorf("rate limited metric = %v", got)
	}

	rl.sweep(0)
	if do(r, "") != http.StatusNoContent {
		t.Error("sweep should reset idle clients")
	}
}

func TestRecoveryAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Errorf("request id = %q", rec.Header().Get(RequestIDHeader))
	}
	if body := rec.Body.String(); body != `{"error":"internal server error"}` {
		t.Errorf("body = %s", body)
	}
}
