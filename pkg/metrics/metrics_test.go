package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollector_SeparateRegistries(t *testing.T) {
	// Two collectors on their own registries must not panic on duplicate names.
	a := NewCollector("clinicflow", prometheus.NewRegistry())
	b := NewCollector("clinicflow", prometheus.NewRegistry())

	a.PatientsCreatedTotal.Inc()
	b.AppointmentsTotal.WithLabelValues("approved").Inc()
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("clinicflow", prometheus.NewRegistry())
	c.AppointmentsTotal.WithLabelValues("scheduled").Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `clinicflow_clinical_appointments_total{status="scheduled"} 1`) {
		t.Errorf("metric not exported:\n%s", body)
	}
}
