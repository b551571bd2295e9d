package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestSimCollectorRecordsStepMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.SetSatellites(1000)
	collector.ObserveStep(2 * time.Millisecond)
	collector.ObserveStep(3 * time.Millisecond)
	collector.SetProximityWarnings(7)
	collector.AddCollisions(2)

	if got := testutil.ToFloat64(collector.Steps); got != 2 {
		t.Fatalf("sim_steps_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Satellites); got != 1000 {
		t.Fatalf("sim_satellites = %v, want 1000", got)
	}
	if got := testutil.ToFloat64(collector.ProximityWarnings); got != 7 {
		t.Fatalf("sim_proximity_warnings = %v, want 7", got)
	}
	if got := testutil.ToFloat64(collector.Collisions); got != 2 {
		t.Fatalf("sim_collisions_total = %v, want 2", got)
	}
	if count := histogramSampleCount(t, reg, "sim_step_duration_seconds"); count != 2 {
		t.Fatalf("sim_step_duration_seconds sample_count = %d, want 2", count)
	}
}

func TestNewSimCollectorTolerateDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("first NewSimCollector: %v", err)
	}
	second, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("second NewSimCollector: %v", err)
	}

	// Both collectors drive the same underlying metric.
	first.ObserveStep(time.Millisecond)
	second.ObserveStep(time.Millisecond)
	if got := testutil.ToFloat64(second.Steps); got != 2 {
		t.Fatalf("sim_steps_total = %v, want 2 across shared collectors", got)
	}
}

func TestMetricsHandlerExposesSimGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	collector.SetSatellites(42)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "sim_satellites 42") {
		t.Fatalf("metrics output missing sim_satellites gauge:\n%s", body)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *SimCollector
	c.ObserveStep(time.Millisecond)
	c.SetSatellites(1)
	c.SetProximityWarnings(1)
	c.AddCollisions(1)
}

func histogramSampleCount(t *testing.T, g prometheus.Gatherer, name string) uint64 {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var family *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == name {
			family = mf
			break
		}
	}
	if family == nil {
		t.Fatalf("metric family %s not found", name)
	}
	if len(family.GetMetric()) != 1 {
		t.Fatalf("metric family %s has %d series, want 1", name, len(family.GetMetric()))
	}
	return family.GetMetric()[0].GetHistogram().GetSampleCount()
}
