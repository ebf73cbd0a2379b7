package prommetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	if metrics == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordAdmission(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordAdmission("video")
	metrics.RecordAdmission("audio")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("Expected metrics to be recorded")
	}
}

func TestRecordRejectionLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordRejection("video", "quota")
	metrics.RecordRejection("audio", "quota")
	metrics.RecordRejection("video", "ticket")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var rejections *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "test_rejections_total" {
			rejections = f
			break
		}
	}
	if rejections == nil {
		t.Fatal("Expected to find rejections metric")
	}
	if len(rejections.Metric) != 3 {
		t.Errorf("Expected 3 time series, got %d", len(rejections.Metric))
	}
}

func TestRecordResolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordResolve("delivered", 12*time.Second)
	metrics.RecordResolve("extraction_failed", 3*time.Second)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var resolve *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "test_resolve_duration_seconds" {
			resolve = f
			break
		}
	}
	if resolve == nil {
		t.Fatal("Expected to find resolve duration metric")
	}
	if len(resolve.Metric) != 2 {
		t.Errorf("Expected 2 time series, got %d", len(resolve.Metric))
	}
}

func TestSetInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.SetInFlight(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var gauge *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "test_inflight_slots" {
			gauge = f
			break
		}
	}
	if gauge == nil {
		t.Fatal("Expected to find inflight gauge")
	}
	if got := gauge.Metric[0].GetGauge().GetValue(); got != 3 {
		t.Errorf("Gauge value = %v, want 3", got)
	}
}

func TestRecordDelivery(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")

	metrics.RecordDelivery("video", true)
	metrics.RecordDelivery("video", false)
	metrics.RecordDelivery("audio", true)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var deliveries *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "test_deliveries_total" {
			deliveries = f
			break
		}
	}
	if deliveries == nil {
		t.Fatal("Expected to find deliveries metric")
	}
	if len(deliveries.Metric) != 3 {
		t.Errorf("Expected 3 time series, got %d", len(deliveries.Metric))
	}
}
