package prommetrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements admission.Metrics using Prometheus.
type Metrics struct {
	admissionsTotal *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	deliveriesTotal *prometheus.CounterVec
	inflightSlots   prometheus.Gauge
}

// NewMetrics creates a new Prometheus metrics implementation.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		admissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Total number of requests admitted into the download phase.",
		}, []string{"kind"}),

		rejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Total number of rejected requests by reason.",
		}, []string{"kind", "reason"}),

		resolveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Latency of artifact resolution by outcome.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"outcome"}),

		deliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of delivery attempts.",
		}, []string{"kind", "success"}),

		inflightSlots: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_slots",
			Help:      "Advisory number of occupied admission gate slots.",
		}),
	}
}

func (m *Metrics) RecordAdmission(kind string) {
	m.admissionsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordRejection(kind, reason string) {
	m.rejectionsTotal.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) RecordResolve(outcome string, duration time.Duration) {
	m.resolveDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) RecordDelivery(kind string, success bool) {
	m.deliveriesTotal.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
}

func (m *Metrics) SetInFlight(n int64) {
	m.inflightSlots.Set(float64(n))
}
