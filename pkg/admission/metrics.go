package admission

import "time"

// Metrics defines the interface for tracking admission operations.
type Metrics interface {
	// RecordAdmission records a request entering the download phase.
	RecordAdmission(kind string)

	// RecordRejection records a rejected request with one of the taxonomy
	// reasons ("quota_exceeded", "stale_ticket", "extraction_failed",
	// "artifact_not_located", "artifact_invalid", "delivery_failed", "internal").
	RecordRejection(kind, reason string)

	// RecordResolve records the outcome and duration of an artifact resolution.
	RecordResolve(outcome string, duration time.Duration)

	// RecordDelivery records a delivery attempt.
	RecordDelivery(kind string, success bool)

	// SetInFlight records the advisory number of occupied gate slots.
	SetInFlight(n int64)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordAdmission(kind string)                          {}
func (n *NoopMetrics) RecordRejection(kind, reason string)                  {}
func (n *NoopMetrics) RecordResolve(outcome string, duration time.Duration) {}
func (n *NoopMetrics) RecordDelivery(kind string, success bool)             {}
func (n *NoopMetrics) SetInFlight(in int64)                                 {}
