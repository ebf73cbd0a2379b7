package admission

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded is returned when the daily limit for a kind is reached.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTicketNotFound is returned when a pending ticket is missing or was
	// already consumed. This is an expected condition (stale button press),
	// not an internal failure.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrExtractionFailed is returned when the external tool produced no result.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrArtifactNotLocated is returned when extraction reported success but
	// the file could not be found on disk. This signals a naming-prediction
	// defect rather than a download failure.
	ErrArtifactNotLocated = errors.New("artifact not located")

	// ErrArtifactInvalid is returned when the resolved file is below the
	// minimal plausible size and was rejected.
	ErrArtifactInvalid = errors.New("artifact invalid")

	// ErrDeliveryFailed is returned when the transport could not send the file.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrStorageUnavailable is returned when storage is unavailable.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// QuotaError carries the limit that was hit so the transport can show it.
// It matches ErrQuotaExceeded under errors.Is.
type QuotaError struct {
	Kind  Kind
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (%d/%d)", e.Kind, e.Limit, e.Limit)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
