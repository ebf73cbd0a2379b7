package admission

import "context"

// Storage defines the interface for usage persistence.
// The usage record is owned exclusively by the storage; callers never mutate
// it directly. Implementations persist every mutation.
type Storage interface {
	// GetUsage retrieves the user's usage record.
	// Returns a zeroed record dated today if the user is unknown.
	GetUsage(ctx context.Context, userID string) (*UsageRecord, error)

	// ResetIfStale compares the stored date to today and, when they differ,
	// zeroes both counters and advances the date as a single update.
	// Idempotent. Returns the post-reset record.
	ResetIfStale(ctx context.Context, userID string) (*UsageRecord, error)

	// RecordDownload increments the kind's counter by one and persists.
	RecordDownload(ctx context.Context, userID string, kind Kind) error

	// SetDisplayName records the user's display name for admin enumeration.
	SetDisplayName(ctx context.Context, userID, name string) error

	// ListUsers enumerates every identity ever seen.
	ListUsers(ctx context.Context) ([]UserInfo, error)

	// Close releases storage resources.
	Close() error
}
