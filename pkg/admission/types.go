// Package admission decides whether a download request may proceed: it tracks
// per-user daily usage with dynamically computed limits, bounds how many
// downloads run concurrently, correlates link submissions with mode choices,
// and orchestrates the extraction and delivery of the resulting artifact.
package admission

import "time"

// Kind is one of the two independently tracked usage dimensions.
type Kind string

const (
	// KindVideo counts video downloads.
	KindVideo Kind = "video"
	// KindAudio counts audio downloads.
	KindAudio Kind = "audio"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindVideo || k == KindAudio
}

// DateLayout is the calendar-date format used for daily resets.
const DateLayout = "2006-01-02"

// Today returns the server-local calendar date used for reset comparisons.
func Today() string {
	return time.Now().Format(DateLayout)
}

// UsageRecord holds one user's daily download counters.
// LastReset equals today's date whenever the record is used for a decision;
// stale records are zeroed and re-dated as a single update by the storage.
type UsageRecord struct {
	UserID      string
	Video       int
	Audio       int
	LastReset   string
	DisplayName string
}

// Count returns the counter for the given kind.
func (r *UsageRecord) Count(kind Kind) int {
	if kind == KindAudio {
		return r.Audio
	}
	return r.Video
}

// Limits holds the per-kind daily limits derived from subscriptions.
// Limits are never stored; they are recomputed on every request.
type Limits struct {
	Video int
	Audio int
}

// For returns the limit for the given kind.
func (l Limits) For(kind Kind) int {
	if kind == KindAudio {
		return l.Audio
	}
	return l.Video
}

// ChannelStatus is one channel's membership result for a user.
type ChannelStatus struct {
	Channel    string
	Subscribed bool
}

// UserInfo identifies a known user for administrative enumeration.
type UserInfo struct {
	ID          string
	DisplayName string
}

// Artifact is the resolved on-disk result of an extraction.
type Artifact struct {
	Path  string
	Title string
	Size  int64
}

// Config holds admission configuration.
type Config struct {
	// BaseVideoLimit is the daily video limit with no subscriptions (default: 7).
	BaseVideoLimit int

	// BaseAudioLimit is the daily audio limit with no subscriptions (default: 15).
	BaseAudioLimit int

	// BonusPerChannel is added to both limits per subscribed channel (default: 4).
	BonusPerChannel int

	// Channels is the fixed channel set counted toward the bonus.
	Channels []string

	// MaxConcurrent is the admission gate capacity (default: 10).
	MaxConcurrent int64

	// Logger is used for structured logging (default: NoopLogger).
	Logger Logger

	// Metrics is used for tracking admission operations (default: NoopMetrics).
	Metrics Metrics
}

func (c *Config) applyDefaults() {
	if c.BaseVideoLimit == 0 {
		c.BaseVideoLimit = 7
	}
	if c.BaseAudioLimit == 0 {
		c.BaseAudioLimit = 15
	}
	if c.BonusPerChannel == 0 {
		c.BonusPerChannel = 4
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 10
	}
	if c.Logger == nil {
		c.Logger = &NoopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = &NoopMetrics{}
	}
}
