package admission

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
)

// Resolver wraps the external extraction step and normalizes its result into
// a single resolved artifact on disk.
type Resolver interface {
	Resolve(ctx context.Context, url string, kind Kind) (*Artifact, error)
}

// Deliverer hands a resolved artifact to the chat transport.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, kind Kind, path string) error
}

// Quote is a point-in-time view of a user's usage, limits and subscriptions,
// used for messaging before the user commits to a download.
type Quote struct {
	Usage      UsageRecord
	Limits     Limits
	Channels   []ChannelStatus
	Subscribed int
}

// DownloadRequest identifies one admitted-download attempt.
type DownloadRequest struct {
	UserID   string
	ChatID   int64
	TicketID string
	Kind     Kind

	// OnAdmitted, if set, is called once after a gate slot is acquired with
	// the advisory occupancy, for queue-position messaging only.
	OnAdmitted func(inFlight, capacity int64)
}

// DownloadResult describes a delivered artifact.
type DownloadResult struct {
	URL   string
	Title string
	Size  int64
}

// Orchestrator composes quota policy, the admission gate, ticket consumption,
// artifact resolution and delivery into the per-request state machine.
type Orchestrator struct {
	storage  Storage
	oracle   SubscriptionOracle
	tickets  TicketRegistry
	gate     *Gate
	resolver Resolver
	deliver  Deliverer
	cfg      Config
}

// NewOrchestrator creates an orchestrator. Storage, oracle, tickets, resolver
// and deliverer are required.
func NewOrchestrator(storage Storage, oracle SubscriptionOracle, tickets TicketRegistry, resolver Resolver, deliver Deliverer, cfg Config) (*Orchestrator, error) {
	if storage == nil {
		return nil, ErrStorageUnavailable
	}
	if oracle == nil || tickets == nil || resolver == nil || deliver == nil {
		return nil, errors.New("oracle, tickets, resolver and deliverer are required")
	}
	cfg.applyDefaults()

	return &Orchestrator{
		storage:  storage,
		oracle:   oracle,
		tickets:  tickets,
		gate:     NewGate(cfg.MaxConcurrent),
		resolver: resolver,
		deliver:  deliver,
		cfg:      cfg,
	}, nil
}

// StoreTicket registers a pending link for a later mode choice.
func (o *Orchestrator) StoreTicket(ticketID, url string) {
	o.tickets.Store(ticketID, url)
}

// InFlight returns the advisory gate occupancy for messaging.
func (o *Orchestrator) InFlight() int64 { return o.gate.InFlight() }

// Capacity returns the gate capacity.
func (o *Orchestrator) Capacity() int64 { return o.gate.Capacity() }

// GetQuote resets stale usage, snapshots subscriptions and computes the
// user's current limits. The snapshot is recomputed on every call; nothing
// here is cached or stored.
func (o *Orchestrator) GetQuote(ctx context.Context, userID string) (*Quote, error) {
	rec, err := o.storage.ResetIfStale(ctx, userID)
	if err != nil {
		return nil, err
	}

	statuses, subscribed := o.snapshot(ctx, userID)
	return &Quote{
		Usage:      *rec,
		Limits:     LimitsFor(o.cfg, subscribed),
		Channels:   statuses,
		Subscribed: subscribed,
	}, nil
}

// Download runs one request through the full state machine: consume the
// ticket, validate quota, acquire a slot, resolve the artifact, deliver it,
// record usage and clean up. The slot is released and the ticket stays
// consumed on every exit path.
func (o *Orchestrator) Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	reqID := uuid.NewString()
	log := o.cfg.Logger

	url, err := o.tickets.Take(req.TicketID)
	if err != nil {
		o.cfg.Metrics.RecordRejection(string(req.Kind), "stale_ticket")
		return nil, err
	}

	rec, err := o.storage.ResetIfStale(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	_, subscribed := o.snapshot(ctx, req.UserID)
	limits := LimitsFor(o.cfg, subscribed)
	if !Allowed(rec, req.Kind, limits) {
		o.cfg.Metrics.RecordRejection(string(req.Kind), "quota_exceeded")
		log.Info("quota exhausted",
			Field{"request_id", reqID},
			Field{"user_id", req.UserID},
			Field{"kind", string(req.Kind)},
			Field{"limit", limits.For(req.Kind)},
		)
		return nil, &QuotaError{Kind: req.Kind, Limit: limits.For(req.Kind)}
	}

	if err := o.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer func() {
		o.gate.Release()
		o.cfg.Metrics.SetInFlight(o.gate.InFlight())
	}()
	o.cfg.Metrics.RecordAdmission(string(req.Kind))
	o.cfg.Metrics.SetInFlight(o.gate.InFlight())

	if req.OnAdmitted != nil {
		req.OnAdmitted(o.gate.InFlight(), o.gate.Capacity())
	}

	log.Info("resolving",
		Field{"request_id", reqID},
		Field{"user_id", req.UserID},
		Field{"kind", string(req.Kind)},
		Field{"url", url},
	)

	start := time.Now()
	artifact, err := o.resolver.Resolve(ctx, url, req.Kind)
	if err != nil {
		o.cfg.Metrics.RecordResolve(resolveOutcome(err), time.Since(start))
		o.cfg.Metrics.RecordRejection(string(req.Kind), resolveOutcome(err))
		if errors.Is(err, ErrArtifactNotLocated) {
			// Naming-prediction defect, not a download failure. Logged loudly
			// so rising rates are visible when the tool's naming changes.
			log.Error("artifact not located after extraction",
				Field{"request_id", reqID},
				Field{"url", url},
				Field{"error", err.Error()},
			)
		} else {
			log.Warn("resolution failed",
				Field{"request_id", reqID},
				Field{"url", url},
				Field{"error", err.Error()},
			)
		}
		return nil, err
	}
	o.cfg.Metrics.RecordResolve("ok", time.Since(start))

	if err := o.deliver.Deliver(ctx, req.ChatID, req.Kind, artifact.Path); err != nil {
		o.cfg.Metrics.RecordDelivery(string(req.Kind), false)
		o.cfg.Metrics.RecordRejection(string(req.Kind), "delivery_failed")
		log.Error("delivery failed",
			Field{"request_id", reqID},
			Field{"path", artifact.Path},
			Field{"error", err.Error()},
		)
		return nil, ErrDeliveryFailed
	}
	o.cfg.Metrics.RecordDelivery(string(req.Kind), true)

	// Delivered: count the download exactly once, then drop the artifact.
	if err := o.storage.RecordDownload(ctx, req.UserID, req.Kind); err != nil {
		log.Error("usage increment failed",
			Field{"request_id", reqID},
			Field{"user_id", req.UserID},
			Field{"error", err.Error()},
		)
	}
	if err := os.Remove(artifact.Path); err != nil {
		log.Warn("artifact cleanup failed",
			Field{"request_id", reqID},
			Field{"path", artifact.Path},
			Field{"error", err.Error()},
		)
	}

	log.Info("delivered",
		Field{"request_id", reqID},
		Field{"user_id", req.UserID},
		Field{"kind", string(req.Kind)},
		Field{"title", artifact.Title},
	)

	return &DownloadResult{URL: url, Title: artifact.Title, Size: artifact.Size}, nil
}

// snapshot queries every configured channel, degrading per-channel failures
// to "not subscribed".
func (o *Orchestrator) snapshot(ctx context.Context, userID string) ([]ChannelStatus, int) {
	statuses := make([]ChannelStatus, 0, len(o.cfg.Channels))
	count := 0
	for _, ch := range o.cfg.Channels {
		ok, err := o.oracle.IsSubscribed(ctx, ch, userID)
		if err != nil {
			o.cfg.Logger.Warn("subscription check failed",
				Field{"channel", ch},
				Field{"user_id", userID},
				Field{"error", err.Error()},
			)
			ok = false
		}
		if ok {
			count++
		}
		statuses = append(statuses, ChannelStatus{Channel: ch, Subscribed: ok})
	}
	return statuses, count
}

func resolveOutcome(err error) string {
	switch {
	case errors.Is(err, ErrArtifactNotLocated):
		return "artifact_not_located"
	case errors.Is(err, ErrArtifactInvalid):
		return "artifact_invalid"
	default:
		return "extraction_failed"
	}
}
