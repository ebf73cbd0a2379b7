package admission

import "context"

// SubscriptionOracle answers whether a user currently belongs to a channel.
// A lookup failure is degraded to "not subscribed" for that channel by the
// caller; it is never surfaced to the user.
type SubscriptionOracle interface {
	IsSubscribed(ctx context.Context, channel, userID string) (bool, error)
}
