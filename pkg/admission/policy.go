package admission

// LimitsFor computes the per-kind daily limits for a user with the given
// number of subscribed channels. The bonus is symmetric across kinds and
// scales linearly; it is recomputed fresh on every request, so a user's
// limits can change between requests as they subscribe or unsubscribe.
func LimitsFor(cfg Config, subscribed int) Limits {
	bonus := cfg.BonusPerChannel * subscribed
	return Limits{
		Video: cfg.BaseVideoLimit + bonus,
		Audio: cfg.BaseAudioLimit + bonus,
	}
}

// Allowed reports whether one more download of the given kind fits the limit.
// Equality counts as exhausted.
func Allowed(rec *UsageRecord, kind Kind, limits Limits) bool {
	return rec.Count(kind) < limits.For(kind)
}

// Remaining returns how many more downloads of the kind the user may make
// today. Never negative.
func Remaining(rec *UsageRecord, kind Kind, limits Limits) int {
	left := limits.For(kind) - rec.Count(kind)
	if left < 0 {
		return 0
	}
	return left
}
