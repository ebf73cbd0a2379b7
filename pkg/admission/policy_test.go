package admission_test

import (
	"testing"

	"github.com/glagena/gladownloader/pkg/admission"
)

func testConfig() admission.Config {
	return admission.Config{
		BaseVideoLimit:  7,
		BaseAudioLimit:  15,
		BonusPerChannel: 4,
		Channels:        []string{"@chan1", "@chan2"},
	}
}

func TestLimitsFor(t *testing.T) {
	cfg := testConfig()

	limits := admission.LimitsFor(cfg, 0)
	if limits.Video != 7 || limits.Audio != 15 {
		t.Errorf("expected base limits 7/15, got %d/%d", limits.Video, limits.Audio)
	}

	// Fully subscribed: both limits gain bonus * channels.
	limits = admission.LimitsFor(cfg, 2)
	if limits.Video != 15 {
		t.Errorf("expected video limit 15, got %d", limits.Video)
	}
	if limits.Audio != 23 {
		t.Errorf("expected audio limit 23, got %d", limits.Audio)
	}
}

func TestLimitsFor_LinearBonus(t *testing.T) {
	cfg := testConfig()

	prev := admission.LimitsFor(cfg, 0)
	for subs := 1; subs <= len(cfg.Channels); subs++ {
		cur := admission.LimitsFor(cfg, subs)
		if cur.Video-prev.Video != cfg.BonusPerChannel {
			t.Errorf("subs=%d: video step %d, want %d", subs, cur.Video-prev.Video, cfg.BonusPerChannel)
		}
		if cur.Audio-prev.Audio != cfg.BonusPerChannel {
			t.Errorf("subs=%d: audio step %d, want %d", subs, cur.Audio-prev.Audio, cfg.BonusPerChannel)
		}
		prev = cur
	}
}

func TestAllowed_EqualityExhausts(t *testing.T) {
	limits := admission.Limits{Video: 2, Audio: 1}

	rec := &admission.UsageRecord{Video: 1, Audio: 0}
	if !admission.Allowed(rec, admission.KindVideo, limits) {
		t.Error("usage below limit should be allowed")
	}

	rec = &admission.UsageRecord{Video: 2, Audio: 1}
	if admission.Allowed(rec, admission.KindVideo, limits) {
		t.Error("usage equal to limit should be rejected")
	}
	if admission.Allowed(rec, admission.KindAudio, limits) {
		t.Error("usage equal to limit should be rejected")
	}
}

func TestRemaining(t *testing.T) {
	limits := admission.Limits{Video: 7, Audio: 15}

	rec := &admission.UsageRecord{Video: 3, Audio: 15}
	if got := admission.Remaining(rec, admission.KindVideo, limits); got != 4 {
		t.Errorf("expected 4 remaining, got %d", got)
	}
	if got := admission.Remaining(rec, admission.KindAudio, limits); got != 0 {
		t.Errorf("expected 0 remaining, got %d", got)
	}

	// Over-limit usage (accepted race) never reports negative.
	rec = &admission.UsageRecord{Video: 9}
	if got := admission.Remaining(rec, admission.KindVideo, limits); got != 0 {
		t.Errorf("expected 0 remaining, got %d", got)
	}
}
