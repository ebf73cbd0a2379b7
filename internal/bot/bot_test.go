package bot

import (
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/glagena/gladownloader/pkg/admission"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "quota exceeded shows the limit",
			err:  &admission.QuotaError{Kind: admission.KindAudio, Limit: 15},
			want: "15/15",
		},
		{
			name: "wrapped quota error still matches",
			err:  &admission.QuotaError{Kind: admission.KindVideo, Limit: 7},
			want: "7/7",
		},
		{
			name: "stale ticket",
			err:  admission.ErrTicketNotFound,
			want: "expired",
		},
		{
			name: "extraction failure",
			err:  admission.ErrExtractionFailed,
			want: "Could not download",
		},
		{
			name: "broken artifact",
			err:  admission.ErrArtifactInvalid,
			want: "broken",
		},
		{
			name: "delivery failure",
			err:  admission.ErrDeliveryFailed,
			want: "Could not send",
		},
		{
			name: "artifact not located stays generic",
			err:  admission.ErrArtifactNotLocated,
			want: "Something went wrong",
		},
		{
			name: "unknown error stays generic",
			err:  errors.New("boom"),
			want: "Something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := userMessage(tt.err)
			if !strings.Contains(got, tt.want) {
				t.Errorf("userMessage(%v) = %q, want it to contain %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestUserMessage_QuotaErrorIsQuotaExceeded(t *testing.T) {
	// The taxonomy promises errors.Is compatibility; the message mapping
	// relies on errors.As picking the typed value out first.
	err := error(&admission.QuotaError{Kind: admission.KindVideo, Limit: 7})
	if !errors.Is(err, admission.ErrQuotaExceeded) {
		t.Fatal("QuotaError must match ErrQuotaExceeded")
	}
	if got := userMessage(err); !strings.Contains(got, "7/7") {
		t.Errorf("userMessage = %q, want the typed limit, not the generic quota text", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user *tgbotapi.User
		want string
	}{
		{
			name: "username wins",
			user: &tgbotapi.User{UserName: "someone", FirstName: "Ann"},
			want: "@someone",
		},
		{
			name: "falls back to full name",
			user: &tgbotapi.User{FirstName: "Ann", LastName: "Lee"},
			want: "Ann Lee",
		},
		{
			name: "first name only",
			user: &tgbotapi.User{FirstName: "Ann"},
			want: "Ann",
		},
		{
			name: "nil user",
			user: nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayName(tt.user); got != tt.want {
				t.Errorf("displayName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	// Format must survive ticket ids that are plain message ids.
	data := callbackPrefix + "audio_" + "123456"
	parts := strings.SplitN(data, "_", 3)
	if len(parts) != 3 {
		t.Fatalf("SplitN produced %d parts", len(parts))
	}
	if kind := admission.Kind(parts[1]); !kind.Valid() || kind != admission.KindAudio {
		t.Errorf("kind = %q", parts[1])
	}
	if parts[2] != "123456" {
		t.Errorf("ticket = %q", parts[2])
	}
}

func TestURLRegexp(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"check this https://youtu.be/abc out", "https://youtu.be/abc"},
		{"http://example.com/watch?v=1", "http://example.com/watch?v=1"},
		{"no link here", ""},
		{"ftp://example.com", ""},
	}

	for _, tt := range tests {
		if got := urlRegexp.FindString(tt.text); got != tt.want {
			t.Errorf("FindString(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
