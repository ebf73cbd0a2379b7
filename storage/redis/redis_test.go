package redis

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/glagena/gladownloader/pkg/admission"
)

// setupTestRedis creates a Redis client for testing.
// Requires Redis running on localhost:6379.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use DB 15 for testing
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	// Clear test database
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test database: %v", err)
	}

	return client
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		client  redis.UniversalClient
		config  Config
		wantErr bool
	}{
		{
			name:    "nil client",
			client:  nil,
			config:  DefaultConfig(),
			wantErr: true,
		},
		{
			name:    "valid client with default config",
			client:  redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "empty key prefix uses default",
			client:  redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
			config:  Config{KeyPrefix: ""},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := New(tt.client, tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && storage == nil {
				t.Error("New() returned nil storage without error")
			}
		})
	}
}

func TestRecordAndGetUsage(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	storage, err := New(client, DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()

	if err := storage.RecordDownload(ctx, "user1", admission.KindVideo); err != nil {
		t.Fatalf("RecordDownload failed: %v", err)
	}
	if err := storage.RecordDownload(ctx, "user1", admission.KindAudio); err != nil {
		t.Fatalf("RecordDownload failed: %v", err)
	}
	if err := storage.RecordDownload(ctx, "user1", admission.KindAudio); err != nil {
		t.Fatalf("RecordDownload failed: %v", err)
	}

	rec, err := storage.GetUsage(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUsage failed: %v", err)
	}
	if rec.Video != 1 {
		t.Errorf("Video = %d, want 1", rec.Video)
	}
	if rec.Audio != 2 {
		t.Errorf("Audio = %d, want 2", rec.Audio)
	}
}

func TestGetUsage_UnknownUser(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	storage, err := New(client, DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	rec, err := storage.GetUsage(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetUsage failed: %v", err)
	}
	if rec.Video != 0 || rec.Audio != 0 {
		t.Errorf("Counters = %d/%d, want 0/0", rec.Video, rec.Audio)
	}
	if rec.LastReset != admission.Today() {
		t.Errorf("LastReset = %q, want today", rec.LastReset)
	}
}

func TestResetIfStale(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	storage, err := New(client, DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()

	if err := storage.RecordDownload(ctx, "user1", admission.KindVideo); err != nil {
		t.Fatalf("RecordDownload failed: %v", err)
	}
	// Backdate the stored record so the next reset fires.
	if err := client.HSet(ctx, storage.usageKey("user1"), "last_reset", "2020-01-01").Err(); err != nil {
		t.Fatalf("Failed to backdate record: %v", err)
	}

	rec, err := storage.ResetIfStale(ctx, "user1")
	if err != nil {
		t.Fatalf("ResetIfStale failed: %v", err)
	}
	if rec.Video != 0 || rec.Audio != 0 {
		t.Errorf("Counters after reset = %d/%d, want 0/0", rec.Video, rec.Audio)
	}
	if rec.LastReset != admission.Today() {
		t.Errorf("LastReset = %q, want today", rec.LastReset)
	}
}

func TestResetIfStale_SameDayKeepsCounters(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	storage, err := New(client, DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()

	if _, err := storage.ResetIfStale(ctx, "user1"); err != nil {
		t.Fatalf("ResetIfStale failed: %v", err)
	}
	if err := storage.RecordDownload(ctx, "user1", admission.KindAudio); err != nil {
		t.Fatalf("RecordDownload failed: %v", err)
	}

	rec, err := storage.ResetIfStale(ctx, "user1")
	if err != nil {
		t.Fatalf("ResetIfStale failed: %v", err)
	}
	if rec.Audio != 1 {
		t.Errorf("Audio = %d, want 1 (same-day reset must not clear counters)", rec.Audio)
	}
}

func TestSetDisplayNameAndListUsers(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	storage, err := New(client, DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()

	if err := storage.SetDisplayName(ctx, "user1", "@alpha"); err != nil {
		t.Fatalf("SetDisplayName failed: %v", err)
	}
	if err := storage.SetDisplayName(ctx, "user2", "@beta"); err != nil {
		t.Fatalf("SetDisplayName failed: %v", err)
	}

	users, err := storage.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("ListUsers returned %d users, want 2", len(users))
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	if names["user1"] != "@alpha" || names["user2"] != "@beta" {
		t.Errorf("Display names = %v", names)
	}
}
