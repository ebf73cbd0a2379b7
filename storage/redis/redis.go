// Package redis provides a Redis implementation of the admission.Storage
// interface. The daily reset uses a Lua script so the date comparison and the
// counter reset happen as a single atomic update.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/glagena/gladownloader/pkg/admission"
)

// Storage implements admission.Storage using Redis.
type Storage struct {
	client      redis.UniversalClient
	config      Config
	resetScript *redis.Script
}

// Config holds Redis storage configuration.
type Config struct {
	// KeyPrefix is prepended to all Redis keys (default: "gladl:").
	KeyPrefix string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{KeyPrefix: "gladl:"}
}

// New creates a new Redis storage adapter.
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring.
func New(client redis.UniversalClient, config Config) (*Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "gladl:"
	}

	return &Storage{
		client: client,
		config: config,
		// Reset counters iff the stored date differs from today.
		resetScript: redis.NewScript(`
			local key = KEYS[1]
			local today = ARGV[1]
			local stored = redis.call('HGET', key, 'last_reset')
			if stored ~= today then
				redis.call('HSET', key, 'video', 0, 'audio', 0, 'last_reset', today)
			end
			return redis.call('HMGET', key, 'video', 'audio', 'last_reset', 'name')
		`),
	}, nil
}

func (s *Storage) usageKey(userID string) string {
	return s.config.KeyPrefix + "usage:" + userID
}

func (s *Storage) usersKey() string {
	return s.config.KeyPrefix + "users"
}

func parseRecord(userID string, vals []interface{}) *admission.UsageRecord {
	rec := &admission.UsageRecord{UserID: userID}
	str := func(i int) string {
		if i < len(vals) && vals[i] != nil {
			if v, ok := vals[i].(string); ok {
				return v
			}
		}
		return ""
	}
	fmt.Sscanf(str(0), "%d", &rec.Video)
	fmt.Sscanf(str(1), "%d", &rec.Audio)
	rec.LastReset = str(2)
	rec.DisplayName = str(3)
	return rec
}

// GetUsage implements admission.Storage.
func (s *Storage) GetUsage(ctx context.Context, userID string) (*admission.UsageRecord, error) {
	vals, err := s.client.HMGet(ctx, s.usageKey(userID), "video", "audio", "last_reset", "name").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}

	rec := parseRecord(userID, vals)
	if rec.LastReset == "" {
		rec.LastReset = admission.Today()
	}
	return rec, nil
}

// ResetIfStale implements admission.Storage.
func (s *Storage) ResetIfStale(ctx context.Context, userID string) (*admission.UsageRecord, error) {
	res, err := s.resetScript.Run(ctx, s.client, []string{s.usageKey(userID)}, admission.Today()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reset usage: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected reset script result %T", res)
	}
	if err := s.client.SAdd(ctx, s.usersKey(), userID).Err(); err != nil {
		return nil, fmt.Errorf("failed to index user: %w", err)
	}
	return parseRecord(userID, vals), nil
}

// RecordDownload implements admission.Storage.
func (s *Storage) RecordDownload(ctx context.Context, userID string, kind admission.Kind) error {
	field := "video"
	if kind == admission.KindAudio {
		field = "audio"
	}
	if err := s.client.HIncrBy(ctx, s.usageKey(userID), field, 1).Err(); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// SetDisplayName implements admission.Storage.
func (s *Storage) SetDisplayName(ctx context.Context, userID, name string) error {
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.usageKey(userID), "name", name)
	pipe.SAdd(ctx, s.usersKey(), userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set display name: %w", err)
	}
	return nil
}

// ListUsers implements admission.Storage.
func (s *Storage) ListUsers(ctx context.Context) ([]admission.UserInfo, error) {
	ids, err := s.client.SMembers(ctx, s.usersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]admission.UserInfo, 0, len(ids))
	for _, id := range ids {
		name, err := s.client.HGet(ctx, s.usageKey(id), "name").Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("failed to read display name: %w", err)
		}
		users = append(users, admission.UserInfo{ID: id, DisplayName: name})
	}
	return users, nil
}

// Close implements admission.Storage.
func (s *Storage) Close() error {
	return s.client.Close()
}
