// Package file provides a JSON-snapshot implementation of the
// admission.Storage interface. The whole store is read once at startup and
// rewritten on every mutation. An unreadable or corrupt snapshot falls back
// to an empty store instead of failing startup.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/glagena/gladownloader/pkg/admission"
)

// record is the on-disk shape of one user's counters. DisplayName is optional
// and tolerated missing at load time.
type record struct {
	Video       int    `json:"video"`
	Audio       int    `json:"audio"`
	LastReset   string `json:"last_reset"`
	DisplayName string `json:"name,omitempty"`
}

// Storage implements admission.Storage over a single JSON file.
type Storage struct {
	mu      sync.Mutex
	path    string
	records map[string]*record
	log     admission.Logger
}

// New loads the snapshot at path, creating parent directories as needed.
func New(path string, log admission.Logger) (*Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if log == nil {
		log = &admission.NoopLogger{}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	s := &Storage{
		path:    path,
		records: make(map[string]*record),
		log:     log,
	}
	s.load()
	return s, nil
}

// load reads the snapshot. Corruption falls back to an empty store.
func (s *Storage) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("usage snapshot unreadable, starting empty",
				admission.Field{Key: "path", Value: s.path},
				admission.Field{Key: "error", Value: err.Error()},
			)
		}
		return
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		s.log.Warn("usage snapshot corrupt, starting empty",
			admission.Field{Key: "path", Value: s.path},
			admission.Field{Key: "error", Value: err.Error()},
		)
		s.records = make(map[string]*record)
	}
}

// save writes the whole snapshot. Called with s.mu held.
func (s *Storage) save() error {
	data, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// Write-then-rename keeps the previous snapshot intact if the write dies.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

func (s *Storage) toUsage(userID string, rec *record) *admission.UsageRecord {
	return &admission.UsageRecord{
		UserID:      userID,
		Video:       rec.Video,
		Audio:       rec.Audio,
		LastReset:   rec.LastReset,
		DisplayName: rec.DisplayName,
	}
}

// GetUsage implements admission.Storage.
func (s *Storage) GetUsage(ctx context.Context, userID string) (*admission.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return &admission.UsageRecord{UserID: userID, LastReset: admission.Today()}, nil
	}
	return s.toUsage(userID, rec), nil
}

// ResetIfStale implements admission.Storage.
func (s *Storage) ResetIfStale(ctx context.Context, userID string) (*admission.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := admission.Today()
	rec, ok := s.records[userID]
	switch {
	case !ok:
		rec = &record{LastReset: today}
		s.records[userID] = rec
	case rec.LastReset != today:
		rec.Video = 0
		rec.Audio = 0
		rec.LastReset = today
	default:
		return s.toUsage(userID, rec), nil
	}

	if err := s.save(); err != nil {
		return nil, err
	}
	return s.toUsage(userID, rec), nil
}

// RecordDownload implements admission.Storage.
func (s *Storage) RecordDownload(ctx context.Context, userID string, kind admission.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		rec = &record{LastReset: admission.Today()}
		s.records[userID] = rec
	}
	if kind == admission.KindAudio {
		rec.Audio++
	} else {
		rec.Video++
	}
	return s.save()
}

// SetDisplayName implements admission.Storage.
func (s *Storage) SetDisplayName(ctx context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		rec = &record{LastReset: admission.Today()}
		s.records[userID] = rec
	}
	if rec.DisplayName == name {
		return nil
	}
	rec.DisplayName = name
	return s.save()
}

// ListUsers implements admission.Storage.
func (s *Storage) ListUsers(ctx context.Context) ([]admission.UserInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]admission.UserInfo, 0, len(s.records))
	for id, rec := range s.records {
		users = append(users, admission.UserInfo{ID: id, DisplayName: rec.DisplayName})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Close implements admission.Storage.
func (s *Storage) Close() error { return nil }
