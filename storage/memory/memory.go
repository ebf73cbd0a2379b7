// Package memory provides an in-memory implementation of the
// admission.Storage interface, primarily intended for testing and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/glagena/gladownloader/pkg/admission"
)

// Storage implements admission.Storage using in-memory maps.
type Storage struct {
	mu      sync.RWMutex
	records map[string]*admission.UsageRecord
}

// New creates a new in-memory storage adapter.
func New() *Storage {
	return &Storage{records: make(map[string]*admission.UsageRecord)}
}

// GetUsage implements admission.Storage.
func (s *Storage) GetUsage(ctx context.Context, userID string) (*admission.UsageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return &admission.UsageRecord{UserID: userID, LastReset: admission.Today()}, nil
	}

	// Return a copy to prevent external mutations.
	recCopy := *rec
	return &recCopy, nil
}

// ResetIfStale implements admission.Storage.
func (s *Storage) ResetIfStale(ctx context.Context, userID string) (*admission.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := admission.Today()
	rec, ok := s.records[userID]
	if !ok {
		rec = &admission.UsageRecord{UserID: userID, LastReset: today}
		s.records[userID] = rec
	} else if rec.LastReset != today {
		rec.Video = 0
		rec.Audio = 0
		rec.LastReset = today
	}

	recCopy := *rec
	return &recCopy, nil
}

// RecordDownload implements admission.Storage.
func (s *Storage) RecordDownload(ctx context.Context, userID string, kind admission.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		rec = &admission.UsageRecord{UserID: userID, LastReset: admission.Today()}
		s.records[userID] = rec
	}

	if kind == admission.KindAudio {
		rec.Audio++
	} else {
		rec.Video++
	}
	return nil
}

// SetDisplayName implements admission.Storage.
func (s *Storage) SetDisplayName(ctx context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		rec = &admission.UsageRecord{UserID: userID, LastReset: admission.Today()}
		s.records[userID] = rec
	}
	rec.DisplayName = name
	return nil
}

// ListUsers implements admission.Storage.
func (s *Storage) ListUsers(ctx context.Context) ([]admission.UserInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]admission.UserInfo, 0, len(s.records))
	for id, rec := range s.records {
		users = append(users, admission.UserInfo{ID: id, DisplayName: rec.DisplayName})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Close implements admission.Storage.
func (s *Storage) Close() error { return nil }

// Clear removes all data (useful for testing).
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*admission.UsageRecord)
}
