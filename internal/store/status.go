package store

import (
	"context"
	"sync"
	"time"
)

// Merge lifecycle states recorded per session.
const (
	StateIdle    = "idle"
	StateMerging = "merging"
	StateSuccess = "success"
	StateError   = "error"
)

// Status is the recorded outcome of the most recent merge for a session.
type Status struct {
	State    string                 `json:"state"`
	Message  string                 `json:"message"`
	Start    *time.Time             `json:"start_time,omitempty"`
	End      *time.Time             `json:"end_time,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// StatusStore persists merge statuses keyed by session ID.
type StatusStore interface {
	Set(ctx context.Context, sessionID string, st Status) error
	Get(ctx context.Context, sessionID string) (Status, bool, error)
	Close() error
}

// MemoryStatus is the in-process default backend.
type MemoryStatus struct {
	mu sync.RWMutex
	m  map[string]Status
}

// NewMemoryStatus creates an empty in-memory status store.
func NewMemoryStatus() *MemoryStatus {
	return &MemoryStatus{m: map[string]Status{}}
}

func (s *MemoryStatus) Set(_ context.Context, sessionID string, st Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sessionID] = st
	return nil
}

func (s *MemoryStatus) Get(_ context.Context, sessionID string) (Status, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.m[sessionID]
	return st, ok, nil
}

func (s *MemoryStatus) Delete(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, sessionID)
}

func (s *MemoryStatus) Close() error { return nil }
