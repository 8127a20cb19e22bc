package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/alternator/internal/pdf"
)

// Slot is one of the two source positions.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

// ParseSlot validates a slot path segment.
func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotA, SlotB:
		return Slot(s), nil
	}
	return "", fmt.Errorf("unknown slot %q", s)
}

// Session holds the per-browser state: up to two loaded source documents,
// at most one live artifact, and the single-merge gate.
type Session struct {
	ID string

	mu       sync.Mutex
	docs     map[Slot]*pdf.Document
	artifact *Artifact
	lastSeen time.Time

	// capacity-1 semaphore: holding the token means a merge is in flight
	mergeGate chan struct{}
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		docs:      map[Slot]*pdf.Document{},
		lastSeen:  time.Now(),
		mergeGate: make(chan struct{}, 1),
	}
}

// SetSource replaces the document in slot wholesale. Any current artifact no
// longer matches the sources and is released immediately.
func (s *Session) SetSource(slot Slot, doc *pdf.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[slot] = doc
	s.clearArtifactLocked()
	s.lastSeen = time.Now()
}

// ClearSource empties a slot, releasing the artifact. The other slot is
// untouched.
func (s *Session) ClearSource(slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, slot)
	s.clearArtifactLocked()
	s.lastSeen = time.Now()
}

// Source returns the document currently held in slot, or nil.
func (s *Session) Source(slot Slot) *pdf.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[slot]
}

// Sources returns both slots at once, under one lock acquisition, so a merge
// sees a consistent pair.
func (s *Session) Sources() (a, b *pdf.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[SlotA], s.docs[SlotB]
}

// Ready reports whether both slots are loaded.
func (s *Session) Ready() bool {
	a, b := s.Sources()
	return a != nil && b != nil
}

// TryBeginMerge reserves the merge gate. It fails, rather than queueing, when
// a merge is already running or the slots are not both loaded. A successful
// reservation clears the current artifact before any work starts.
func (s *Session) TryBeginMerge() bool {
	s.mu.Lock()
	if s.docs[SlotA] == nil || s.docs[SlotB] == nil {
		s.mu.Unlock()
		return false
	}
	s.lastSeen = time.Now()
	s.mu.Unlock()

	select {
	case s.mergeGate <- struct{}{}:
	default:
		return false
	}

	s.mu.Lock()
	s.clearArtifactLocked()
	s.mu.Unlock()
	return true
}

// EndMerge releases the merge gate. It must be called exactly once per
// successful TryBeginMerge, on success and failure alike.
func (s *Session) EndMerge() {
	select {
	case <-s.mergeGate:
	default:
		log.Warn().Str("session", s.ID).Msg("EndMerge without matching TryBeginMerge")
	}
}

// Merging reports whether a merge currently holds the gate.
func (s *Session) Merging() bool { return len(s.mergeGate) > 0 }

// SetArtifact installs the merge result, releasing any artifact installed in
// the meantime.
func (s *Session) SetArtifact(a *Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearArtifactLocked()
	s.artifact = a
	s.lastSeen = time.Now()
}

// Artifact returns the current artifact, or nil.
func (s *Session) Artifact() *Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

func (s *Session) clearArtifactLocked() {
	if s.artifact != nil {
		s.artifact.Release()
		s.artifact = nil
	}
}

// release drops all session state including the artifact spool file.
func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = map[Slot]*pdf.Document{}
	s.clearArtifactLocked()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager owns all live sessions and the artifact spool directory.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	spoolDir string
	ttl      time.Duration
}

// NewManager creates a Manager spooling artifacts under dir. Sessions idle
// longer than ttl are evicted by Sweep.
func NewManager(dir string, ttl time.Duration) (*Manager, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &Manager{
		sessions: map[string]*Session{},
		spoolDir: dir,
		ttl:      ttl,
	}, nil
}

// Get returns the session for id, creating one when id is empty or unknown.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != "" {
		if s, ok := m.sessions[id]; ok {
			return s
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	s := newSession(id)
	m.sessions[id] = s
	return s
}

// SpoolDir returns the artifact spool directory.
func (m *Manager) SpoolDir() string { return m.spoolDir }

// Sweep evicts idle sessions and releases their resources.
func (m *Manager) Sweep() int {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) && !s.Merging() {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.release()
	}
	if len(stale) > 0 {
		log.Info().Int("evicted", len(stale)).Msg("session sweep")
	}
	return len(stale)
}

// StartSweeper runs Sweep on a ticker until stop is closed.
func (m *Manager) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				m.Sweep()
			}
		}
	}()
}
