package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/alternator/internal/interleave"
)

// spoolPrefix names artifact files so the stale sweep can target them.
const spoolPrefix = "alternator-"

// Artifact is the downloadable merge result, spooled to disk so Release has a
// concrete OS resource to reclaim. At most one Artifact per session is live.
type Artifact struct {
	Name      string
	PageCount int
	Size      int64
	CreatedAt time.Time

	mu       sync.Mutex
	path     string
	released bool
}

// NewArtifact spools the merge output into dir and returns the handle.
func NewArtifact(dir string, art *interleave.Artifact) (*Artifact, error) {
	f, err := os.CreateTemp(dir, spoolPrefix+"*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create artifact spool: %w", err)
	}
	if _, err := f.Write(art.Bytes); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write artifact spool: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close artifact spool: %w", err)
	}
	return &Artifact{
		Name:      art.Name,
		PageCount: art.PageCount,
		Size:      art.Size,
		CreatedAt: time.Now(),
		path:      f.Name(),
	}, nil
}

// Open returns a reader over the spooled bytes. Fails after Release.
func (a *Artifact) Open() (*os.File, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return nil, fmt.Errorf("artifact %s already released", a.Name)
	}
	return os.Open(a.path)
}

// Release removes the spool file. Safe to call more than once.
func (a *Artifact) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return
	}
	a.released = true
	if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", a.path).Msg("artifact spool removal failed")
	}
}

// Released reports whether the spool file has been reclaimed.
func (a *Artifact) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create spool dir: %w", err)
	}
	return nil
}

// CleanupSpool removes spooled artifact files older than maxAge. Orphans can
// survive a crash; the sweep keeps the spool dir bounded.
func CleanupSpool(dir string, maxAge time.Duration) {
	now := time.Now()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), spoolPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) >= maxAge {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}
