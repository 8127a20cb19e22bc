package session_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/alternator/internal/interleave"
	"github.com/local/alternator/internal/pdf"
	"github.com/local/alternator/internal/pdftest"
	"github.com/local/alternator/internal/session"
)

func newManager(t *testing.T, ttl time.Duration) *session.Manager {
	t.Helper()
	m, err := session.NewManager(t.TempDir(), ttl)
	require.NoError(t, err)
	return m
}

func loadFixture(t *testing.T, pages int, name string) *pdf.Document {
	t.Helper()
	doc, err := pdf.Load(pdftest.MakePDF(pages), name)
	require.NoError(t, err)
	return doc
}

func spoolArtifact(t *testing.T, m *session.Manager) *session.Artifact {
	t.Helper()
	art, err := session.NewArtifact(m.SpoolDir(), &interleave.Artifact{
		Bytes:     []byte("%PDF-fake artifact payload"),
		PageCount: 5,
		Size:      26,
		Name:      "al-report.pdf",
	})
	require.NoError(t, err)
	return art
}

func TestSetSourceReleasesArtifact(t *testing.T) {
	m := newManager(t, time.Hour)
	sess := m.Get("")

	art := spoolArtifact(t, m)
	sess.SetArtifact(art)
	require.NotNil(t, sess.Artifact())

	sess.SetSource(session.SlotA, loadFixture(t, 1, "a.pdf"))

	assert.Nil(t, sess.Artifact(), "new source invalidates the artifact")
	assert.True(t, art.Released())
}

func TestClearSourceLeavesOtherSlotIntact(t *testing.T) {
	m := newManager(t, time.Hour)
	sess := m.Get("")

	sess.SetSource(session.SlotA, loadFixture(t, 2, "a.pdf"))
	sess.SetSource(session.SlotB, loadFixture(t, 3, "b.pdf"))
	sess.SetArtifact(spoolArtifact(t, m))

	sess.ClearSource(session.SlotA)

	assert.Nil(t, sess.Source(session.SlotA))
	b := sess.Source(session.SlotB)
	require.NotNil(t, b, "failing slot A must not touch slot B")
	assert.Equal(t, 3, b.PageCount())
	assert.Nil(t, sess.Artifact(), "stale artifact must not stay visible")
}

func TestMergeGateIsExclusive(t *testing.T) {
	m := newManager(t, time.Hour)
	sess := m.Get("")
	sess.SetSource(session.SlotA, loadFixture(t, 1, "a.pdf"))
	sess.SetSource(session.SlotB, loadFixture(t, 1, "b.pdf"))

	require.True(t, sess.TryBeginMerge())
	assert.True(t, sess.Merging())
	assert.False(t, sess.TryBeginMerge(), "re-trigger is rejected, not queued")

	sess.EndMerge()
	assert.False(t, sess.Merging())
	assert.True(t, sess.TryBeginMerge(), "gate reopens after completion")
	sess.EndMerge()
}

func TestTryBeginMergeRequiresBothSlots(t *testing.T) {
	m := newManager(t, time.Hour)
	sess := m.Get("")

	assert.False(t, sess.TryBeginMerge())

	sess.SetSource(session.SlotA, loadFixture(t, 1, "a.pdf"))
	assert.False(t, sess.TryBeginMerge(), "one loaded slot is not enough")
}

func TestTryBeginMergeClearsPriorArtifact(t *testing.T) {
	m := newManager(t, time.Hour)
	sess := m.Get("")
	sess.SetSource(session.SlotA, loadFixture(t, 1, "a.pdf"))
	sess.SetSource(session.SlotB, loadFixture(t, 1, "b.pdf"))

	art := spoolArtifact(t, m)
	sess.SetArtifact(art)

	require.True(t, sess.TryBeginMerge())
	defer sess.EndMerge()

	assert.Nil(t, sess.Artifact())
	assert.True(t, art.Released())
}

func TestArtifactReleaseIsIdempotent(t *testing.T) {
	m := newManager(t, time.Hour)
	art := spoolArtifact(t, m)

	f, err := art.Open()
	require.NoError(t, err)
	f.Close()

	art.Release()
	art.Release()

	_, err = art.Open()
	assert.Error(t, err, "released artifact is gone")
}

func TestSetArtifactReleasesPrevious(t *testing.T) {
	m := newManager(t, time.Hour)
	sess := m.Get("")

	first := spoolArtifact(t, m)
	second := spoolArtifact(t, m)

	sess.SetArtifact(first)
	sess.SetArtifact(second)

	assert.True(t, first.Released())
	assert.False(t, second.Released())
	assert.Same(t, second, sess.Artifact())
}

func TestManagerGetCreatesAndReuses(t *testing.T) {
	m := newManager(t, time.Hour)

	s1 := m.Get("")
	require.NotEmpty(t, s1.ID)

	s2 := m.Get(s1.ID)
	assert.Same(t, s1, s2)

	s3 := m.Get("unknown-id")
	assert.NotSame(t, s1, s3)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	m := newManager(t, time.Millisecond)
	sess := m.Get("")
	art := spoolArtifact(t, m)
	sess.SetArtifact(art)

	time.Sleep(10 * time.Millisecond)
	evicted := m.Sweep()

	assert.Equal(t, 1, evicted)
	assert.True(t, art.Released())
	assert.NotSame(t, sess, m.Get(sess.ID), "evicted id yields a fresh session")
}

func TestCleanupSpoolRemovesOnlyStaleArtifacts(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "alternator-stale.pdf")
	fresh := filepath.Join(dir, "alternator-fresh.pdf")
	other := filepath.Join(dir, "unrelated.txt")
	for _, p := range []string{stale, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))
	require.NoError(t, os.Chtimes(other, old, old))

	session.CleanupSpool(dir, time.Hour)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other, "non-spool files are never touched")
}
