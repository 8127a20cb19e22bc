package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_HTTP(t *testing.T) {
	payload := []byte("%PDF-1.4 remote document")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := New(Options{HTTPTimeout: 5 * time.Second})
	name, data, err := f.Fetch(context.Background(), srv.URL+"/docs/report.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", name)
	assert.Equal(t, payload, data)
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(Options{})
	_, _, err := f.Fetch(context.Background(), srv.URL+"/missing.pdf", "")
	assert.Error(t, err)
}

func TestFetch_File(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "local.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF local"), 0o644))

	f := New(Options{})
	name, data, err := f.Fetch(context.Background(), "file://"+p, "")
	require.NoError(t, err)
	assert.Equal(t, "local.pdf", name)
	assert.Equal(t, []byte("%PDF local"), data)
}

func TestFetch_StripsPageFragment(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "frag.pdf")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	f := New(Options{})
	name, _, err := f.Fetch(context.Background(), "file://"+p+"#page=3", "")
	require.NoError(t, err)
	assert.Equal(t, "frag.pdf", name)
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	f := New(Options{})
	_, _, err := f.Fetch(context.Background(), "ftp://host/doc.pdf", "")
	assert.Error(t, err)
}

func TestFetch_MaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f := New(Options{MaxBytes: 1024})
	_, _, err := f.Fetch(context.Background(), srv.URL+"/big.pdf", "")
	assert.Error(t, err)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "report.pdf", baseName("https://host/a/b/report.pdf"))
	assert.Equal(t, "key.pdf", baseName("s3://bucket/prefix/key.pdf"))
	assert.Equal(t, "plain.pdf", baseName("file:///tmp/plain.pdf"))
	assert.Equal(t, "", baseName("https://host/"))
}
