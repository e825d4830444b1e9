package services

import (
	"errors"
	"os"
	"path/filepath"
	"resonance/types"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeExtractor returns canned metadata keyed by file base name
type fakeExtractor struct {
	mu       sync.Mutex
	metadata map[string]*Metadata
	failures map[string]error
	calls    []string
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		metadata: make(map[string]*Metadata),
		failures: make(map[string]error),
	}
}

func (f *fakeExtractor) Extract(path string) (*Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := filepath.Base(path)
	f.calls = append(f.calls, base)

	if err, ok := f.failures[base]; ok {
		return nil, &MetadataExtractionError{Path: path, Err: err}
	}
	if m, ok := f.metadata[base]; ok {
		return m, nil
	}
	return &Metadata{}, nil
}

var errCorrupt = errors.New("corrupt header")

// writeFiles creates each relative path under dir with a few bytes of content
func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0644))
	}
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func intPtr(v int) *int {
	return &v
}

func track(path, name, artist, album string) types.Track {
	return types.Track{
		ID:     TrackID(path),
		Path:   path,
		Name:   name,
		Artist: artist,
		Album:  album,
		Genre:  types.UnknownGenre,
	}
}

func paths(tracks []types.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Path
	}
	return out
}
