package services

import (
	"context"
	"os"
	"path/filepath"
	"resonance/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanEnqueuer reports every requested root on a channel
type chanEnqueuer struct {
	roots chan string
}

func (q *chanEnqueuer) AddJob(rootPath string) types.ScanJob {
	q.roots <- rootPath
	return types.ScanJob{ID: "job", Root: rootPath, Status: types.JobStatusQueued}
}

func startWatcher(t *testing.T, roots ...string) (FolderWatcher, *chanEnqueuer) {
	t.Helper()
	queue := &chanEnqueuer{roots: make(chan string, 10)}

	w, err := NewFolderWatcher(queue, 50*time.Millisecond)
	require.NoError(t, err)
	for _, root := range roots {
		require.NoError(t, w.Watch(root))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	return w, queue
}

func expectRescan(t *testing.T, queue *chanEnqueuer, root string) {
	t.Helper()
	select {
	case got := <-queue.roots:
		assert.Equal(t, root, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("no rescan queued for %s", root)
	}
}

func expectNoRescan(t *testing.T, queue *chanEnqueuer) {
	t.Helper()
	select {
	case got := <-queue.roots:
		t.Fatalf("unexpected rescan of %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherQueuesRescanForNewAudio(t *testing.T) {
	root := t.TempDir()
	_, queue := startWatcher(t, root)

	writeFiles(t, root, "new.mp3")
	expectRescan(t, queue, root)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	_, queue := startWatcher(t, root)

	writeFiles(t, root, "1.mp3", "2.mp3", "3.flac")
	expectRescan(t, queue, root)
	expectNoRescan(t, queue)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	_, queue := startWatcher(t, root)

	writeFiles(t, root, "cover.jpg", "notes.txt")
	expectNoRescan(t, queue)
}

func TestWatcherFollowsNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	_, queue := startWatcher(t, root)

	require.NoError(t, os.Mkdir(filepath.Join(root, "album"), 0755))
	expectRescan(t, queue, root)

	// give the watcher time to register the new directory
	time.Sleep(100 * time.Millisecond)
	writeFiles(t, root, filepath.Join("album", "track.mp3"))
	expectRescan(t, queue, root)
}

func TestWatcherRejectsMissingRoot(t *testing.T) {
	w, err := NewFolderWatcher(&chanEnqueuer{roots: make(chan string, 1)}, 0)
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Watch(filepath.Join(t.TempDir(), "missing")))
	assert.Empty(t, w.Roots())
}

func TestWatcherRootsAreDeduplicated(t *testing.T) {
	root := t.TempDir()
	w, _ := startWatcher(t, root)

	require.NoError(t, w.Watch(root))
	assert.Equal(t, []string{root}, w.Roots())
}
