package cmd

import (
	"context"
	"os"
	"path/filepath"
	"resonance/services"
	"resonance/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDataDir(t *testing.T, backend string) string {
	t.Helper()
	dataDir := t.TempDir()
	t.Setenv("RESONANCE_DATA_DIR", dataDir)
	t.Setenv("RESONANCE_STORE", backend)
	return dataDir
}

func writeSong(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, 256), 0644))
}

func TestScanPersistsLibrary(t *testing.T) {
	for _, backend := range []string{"json", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			setupDataDir(t, backend)
			music := t.TempDir()
			writeSong(t, music, "a.mp3")
			writeSong(t, music, "disc2/b.flac")
			writeSong(t, music, "cover.jpg")

			require.NoError(t, runScan(context.Background(), &ScanParams{Dir: music, Quiet: true}))

			a, err := openApp()
			require.NoError(t, err)
			defer a.Close()

			tracks := a.library.Tracks()
			require.Len(t, tracks, 2)
			assert.Equal(t, "a", tracks[0].Name)
			assert.Equal(t, "b", tracks[1].Name)
			assert.Equal(t, []string{music}, a.library.Settings().Folders)
		})
	}
}

func TestScanTwiceAddsNothing(t *testing.T) {
	setupDataDir(t, "json")
	music := t.TempDir()
	writeSong(t, music, "a.mp3")

	require.NoError(t, runScan(context.Background(), &ScanParams{Dir: music, Quiet: true}))
	require.NoError(t, runScan(context.Background(), &ScanParams{Dir: music, Quiet: true}))

	a, err := openApp()
	require.NoError(t, err)
	defer a.Close()
	assert.Len(t, a.library.Tracks(), 1)
}

func TestScanMissingFolder(t *testing.T) {
	setupDataDir(t, "json")

	err := runScan(context.Background(), &ScanParams{Dir: filepath.Join(t.TempDir(), "missing"), Quiet: true})

	var scanErr *services.ScanError
	assert.ErrorAs(t, err, &scanErr)
}

func TestListRejectsUnknownSort(t *testing.T) {
	setupDataDir(t, "json")

	assert.Error(t, runList(&ListParams{Sort: "rating"}))
	assert.NoError(t, runList(&ListParams{Sort: "year"}))
	assert.NoError(t, runStats())
}

// countingQueue records the roots it was asked to scan
type countingQueue struct {
	services.ScanQueue
	roots []string
}

func (q *countingQueue) AddJob(rootPath string) types.ScanJob {
	q.roots = append(q.roots, rootPath)
	return types.ScanJob{ID: "1", Root: rootPath}
}

// recordingWatcher records the folders it was asked to watch
type recordingWatcher struct {
	services.FolderWatcher
	watched []string
}

func (w *recordingWatcher) Watch(root string) error {
	w.watched = append(w.watched, root)
	return nil
}

func TestWatchingQueueWatchesScannedFolders(t *testing.T) {
	queue := &countingQueue{}
	watcher := &recordingWatcher{}

	job := watchingQueue{ScanQueue: queue, watcher: watcher}.AddJob("/music")

	assert.Equal(t, "/music", job.Root)
	assert.Equal(t, []string{"/music"}, queue.roots)
	assert.Equal(t, []string{"/music"}, watcher.watched)
}
