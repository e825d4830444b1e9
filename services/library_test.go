package services

import (
	"context"
	"errors"
	"resonance/storage"
	"resonance/types"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingBackend reads like an empty store but refuses every write
type failingBackend struct{}

func (failingBackend) Get(string) ([]byte, error) { return nil, storage.ErrNotFound }
func (failingBackend) Put(string, []byte) error   { return errors.New("disk full") }
func (failingBackend) Close() error               { return nil }

// stubScanner returns canned tracks, optionally blocking until released
type stubScanner struct {
	tracks  []types.Track
	err     error
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *stubScanner) Scan(ctx context.Context, root string, onProgress ProgressFunc) ([]types.Track, error) {
	if s.started != nil {
		s.once.Do(func() { close(s.started) })
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for i, t := range s.tracks {
		if onProgress != nil {
			onProgress(i+1, len(s.tracks), t.Path)
		}
	}
	return s.tracks, s.err
}

func newTestLibrary(t *testing.T, scanner Scanner) (LibraryService, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	lib := NewLibraryService(store, scanner)
	require.NoError(t, lib.Load())
	return lib, store
}

func TestAddFolderMergesAndPersists(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "one.mp3", "two.flac", "cover.jpg")

	lib, store := newTestLibrary(t, NewScanner(newFakeExtractor()))

	result, err := lib.AddFolder(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, "Added 2 new songs to library", ScanSummary(result))

	saved, err := store.LoadLibrary()
	require.NoError(t, err)
	assert.Equal(t, paths(lib.Tracks()), paths(saved))

	settings, err := store.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, settings.Folders)

	// a second scan of the same folder adds nothing
	result, err = lib.AddFolder(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, "All songs from this folder are already in your library", ScanSummary(result))
	assert.Len(t, lib.Tracks(), 2)
	assert.Equal(t, []string{dir}, lib.Settings().Folders)
}

func TestAddFolderEmptyDirectory(t *testing.T) {
	lib, _ := newTestLibrary(t, NewScanner(newFakeExtractor()))

	result, err := lib.AddFolder(context.Background(), t.TempDir(), nil)

	require.NoError(t, err)
	assert.Equal(t, "No audio files found in the selected folder", ScanSummary(result))
	assert.Empty(t, lib.Tracks())
}

func TestAddFolderScanErrorLeavesLibraryUntouched(t *testing.T) {
	scanErr := &ScanError{Root: "/nope", Err: errors.New("permission denied")}
	lib, store := newTestLibrary(t, &stubScanner{err: scanErr})

	_, err := lib.AddFolder(context.Background(), "/nope", nil)

	assert.ErrorIs(t, err, scanErr)
	assert.Empty(t, lib.Tracks())
	assert.Empty(t, lib.Settings().Folders)

	settings, err := store.LoadSettings()
	require.NoError(t, err)
	assert.Empty(t, settings.Folders)
}

func TestAddFolderRejectsConcurrentScan(t *testing.T) {
	scanner := &stubScanner{
		tracks:  []types.Track{track("/m/a.mp3", "a", types.UnknownArtist, types.UnknownAlbum)},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	lib, _ := newTestLibrary(t, scanner)

	done := make(chan error, 1)
	go func() {
		_, err := lib.AddFolder(context.Background(), "/m", nil)
		done <- err
	}()

	select {
	case <-scanner.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first scan never started")
	}
	assert.True(t, lib.Scanning())

	_, err := lib.AddFolder(context.Background(), "/m", nil)
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(scanner.release)
	require.NoError(t, <-done)
	assert.False(t, lib.Scanning())
	assert.Len(t, lib.Tracks(), 1)
}

func TestAddFolderPersistenceFailureKeepsMemoryState(t *testing.T) {
	scanner := &stubScanner{tracks: []types.Track{track("/m/a.mp3", "a", "x", "y")}}
	lib := NewLibraryService(storage.New(failingBackend{}), scanner)
	require.NoError(t, lib.Load())

	result, err := lib.AddFolder(context.Background(), "/m", nil)

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "library", persistErr.Op)
	assert.Equal(t, 1, result.Added)
	assert.Len(t, lib.Tracks(), 1)
}

func TestLibraryViewAndStats(t *testing.T) {
	lib, _ := newTestLibrary(t, nil)
	require.NoError(t, lib.Replace(sampleTracks()))

	assert.Equal(t, []string{"abbey road medley", "Bohemian Rhapsody", "Creep"}, names(lib.View("", "")))
	assert.Equal(t, []string{"Creep"}, names(lib.View("radio", types.SortByName)))
	assert.Equal(t, []string{"abbey road medley", "Bohemian Rhapsody", "Creep"}, names(lib.View("", types.SortByDuration)))

	stats := lib.Stats()
	assert.Equal(t, 3, stats.TrackCount)
	assert.Equal(t, "25m", stats.TotalDuration)

	found, err := lib.Track(TrackID("/m/c.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "Creep", found.Name)

	_, err = lib.Track("missing")
	assert.ErrorIs(t, err, ErrTrackNotFound)
}

func TestLibraryReplaceClears(t *testing.T) {
	lib, store := newTestLibrary(t, nil)
	require.NoError(t, lib.Replace(sampleTracks()))
	require.NoError(t, lib.Replace(nil))

	assert.Empty(t, lib.Tracks())
	saved, err := store.LoadLibrary()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestLibraryLoadRestoresState(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.SaveLibrary(sampleTracks()))

	lib := NewLibraryService(store, nil)
	require.NoError(t, lib.Load())
	assert.Len(t, lib.Tracks(), 3)
}

func TestPlaylists(t *testing.T) {
	lib, store := newTestLibrary(t, nil)
	require.NoError(t, lib.Replace(sampleTracks()))

	_, err := lib.CreatePlaylist("   ")
	assert.Error(t, err)

	playlist, err := lib.CreatePlaylist("Road trip")
	require.NoError(t, err)
	assert.Equal(t, "Road trip", playlist.Name)
	assert.Empty(t, playlist.TrackIDs)

	_, err = lib.AddToPlaylist(playlist.ID, TrackID("/m/b.mp3"))
	require.NoError(t, err)
	updated, err := lib.AddToPlaylist(playlist.ID, TrackID("/m/a.mp3"))
	require.NoError(t, err)
	assert.Equal(t, []string{TrackID("/m/b.mp3"), TrackID("/m/a.mp3")}, updated.TrackIDs)

	_, err = lib.AddToPlaylist(playlist.ID, "missing")
	assert.ErrorIs(t, err, ErrTrackNotFound)
	_, err = lib.AddToPlaylist("missing", TrackID("/m/a.mp3"))
	assert.ErrorIs(t, err, ErrPlaylistNotFound)

	resolved, err := lib.PlaylistTracks(playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"abbey road medley", "Bohemian Rhapsody"}, names(resolved))

	saved, err := store.LoadPlaylists()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Len(t, saved[0].TrackIDs, 2)

	require.NoError(t, lib.DeletePlaylist(playlist.ID))
	assert.Empty(t, lib.Playlists())
	assert.ErrorIs(t, lib.DeletePlaylist(playlist.ID), ErrPlaylistNotFound)
	assert.Len(t, lib.Tracks(), 3, "deleting a playlist keeps its tracks")
}

func TestUpdateSettingsValidates(t *testing.T) {
	lib, store := newTestLibrary(t, nil)

	settings, err := lib.UpdateSettings(func(s *types.Settings) {
		s.Volume = 1.7
		s.Repeat = "forever"
		s.Sort = "rating"
		s.Shuffle = true
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, settings.Volume)
	assert.Equal(t, types.RepeatNone, settings.Repeat)
	assert.Equal(t, types.SortByName, settings.Sort)
	assert.True(t, settings.Shuffle)

	saved, err := store.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, settings, saved)

	settings, err = lib.UpdateSettings(func(s *types.Settings) { s.Volume = -1 })
	require.NoError(t, err)
	assert.Equal(t, 0.0, settings.Volume)
}
