package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"resonance/storage"
	"resonance/types"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// LibraryService owns the library state: tracks, playlists and settings
type LibraryService interface {
	Load() error
	AddFolder(ctx context.Context, rootPath string, onProgress ProgressFunc) (types.ScanResult, error)
	Scanning() bool

	Tracks() []types.Track
	Track(id string) (types.Track, error)
	View(query string, sort types.SortKey) []types.Track
	Stats() types.LibraryStats
	Replace(tracks []types.Track) error

	Playlists() []types.Playlist
	Playlist(id string) (types.Playlist, error)
	PlaylistTracks(id string) ([]types.Track, error)
	CreatePlaylist(name string) (types.Playlist, error)
	AddToPlaylist(playlistID, trackID string) (types.Playlist, error)
	DeletePlaylist(id string) error

	Settings() types.Settings
	UpdateSettings(update func(*types.Settings)) (types.Settings, error)
}

// library implements the LibraryService interface
type library struct {
	mu        sync.RWMutex
	store     storage.Store
	scanner   Scanner
	tracks    []types.Track
	playlists []types.Playlist
	settings  types.Settings

	// at most one scan-and-reconcile cycle runs at a time
	scanning atomic.Bool
}

// NewLibraryService creates an empty library bound to store and scanner.
// Call Load to read the persisted state.
func NewLibraryService(store storage.Store, scanner Scanner) LibraryService {
	return &library{
		store:     store,
		scanner:   scanner,
		tracks:    []types.Track{},
		playlists: []types.Playlist{},
		settings:  types.DefaultSettings(),
	}
}

// Load replaces the in-memory state with what the store holds
func (l *library) Load() error {
	tracks, err := l.store.LoadLibrary()
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}
	playlists, err := l.store.LoadPlaylists()
	if err != nil {
		return fmt.Errorf("failed to load playlists: %w", err)
	}
	settings, err := l.store.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracks = tracks
	l.playlists = playlists
	l.settings = settings
	return nil
}

// AddFolder scans rootPath and merges the new tracks into the library.
// A second call while one is running fails fast with ErrScanInProgress.
// When the merge succeeds but saving fails, the result is returned together
// with a *PersistenceError and the merged library stays in memory.
func (l *library) AddFolder(ctx context.Context, rootPath string, onProgress ProgressFunc) (types.ScanResult, error) {
	if !l.scanning.CompareAndSwap(false, true) {
		return types.ScanResult{}, ErrScanInProgress
	}
	defer l.scanning.Store(false)

	root, err := filepath.Abs(rootPath)
	if err != nil {
		root = rootPath
	}
	result := types.ScanResult{Root: root}

	scanned, err := l.scanner.Scan(ctx, root, onProgress)
	if err != nil {
		return result, err
	}
	result.Scanned = len(scanned)

	l.mu.Lock()
	merged, added := Reconcile(l.tracks, scanned)
	l.tracks = merged
	if !slices.Contains(l.settings.Folders, root) {
		l.settings.Folders = append(slices.Clone(l.settings.Folders), root)
	}
	tracksSnapshot := slices.Clone(l.tracks)
	settingsSnapshot := l.snapshotSettingsLocked()
	l.mu.Unlock()

	result.Added = added
	log.Printf("Scanned %s: %d audio files, %d new", root, result.Scanned, added)

	var saveErr error
	if added > 0 {
		if err := l.store.SaveLibrary(tracksSnapshot); err != nil {
			log.Printf("Warning: Could not save library: %v", err)
			saveErr = &PersistenceError{Op: "library", Err: err}
		}
	}
	if err := l.store.SaveSettings(settingsSnapshot); err != nil && saveErr == nil {
		log.Printf("Warning: Could not save settings: %v", err)
		saveErr = &PersistenceError{Op: "settings", Err: err}
	}

	return result, saveErr
}

// Scanning reports whether a scan is currently running
func (l *library) Scanning() bool {
	return l.scanning.Load()
}

// Tracks returns a copy of the library in insertion order
func (l *library) Tracks() []types.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.tracks)
}

// Track looks up a track by id
func (l *library) Track(id string) (types.Track, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, t := range l.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return types.Track{}, ErrTrackNotFound
}

// View materialises the current playlist: search filter first, then sort.
// An empty sort key uses the persisted preference.
func (l *library) View(query string, sort types.SortKey) []types.Track {
	l.mu.RLock()
	tracks := l.tracks
	if sort == "" {
		sort = l.settings.Sort
	}
	filtered := FilterTracks(tracks, query)
	l.mu.RUnlock()

	return SortTracks(filtered, sort)
}

// Stats returns the track count and total duration
func (l *library) Stats() types.LibraryStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return ComputeStats(l.tracks)
}

// Replace swaps the whole library, the only way tracks leave it
func (l *library) Replace(tracks []types.Track) error {
	if tracks == nil {
		tracks = []types.Track{}
	}

	l.mu.Lock()
	l.tracks = slices.Clone(tracks)
	snapshot := slices.Clone(l.tracks)
	l.mu.Unlock()

	if err := l.store.SaveLibrary(snapshot); err != nil {
		return &PersistenceError{Op: "library", Err: err}
	}
	return nil
}

// Playlists returns every playlist in creation order
func (l *library) Playlists() []types.Playlist {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return lo.Map(l.playlists, func(p types.Playlist, _ int) types.Playlist {
		return clonePlaylist(p)
	})
}

// Playlist looks up a playlist by id
func (l *library) Playlist(id string) (types.Playlist, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := lo.Find(l.playlists, func(p types.Playlist) bool { return p.ID == id })
	if !ok {
		return types.Playlist{}, ErrPlaylistNotFound
	}
	return clonePlaylist(p), nil
}

// PlaylistTracks resolves a playlist into tracks, skipping ids no longer in the library
func (l *library) PlaylistTracks(id string) ([]types.Track, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := lo.Find(l.playlists, func(p types.Playlist) bool { return p.ID == id })
	if !ok {
		return nil, ErrPlaylistNotFound
	}

	byID := lo.KeyBy(l.tracks, func(t types.Track) string { return t.ID })
	tracks := make([]types.Track, 0, len(p.TrackIDs))
	for _, trackID := range p.TrackIDs {
		if t, ok := byID[trackID]; ok {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}

// CreatePlaylist adds an empty playlist
func (l *library) CreatePlaylist(name string) (types.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Playlist{}, errors.New("playlist name is required")
	}

	playlist := types.Playlist{
		ID:        uuid.New().String(),
		Name:      name,
		TrackIDs:  []string{},
		CreatedAt: time.Now(),
	}

	l.mu.Lock()
	l.playlists = append(l.playlists, playlist)
	snapshot := l.snapshotPlaylistsLocked()
	l.mu.Unlock()

	if err := l.store.SavePlaylists(snapshot); err != nil {
		return playlist, &PersistenceError{Op: "playlists", Err: err}
	}
	return playlist, nil
}

// AddToPlaylist appends a library track to a playlist
func (l *library) AddToPlaylist(playlistID, trackID string) (types.Playlist, error) {
	l.mu.Lock()

	idx := slices.IndexFunc(l.playlists, func(p types.Playlist) bool { return p.ID == playlistID })
	if idx < 0 {
		l.mu.Unlock()
		return types.Playlist{}, ErrPlaylistNotFound
	}
	if !slices.ContainsFunc(l.tracks, func(t types.Track) bool { return t.ID == trackID }) {
		l.mu.Unlock()
		return types.Playlist{}, ErrTrackNotFound
	}

	updated := clonePlaylist(l.playlists[idx])
	updated.TrackIDs = append(updated.TrackIDs, trackID)
	l.playlists = slices.Clone(l.playlists)
	l.playlists[idx] = updated
	snapshot := l.snapshotPlaylistsLocked()
	l.mu.Unlock()

	if err := l.store.SavePlaylists(snapshot); err != nil {
		return clonePlaylist(updated), &PersistenceError{Op: "playlists", Err: err}
	}
	return clonePlaylist(updated), nil
}

// DeletePlaylist removes a playlist; the tracks stay in the library
func (l *library) DeletePlaylist(id string) error {
	l.mu.Lock()
	remaining := lo.Reject(l.playlists, func(p types.Playlist, _ int) bool { return p.ID == id })
	if len(remaining) == len(l.playlists) {
		l.mu.Unlock()
		return ErrPlaylistNotFound
	}
	l.playlists = remaining
	snapshot := l.snapshotPlaylistsLocked()
	l.mu.Unlock()

	if err := l.store.SavePlaylists(snapshot); err != nil {
		return &PersistenceError{Op: "playlists", Err: err}
	}
	return nil
}

// Settings returns the current preferences
func (l *library) Settings() types.Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotSettingsLocked()
}

// UpdateSettings applies update to a copy of the settings, stores and returns it
func (l *library) UpdateSettings(update func(*types.Settings)) (types.Settings, error) {
	l.mu.Lock()
	settings := l.snapshotSettingsLocked()
	update(&settings)
	if settings.Volume < 0 {
		settings.Volume = 0
	}
	if settings.Volume > 1 {
		settings.Volume = 1
	}
	if !settings.Repeat.Valid() {
		settings.Repeat = types.RepeatNone
	}
	if !ValidSortKey(settings.Sort) {
		settings.Sort = types.SortByName
	}
	l.settings = settings
	snapshot := l.snapshotSettingsLocked()
	l.mu.Unlock()

	if err := l.store.SaveSettings(snapshot); err != nil {
		return snapshot, &PersistenceError{Op: "settings", Err: err}
	}
	return snapshot, nil
}

func (l *library) snapshotSettingsLocked() types.Settings {
	s := l.settings
	s.Folders = slices.Clone(l.settings.Folders)
	if s.Folders == nil {
		s.Folders = []string{}
	}
	return s
}

func (l *library) snapshotPlaylistsLocked() []types.Playlist {
	return lo.Map(l.playlists, func(p types.Playlist, _ int) types.Playlist {
		return clonePlaylist(p)
	})
}

func clonePlaylist(p types.Playlist) types.Playlist {
	p.TrackIDs = slices.Clone(p.TrackIDs)
	if p.TrackIDs == nil {
		p.TrackIDs = []string{}
	}
	return p
}
