// Package storage persists the library, playlists and settings as whole
// JSON documents on top of a small key-value backend.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"resonance/types"
)

// ErrNotFound is returned by a backend when a key has never been written
var ErrNotFound = errors.New("key not found")

// Document keys
const (
	KeyLibrary   = "library"
	KeyPlaylists = "playlists"
	KeySettings  = "settings"
)

// Store is the persistence collaborator. Every save replaces the whole document.
type Store interface {
	LoadLibrary() ([]types.Track, error)
	SaveLibrary(tracks []types.Track) error
	LoadPlaylists() ([]types.Playlist, error)
	SavePlaylists(playlists []types.Playlist) error
	LoadSettings() (types.Settings, error)
	SaveSettings(settings types.Settings) error
	Close() error
}

// Backend stores opaque blobs by key
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Close() error
}

// blobStore implements Store by JSON-encoding each document into a Backend
type blobStore struct {
	backend Backend
}

// New wraps a backend into a Store
func New(backend Backend) Store {
	return &blobStore{backend: backend}
}

func (s *blobStore) load(key string, v any) (bool, error) {
	data, err := s.backend.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *blobStore) save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.backend.Put(key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// LoadLibrary returns the stored library, or an empty one when nothing is stored
func (s *blobStore) LoadLibrary() ([]types.Track, error) {
	var tracks []types.Track
	if _, err := s.load(KeyLibrary, &tracks); err != nil {
		return nil, err
	}
	if tracks == nil {
		tracks = []types.Track{}
	}
	return tracks, nil
}

func (s *blobStore) SaveLibrary(tracks []types.Track) error {
	if tracks == nil {
		tracks = []types.Track{}
	}
	return s.save(KeyLibrary, tracks)
}

func (s *blobStore) LoadPlaylists() ([]types.Playlist, error) {
	var playlists []types.Playlist
	if _, err := s.load(KeyPlaylists, &playlists); err != nil {
		return nil, err
	}
	if playlists == nil {
		playlists = []types.Playlist{}
	}
	return playlists, nil
}

func (s *blobStore) SavePlaylists(playlists []types.Playlist) error {
	if playlists == nil {
		playlists = []types.Playlist{}
	}
	return s.save(KeyPlaylists, playlists)
}

// LoadSettings returns stored settings layered over the defaults
func (s *blobStore) LoadSettings() (types.Settings, error) {
	settings := types.DefaultSettings()
	if _, err := s.load(KeySettings, &settings); err != nil {
		return types.DefaultSettings(), err
	}
	if !settings.Repeat.Valid() {
		settings.Repeat = types.RepeatNone
	}
	if settings.Folders == nil {
		settings.Folders = []string{}
	}
	return settings, nil
}

func (s *blobStore) SaveSettings(settings types.Settings) error {
	return s.save(KeySettings, settings)
}

func (s *blobStore) Close() error {
	return s.backend.Close()
}
