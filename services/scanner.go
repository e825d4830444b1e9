package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"resonance/types"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AudioExtensions is the allow-list of file extensions the scanner picks up
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".wma":  true,
	".aac":  true,
}

// trackNamespace seeds the name-based UUIDs used as track ids
var trackNamespace = uuid.MustParse("6f0d3c9e-8a57-4c1b-9d8e-2b7a41f5c310")

// IsAudioFile reports whether path has an allow-listed extension (case-insensitive)
func IsAudioFile(path string) bool {
	return AudioExtensions[strings.ToLower(filepath.Ext(path))]
}

// TrackID returns the stable id of the track stored at path
func TrackID(path string) string {
	return uuid.NewSHA1(trackNamespace, []byte(filepath.Clean(path))).String()
}

// ScanError is returned when the root of a scan cannot be traversed
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// ProgressFunc is told after each file how far a scan has come
type ProgressFunc func(processed, total int, currentFile string)

// Scanner walks a folder tree and turns every audio file into a track
type Scanner interface {
	Scan(ctx context.Context, rootPath string, onProgress ProgressFunc) ([]types.Track, error)
}

// folderScanner implements the Scanner interface
type folderScanner struct {
	extractor MetadataExtractor
	workers   int
	now       func() time.Time
}

// ScannerOption customises a scanner
type ScannerOption func(*folderScanner)

// WithWorkers sets how many files are read concurrently. One keeps the scan sequential.
func WithWorkers(n int) ScannerOption {
	return func(s *folderScanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithClock overrides the time source used for dateAdded
func WithClock(now func() time.Time) ScannerOption {
	return func(s *folderScanner) {
		s.now = now
	}
}

// NewScanner creates a scanner that reads metadata through extractor
func NewScanner(extractor MetadataExtractor, opts ...ScannerOption) Scanner {
	s := &folderScanner{
		extractor: extractor,
		workers:   1,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// candidate is an allow-listed file found during the walk
type candidate struct {
	path string
	size int64
}

// Scan walks rootPath depth-first in lexical order and returns one track per
// audio file, in walk order. Only a root that cannot be traversed is an error;
// files whose metadata cannot be read degrade to filesystem-only tracks.
func (s *folderScanner) Scan(ctx context.Context, rootPath string, onProgress ProgressFunc) ([]types.Track, error) {
	root, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, &ScanError{Root: rootPath, Err: err}
	}

	// WalkDir does not descend into a symlinked root, so resolve it first
	if linfo, err := os.Lstat(root); err == nil && linfo.Mode()&fs.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			root = resolved
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, &ScanError{Root: rootPath, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Root: rootPath, Err: fmt.Errorf("not a directory")}
	}

	candidates, err := s.collect(ctx, root)
	if err != nil {
		return nil, err
	}

	tracks := make([]types.Track, len(candidates))
	if len(candidates) == 0 {
		return tracks, nil
	}

	progress := newProgressCounter(len(candidates), onProgress)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, c := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tracks[i] = s.buildTrack(c)
			progress.done(c.path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return tracks, nil
}

// collect walks the tree and returns the allow-listed regular files
func (s *folderScanner) collect(ctx context.Context, root string) ([]candidate, error) {
	var candidates []candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root {
				return &ScanError{Root: root, Err: err}
			}
			log.Printf("Warning: Error accessing path %s: %v", path, err)
			// Continue walking, don't fail entire scan
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !IsAudioFile(path) {
			return nil
		}

		var size int64
		switch {
		case d.Type().IsRegular():
			if info, err := d.Info(); err == nil {
				size = info.Size()
			}
		case d.Type()&fs.ModeSymlink != 0:
			// linked files are kept; linked directories are never entered
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
			size = info.Size()
		default:
			return nil
		}
		candidates = append(candidates, candidate{path: path, size: size})
		return nil
	})

	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// buildTrack turns one file into a track, falling back to filesystem facts
// when metadata extraction fails
func (s *folderScanner) buildTrack(c candidate) types.Track {
	track := fallbackTrack(c.path, c.size, s.now())

	metadata, err := s.extractor.Extract(c.path)
	if err != nil {
		log.Printf("Warning: Could not parse audio metadata from %s: %v", c.path, err)
		return track
	}
	if metadata == nil {
		return track
	}

	applyMetadata(&track, metadata)
	return track
}

// fallbackTrack builds the minimal record for a file whose metadata is unknown
func fallbackTrack(path string, size int64, now time.Time) types.Track {
	ext := filepath.Ext(path)
	return types.Track{
		ID:        TrackID(path),
		Path:      path,
		Name:      strings.TrimSuffix(filepath.Base(path), ext),
		Artist:    types.UnknownArtist,
		Album:     types.UnknownAlbum,
		Genre:     types.UnknownGenre,
		Duration:  0,
		FileSize:  size,
		Format:    strings.ToUpper(strings.TrimPrefix(ext, ".")),
		DateAdded: now,
	}
}

// applyMetadata overlays extracted metadata on a fallback track
func applyMetadata(track *types.Track, metadata *Metadata) {
	if metadata.Title != "" {
		track.Name = metadata.Title
	}
	if metadata.Artist != "" {
		track.Artist = metadata.Artist
	}
	if metadata.Album != "" {
		track.Album = metadata.Album
	}
	if len(metadata.Genres) > 0 && metadata.Genres[0] != "" {
		track.Genre = metadata.Genres[0]
	}
	if metadata.Duration > 0 {
		track.Duration = metadata.Duration
	}

	track.Year = optionalInt(metadata.Year)
	track.Track = optionalInt(metadata.TrackNumber)
	track.Bitrate = optionalInt(metadata.Bitrate)
	track.SampleRate = optionalInt(metadata.SampleRate)

	// Only the first picture is kept
	if len(metadata.Pictures) > 0 {
		art := EncodeDataURI(metadata.Pictures[0])
		track.AlbumArt = &art
	}
}

func optionalInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

// EncodeDataURI renders a picture as data:<mime>;base64,<payload>
func EncodeDataURI(pic Picture) string {
	return "data:" + pic.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(pic.Data)
}

// DecodeDataURI splits a data URI produced by EncodeDataURI back into a picture
func DecodeDataURI(uri string) (Picture, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Picture{}, fmt.Errorf("not a data URI")
	}
	mimeType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return Picture{}, fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Picture{}, fmt.Errorf("invalid data URI payload: %w", err)
	}
	return Picture{MIMEType: mimeType, Data: data}, nil
}
