package services

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// Picture is one embedded image as declared by the file's tags
type Picture struct {
	MIMEType string
	Data     []byte
}

// Metadata is everything the extractor could read from one audio file.
// Zero values mean "absent".
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	Year        int
	Genres      []string
	Duration    float64 // seconds
	TrackNumber int
	Pictures    []Picture
	Bitrate     int // bits per second
	SampleRate  int // Hz
}

// MetadataExtractor reads embedded metadata from a single audio file
type MetadataExtractor interface {
	Extract(path string) (*Metadata, error)
}

// MetadataExtractionError reports a file whose metadata could not be read.
// The scanner recovers from it by building a track from filesystem facts.
type MetadataExtractionError struct {
	Path string
	Err  error
}

func (e *MetadataExtractionError) Error() string {
	return fmt.Sprintf("could not extract metadata from %s: %v", e.Path, e.Err)
}

func (e *MetadataExtractionError) Unwrap() error {
	return e.Err
}

// tagExtractor implements MetadataExtractor with dhowden/tag for tags and
// beep decoders for the technical properties
type tagExtractor struct{}

// NewTagExtractor creates the default metadata extractor
func NewTagExtractor() MetadataExtractor {
	return &tagExtractor{}
}

// Extract reads tags and technical properties from filePath
func (e *tagExtractor) Extract(filePath string) (*Metadata, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, &MetadataExtractionError{Path: filePath, Err: err}
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, &MetadataExtractionError{Path: filePath, Err: err}
	}

	metadata := &Metadata{}

	// Untagged files are valid audio; only real parse failures count as errors
	meta, err := tag.ReadFrom(file)
	switch {
	case errors.Is(err, tag.ErrNoTagsFound):
	case err != nil:
		return nil, &MetadataExtractionError{Path: filePath, Err: err}
	default:
		applyTags(metadata, meta)
	}

	if props, err := probeAudio(filePath); err == nil {
		metadata.Duration = props.duration
		metadata.SampleRate = props.sampleRate
		if props.duration > 0 {
			metadata.Bitrate = int(float64(info.Size()*8) / props.duration)
		}
	}

	return metadata, nil
}

func applyTags(metadata *Metadata, meta tag.Metadata) {
	metadata.Title = strings.TrimSpace(meta.Title())
	metadata.Artist = strings.TrimSpace(meta.Artist())
	metadata.Album = strings.TrimSpace(meta.Album())
	metadata.Year = meta.Year()

	if genre := strings.TrimSpace(meta.Genre()); genre != "" {
		metadata.Genres = []string{genre}
	}

	track, _ := meta.Track()
	metadata.TrackNumber = track

	if pic := meta.Picture(); pic != nil && len(pic.Data) > 0 {
		mimeType := pic.MIMEType
		if mimeType == "" {
			mimeType = imageMIMEType(pic.Ext)
		}
		metadata.Pictures = append(metadata.Pictures, Picture{
			MIMEType: mimeType,
			Data:     pic.Data,
		})
	}
}

func imageMIMEType(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
