package types

import "time"

// Sentinel values used when an audio file carries no usable metadata
const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
	UnknownGenre  = "Unknown"
)

// Track represents one audio file in the library
type Track struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album"`
	Genre      string    `json:"genre"`
	Year       *int      `json:"year"`
	Duration   float64   `json:"duration"` // seconds, 0 when unknown
	Track      *int      `json:"track"`
	Bitrate    *int      `json:"bitrate"`
	SampleRate *int      `json:"sampleRate"`
	AlbumArt   *string   `json:"albumArt"` // data URI of the first embedded picture
	FileSize   int64     `json:"fileSize"`
	Format     string    `json:"format"` // "MP3", "FLAC", ...
	DateAdded  time.Time `json:"dateAdded"`
}

// ScanResult summarises one folder-add cycle for user-facing reporting
type ScanResult struct {
	Root    string `json:"root"`
	Scanned int    `json:"scanned"`
	Added   int    `json:"added"`
}

// LibraryStats holds the aggregate figures shown next to the library
type LibraryStats struct {
	TrackCount    int     `json:"trackCount"`
	TotalSeconds  float64 `json:"totalSeconds"`
	TotalDuration string  `json:"totalDuration"`
}
