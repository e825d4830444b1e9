package services

import (
	"fmt"
	"math"
	"resonance/types"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// FilterTracks keeps the tracks whose name, artist or album contains query
// (case-insensitive). An empty query keeps everything.
func FilterTracks(tracks []types.Track, query string) []types.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(tracks)
	}

	return lo.Filter(tracks, func(t types.Track, _ int) bool {
		return strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) ||
			strings.Contains(strings.ToLower(t.Album), q)
	})
}

// SortTracks returns a sorted copy. Text keys sort ascending, year, duration
// and dateAdded sort newest/longest first. Unknown keys keep the input order.
func SortTracks(tracks []types.Track, key types.SortKey) []types.Track {
	sorted := slices.Clone(tracks)

	var cmp func(a, b types.Track) int
	switch key {
	case types.SortByName:
		cmp = func(a, b types.Track) int { return compareFold(a.Name, b.Name) }
	case types.SortByArtist:
		cmp = func(a, b types.Track) int { return compareFold(a.Artist, b.Artist) }
	case types.SortByAlbum:
		cmp = func(a, b types.Track) int { return compareFold(a.Album, b.Album) }
	case types.SortByYear:
		cmp = func(a, b types.Track) int { return intValue(b.Year) - intValue(a.Year) }
	case types.SortByDuration:
		cmp = func(a, b types.Track) int {
			switch {
			case a.Duration > b.Duration:
				return -1
			case a.Duration < b.Duration:
				return 1
			}
			return 0
		}
	case types.SortByDateAdded:
		cmp = func(a, b types.Track) int { return b.DateAdded.Compare(a.DateAdded) }
	default:
		return sorted
	}

	slices.SortStableFunc(sorted, cmp)
	return sorted
}

// ValidSortKey reports whether key is one SortTracks understands
func ValidSortKey(key types.SortKey) bool {
	switch key {
	case types.SortByName, types.SortByArtist, types.SortByAlbum,
		types.SortByYear, types.SortByDuration, types.SortByDateAdded:
		return true
	}
	return false
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// FormatTime renders seconds as m:ss
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ComputeStats sums up the library for display
func ComputeStats(tracks []types.Track) types.LibraryStats {
	total := lo.SumBy(tracks, func(t types.Track) float64 { return t.Duration })

	hours := int(total) / 3600
	minutes := (int(total) % 3600) / 60

	label := fmt.Sprintf("%dm", minutes)
	if hours > 0 {
		label = fmt.Sprintf("%dh %dm", hours, minutes)
	}

	return types.LibraryStats{
		TrackCount:    len(tracks),
		TotalSeconds:  total,
		TotalDuration: label,
	}
}
