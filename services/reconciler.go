package services

import (
	"resonance/types"

	"github.com/samber/lo"
)

// Reconcile appends the scanned tracks whose path is not yet in the library.
// It returns a new slice and never modifies its inputs; path is the only
// de-duplication key.
func Reconcile(existing, scanned []types.Track) ([]types.Track, int) {
	known := make(map[string]struct{}, len(existing)+len(scanned))
	for _, t := range existing {
		known[t.Path] = struct{}{}
	}

	added := lo.Filter(scanned, func(t types.Track, _ int) bool {
		if _, dup := known[t.Path]; dup {
			return false
		}
		// a path repeated within one scan is added once
		known[t.Path] = struct{}{}
		return true
	})

	merged := make([]types.Track, 0, len(existing)+len(added))
	merged = append(merged, existing...)
	merged = append(merged, added...)

	return merged, len(added)
}
