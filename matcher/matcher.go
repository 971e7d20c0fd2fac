// Package matcher enumerates image pairs whose fingerprints are within a
// similarity threshold of each other.
package matcher

import (
	"sort"

	"imagededup/logging"
	"imagededup/types"
)

// Comparator measures the distance between two fingerprints
type Comparator interface {
	Distance(a, b types.Fingerprint) (float64, error)
}

// FindPairs compares every two fingerprinted images and returns the pairs
// whose distance is at most threshold, ordered by ascending distance. Pairs
// with equal distances keep the order in which they were found, which follows
// the (ModifiedTime, Path) order of images.
//
// Every image is compared with every other, so the cost grows quadratically
// with the number of images.
func FindPairs(images []types.Image, cmp Comparator, threshold float64) []types.Pair {
	var candidates []types.Image
	for _, img := range images {
		if !img.HasFingerprint() {
			logging.DebugLog("Skipping %s, no fingerprint", img.Path)
			continue
		}
		candidates = append(candidates, img)
	}

	var pairs []types.Pair
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			older, newer := candidates[i], candidates[j]
			if newer.OlderThan(older) {
				older, newer = newer, older
			}

			distance, err := cmp.Distance(older.Fingerprint, newer.Fingerprint)
			if err != nil {
				logging.LogWarning("Cannot compare %s and %s: %v", older.Path, newer.Path, err)
				continue
			}

			if distance <= threshold {
				pairs = append(pairs, types.Pair{A: older.Path, B: newer.Path, Distance: distance})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Distance < pairs[j].Distance
	})

	logging.DebugLog("Found %d pairs within %v among %d images", len(pairs), threshold, len(candidates))
	return pairs
}
