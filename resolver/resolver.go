// Package resolver turns the distance-ordered pair list into a set of files to
// delete, grouping duplicates around the oldest image and asking a Selector
// which members of each group to keep.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"imagededup/logging"
	"imagededup/types"

	"github.com/samber/lo"
)

// ErrEmptySelection is returned when a selector keeps nothing
var ErrEmptySelection = errors.New("selector kept no images")

// Selector chooses which members of a cluster to keep. members[0] is the
// anchor; the rest follow in ascending distance. The returned slice must be a
// non-empty subset of members.
type Selector interface {
	Select(ctx context.Context, members []string) ([]string, error)
}

// Options controls automatic deletion and grouping
type Options struct {
	AutoThreshold        float64 // pairs at or below this distance are deleted without asking
	AutoThresholdEnabled bool    // AutoThreshold is only honoured when set
	AutoDeleteAll        bool    // keep only the anchor of every cluster without asking
	PairsOnly            bool    // offer every pair on its own instead of clustering
}

// autoDelete reports whether a pair is close enough to delete without asking
func (o Options) autoDelete(distance float64) bool {
	return o.AutoThresholdEnabled && distance <= o.AutoThreshold
}

// Resolve walks pairs in order and returns the paths to delete. pairs must be
// sorted by ascending distance. If the selector fails, including when the
// user cancels, the error is returned and no deletion set is produced.
func Resolve(ctx context.Context, pairs []types.Pair, selector Selector, opts Options) (*DeletionSet, error) {
	if opts.PairsOnly {
		return resolvePairs(ctx, pairs, selector, opts)
	}
	return resolveClusters(ctx, pairs, selector, opts)
}

func resolveClusters(ctx context.Context, pairs []types.Pair, selector Selector, opts Options) (*DeletionSet, error) {
	deletions := NewDeletionSet()
	consumed := make([]bool, len(pairs))

	// Pair indices per anchor, ascending distance since pairs are sorted
	byAnchor := make(map[string][]int)
	for i, pair := range pairs {
		byAnchor[pair.A] = append(byAnchor[pair.A], i)
	}

	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if consumed[i] || deletions.Contains(pair.A) {
			consumed[i] = true
			continue
		}

		if opts.autoDelete(pair.Distance) {
			consumed[i] = true
			if deletions.Add(pair.B) {
				logging.DebugLog("Auto-deleting %s (%v from %s)", pair.B, pair.Distance, pair.A)
			}
			continue
		}

		members := []string{pair.A}
		for _, k := range byAnchor[pair.A] {
			if consumed[k] {
				continue
			}
			consumed[k] = true

			duplicate := pairs[k]
			if deletions.Contains(duplicate.B) {
				continue
			}
			if opts.autoDelete(duplicate.Distance) {
				deletions.Add(duplicate.B)
				continue
			}
			members = append(members, duplicate.B)
		}

		if len(members) < 2 {
			continue
		}

		if err := resolveGroup(ctx, members, selector, opts, deletions); err != nil {
			return nil, err
		}
	}

	return deletions, nil
}

func resolvePairs(ctx context.Context, pairs []types.Pair, selector Selector, opts Options) (*DeletionSet, error) {
	deletions := NewDeletionSet()

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if deletions.Contains(pair.A) || deletions.Contains(pair.B) {
			continue
		}

		if opts.autoDelete(pair.Distance) {
			deletions.Add(pair.B)
			continue
		}

		if err := resolveGroup(ctx, []string{pair.A, pair.B}, selector, opts, deletions); err != nil {
			return nil, err
		}
	}

	return deletions, nil
}

// resolveGroup adds every member that is not kept to deletions
func resolveGroup(ctx context.Context, members []string, selector Selector, opts Options, deletions *DeletionSet) error {
	if opts.AutoDeleteAll {
		for _, member := range members[1:] {
			deletions.Add(member)
		}
		return nil
	}

	kept, err := selector.Select(ctx, members)
	if err != nil {
		return err
	}

	kept = lo.Intersect(members, kept)
	if len(kept) == 0 {
		return fmt.Errorf("%w for %s", ErrEmptySelection, members[0])
	}

	for _, member := range lo.Without(members, kept...) {
		deletions.Add(member)
	}
	return nil
}
