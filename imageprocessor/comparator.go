package imageprocessor

import (
	"fmt"
	"sort"
	"sync"

	"imagededup/types"
)

// Comparator turns files into fingerprints and measures how far apart two
// fingerprints are. Smaller distances mean more visually similar images.
// Comparators that also implement io.Closer are closed after the scan.
type Comparator interface {
	Name() string
	Fingerprint(path string) (types.Fingerprint, error)
	Distance(a, b types.Fingerprint) (float64, error)
}

// ComparatorFactory builds a comparator on top of a loader registry
type ComparatorFactory func(loaders *ImageLoaderRegistry) Comparator

var (
	comparators   = map[string]ComparatorFactory{}
	comparatorsMu sync.RWMutex
)

func init() {
	RegisterComparator("phash", func(loaders *ImageLoaderRegistry) Comparator {
		return NewPHashComparator(loaders)
	})
	RegisterComparator("icon", func(loaders *ImageLoaderRegistry) Comparator {
		return NewIconComparator(loaders)
	})
}

// RegisterComparator makes a comparator available by name. Registering a
// name twice replaces the earlier factory.
func RegisterComparator(name string, factory ComparatorFactory) {
	comparatorsMu.Lock()
	defer comparatorsMu.Unlock()
	comparators[name] = factory
}

// NewComparator returns the comparator registered under name
func NewComparator(name string) (Comparator, error) {
	comparatorsMu.RLock()
	factory, ok := comparators[name]
	comparatorsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown hasher %q (available: %v)", name, ComparatorNames())
	}
	return factory(NewImageLoaderRegistry()), nil
}

// ComparatorNames lists the registered comparator names
func ComparatorNames() []string {
	comparatorsMu.RLock()
	defer comparatorsMu.RUnlock()

	names := make([]string, 0, len(comparators))
	for name := range comparators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fingerprintMismatch reports fingerprints produced by another comparator
func fingerprintMismatch(comparator string, a, b types.Fingerprint) error {
	return fmt.Errorf("%s: cannot compare fingerprints of type %T and %T", comparator, a, b)
}
