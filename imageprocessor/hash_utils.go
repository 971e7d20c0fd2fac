package imageprocessor

import (
	"fmt"
	"math"

	"imagededup/types"

	"github.com/corona10/goimagehash"
	"github.com/vitali-fedulov/images4"
)

const (
	// pHash grid; 16x16 gives a 256 bit hash
	phashSize = 16
	phashBits = phashSize * phashSize

	// images4 icons are 11x11 with three channels of 16 bit values
	iconPixels   = 11 * 11
	iconMaxValue = math.MaxUint16
)

// PHashComparator fingerprints images with a DCT perceptual hash.
// Distance is the fraction of differing bits, in [0, 1].
type PHashComparator struct {
	loaders *ImageLoaderRegistry
}

// NewPHashComparator creates a perceptual hash comparator
func NewPHashComparator(loaders *ImageLoaderRegistry) *PHashComparator {
	return &PHashComparator{loaders: loaders}
}

// Name returns the registry name
func (c *PHashComparator) Name() string {
	return "phash"
}

// Fingerprint loads the image and computes its extended perceptual hash
func (c *PHashComparator) Fingerprint(path string) (types.Fingerprint, error) {
	img, err := c.loaders.LoadImage(path)
	if err != nil {
		return nil, err
	}

	hash, err := goimagehash.ExtPerceptionHash(img, phashSize, phashSize)
	if err != nil {
		return nil, fmt.Errorf("cannot compute perceptual hash for %s: %w", path, err)
	}
	return hash, nil
}

// Close releases the loaders
func (c *PHashComparator) Close() error {
	return c.loaders.Close()
}

// Distance returns the normalized hamming distance between two hashes
func (c *PHashComparator) Distance(a, b types.Fingerprint) (float64, error) {
	ha, okA := a.(*goimagehash.ExtImageHash)
	hb, okB := b.(*goimagehash.ExtImageHash)
	if !okA || !okB {
		return 0, fingerprintMismatch(c.Name(), a, b)
	}

	bits, err := ha.Distance(hb)
	if err != nil {
		return 0, err
	}
	return float64(bits) / phashBits, nil
}

// IconComparator fingerprints images with downsampled colour icons.
// Distance is the root mean square channel difference scaled to [0, 1].
type IconComparator struct {
	loaders *ImageLoaderRegistry
}

// NewIconComparator creates an icon comparator
func NewIconComparator(loaders *ImageLoaderRegistry) *IconComparator {
	return &IconComparator{loaders: loaders}
}

// Name returns the registry name
func (c *IconComparator) Name() string {
	return "icon"
}

// Fingerprint loads the image and computes its icon
func (c *IconComparator) Fingerprint(path string) (types.Fingerprint, error) {
	img, err := c.loaders.LoadImage(path)
	if err != nil {
		return nil, err
	}
	return images4.Icon(img), nil
}

// Close releases the loaders
func (c *IconComparator) Close() error {
	return c.loaders.Close()
}

// Distance compares two icons channel by channel
func (c *IconComparator) Distance(a, b types.Fingerprint) (float64, error) {
	ia, okA := a.(images4.IconT)
	ib, okB := b.(images4.IconT)
	if !okA || !okB {
		return 0, fingerprintMismatch(c.Name(), a, b)
	}

	// EucMetric returns squared distances per channel
	m1, m2, m3 := images4.EucMetric(ia, ib)
	rms := math.Sqrt((m1 + m2 + m3) / (3 * iconPixels))
	return rms / iconMaxValue, nil
}
