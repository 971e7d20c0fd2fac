package types

import (
	"time"
)

// Fingerprint is an opaque perceptual signature produced by a comparator.
// Only the comparator that produced it knows how to measure it.
type Fingerprint interface{}

// Image holds a discovered file and its fingerprint
type Image struct {
	Path         string      `json:"path"`
	ModifiedTime time.Time   `json:"modified_time"`
	Fingerprint  Fingerprint `json:"-"`
}

// HasFingerprint reports whether the comparator produced a fingerprint for the image
func (i Image) HasFingerprint() bool {
	return i.Fingerprint != nil
}

// OlderThan orders images by modification time, ties broken by path
func (i Image) OlderThan(other Image) bool {
	if !i.ModifiedTime.Equal(other.ModifiedTime) {
		return i.ModifiedTime.Before(other.ModifiedTime)
	}
	return i.Path < other.Path
}

// Pair holds two potential duplicates and the distance between them.
// A is always the older of the two images.
type Pair struct {
	A        string  `json:"a" yaml:"a"`
	B        string  `json:"b" yaml:"b"`
	Distance float64 `json:"distance" yaml:"distance"`
}
