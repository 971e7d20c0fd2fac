package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestImageOlderThan(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Second)

	a := Image{Path: "/z.jpg", ModifiedTime: early}
	b := Image{Path: "/a.jpg", ModifiedTime: late}
	assert.True(t, a.OlderThan(b))
	assert.False(t, b.OlderThan(a))

	// equal times fall back to the path
	c := Image{Path: "/a.jpg", ModifiedTime: early}
	assert.True(t, c.OlderThan(a))
	assert.False(t, a.OlderThan(c))
	assert.False(t, a.OlderThan(a))
}

func TestImageHasFingerprint(t *testing.T) {
	assert.False(t, Image{Path: "/a.jpg"}.HasFingerprint())
	assert.True(t, Image{Path: "/a.jpg", Fingerprint: []byte{1}}.HasFingerprint())
}
