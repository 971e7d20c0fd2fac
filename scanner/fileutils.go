package scanner

import (
	"imagededup/imageprocessor"
)

// IsImageFile checks if a file extension belongs to an image file
func IsImageFile(path string) bool {
	return imageprocessor.IsImageFile(path)
}

// shouldInclude decides whether a file found while walking a directory is scanned
func shouldInclude(path string, force bool) bool {
	return force || IsImageFile(path)
}
