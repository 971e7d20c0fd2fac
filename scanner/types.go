package scanner

import (
	"errors"
	"io"

	"imagededup/types"
)

// ErrPathNotFound is returned when an input path is neither a file nor a directory
var ErrPathNotFound = errors.New("could not find")

// ScanOptions defines the options for scanning
type ScanOptions struct {
	Paths        []string  // files and directories given by the user
	Force        bool      // skip the extension check inside directories
	Workers      int       // fingerprint workers, 0 means one per CPU
	ShowProgress bool      // draw a progress bar
	ProgressOut  io.Writer // progress bar destination, defaults to os.Stderr
}

// Fingerprinter computes the fingerprint of a single file
type Fingerprinter interface {
	Fingerprint(path string) (types.Fingerprint, error)
}

// ProcessImageResult holds the result of fingerprinting an image
type ProcessImageResult struct {
	Path    string
	Success bool
	Error   error
}

// FingerprintStats summarizes a fingerprinting pass
type FingerprintStats struct {
	Total  int
	Failed int
}
