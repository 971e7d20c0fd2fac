package scanner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"imagededup/logging"
	"imagededup/types"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// CollectImages resolves the input paths into a list of images ordered oldest
// first. Explicit files are always included. Directories are walked
// recursively and only files with a known image extension are kept unless
// Force is set.
func CollectImages(fs afero.Fs, options ScanOptions) ([]types.Image, error) {
	var images []types.Image
	seen := make(map[string]bool)

	add := func(path string, info os.FileInfo) {
		key := fileKey(fs, path)
		if seen[key] {
			return
		}
		seen[key] = true
		images = append(images, types.Image{Path: path, ModifiedTime: info.ModTime()})
	}

	for _, path := range options.Paths {
		info, err := fs.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%w %s", ErrPathNotFound, path)
		}

		switch {
		case info.Mode().IsRegular():
			add(path, info)
		case info.IsDir():
			logging.DebugLog("Scanning directory: %s", path)
			err := afero.Walk(fs, walkRoot(path), func(p string, fi os.FileInfo, err error) error {
				if err != nil {
					logging.LogWarning("Error accessing path %s: %v", p, err)
					return nil
				}
				if fi.IsDir() {
					return nil
				}
				if !shouldInclude(p, options.Force) {
					logging.LogWarning("%s is not a compatible image format, skipping...", p)
					return nil
				}
				add(p, fi)
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("failed to walk %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("%w %s", ErrPathNotFound, path)
		}
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].OlderThan(images[j])
	})

	return images, nil
}

// fileKey identifies the file behind path, so a file reached through a
// relative path, an absolute path or a symlink is only collected once
func fileKey(fs afero.Fs, path string) string {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	if _, ok := fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(key); err == nil {
			key = resolved
		}
	}
	return key
}

// walkRoot makes the walk descend into a directory given as a symlink.
// Paths reported by the walk still start with the name the user gave.
func walkRoot(path string) string {
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return path
	}
	return path + string(filepath.Separator)
}

// FingerprintImages computes a fingerprint for every image in place. Failures
// are logged and leave the image without a fingerprint; only cancellation of
// ctx is returned as an error.
func FingerprintImages(ctx context.Context, images []types.Image, fp Fingerprinter, options ScanOptions) (FingerprintStats, error) {
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var barOut io.Writer
	if options.ShowProgress {
		barOut = options.ProgressOut
		if barOut == nil {
			barOut = os.Stderr
		}
	}

	resultsChan := make(chan ProcessImageResult, 100)
	tracker := NewProgressTracker(len(images), barOut, resultsChan)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range images {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resultsChan <- fingerprintImage(&images[i], fp)
			return nil
		})
	}

	err := g.Wait()
	close(resultsChan)
	stats := tracker.Wait()

	if err == nil {
		err = ctx.Err()
	}

	return stats, err
}

// ScanAndFingerprint collects and fingerprints the images named by options
func ScanAndFingerprint(ctx context.Context, fs afero.Fs, fp Fingerprinter, options ScanOptions) ([]types.Image, FingerprintStats, error) {
	images, err := CollectImages(fs, options)
	if err != nil {
		return nil, FingerprintStats{}, err
	}

	logging.DebugLog("Found %d image files to process", len(images))

	stats, err := FingerprintImages(ctx, images, fp, options)
	if err != nil {
		return nil, stats, err
	}
	return images, stats, nil
}

// fingerprintImage processes a single image, recovering from decoder panics
func fingerprintImage(image *types.Image, fp Fingerprinter) (result ProcessImageResult) {
	result.Path = image.Path

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Errorf("panic while fingerprinting: %v", r)
		}
	}()

	fingerprint, err := fp.Fingerprint(image.Path)
	if err != nil {
		result.Error = err
		return result
	}

	image.Fingerprint = fingerprint
	result.Success = true
	return result
}
