package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"imagededup/logging"
)

// ImageLoaderRegistry maintains a registry of image loaders keyed by extension
type ImageLoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	mutex         sync.RWMutex
}

// NewImageLoaderRegistry creates a new image loader registry
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	// Register standard image loaders for common formats
	registry.registerStandardLoaders()

	// Register RAW preview extraction
	registry.registerRawLoaders()

	return registry
}

// registerStandardLoaders registers loaders for formats with a Go decoder
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	standardLoader := NewStandardImageLoader()

	for _, ext := range extensionsFor(standardLoader.SupportedFormats...) {
		r.RegisterLoader(ext, standardLoader)
	}

	// Files given explicitly or with --force fall back to the decoders
	r.defaultLoader = standardLoader
}

// registerRawLoaders registers the embedded preview loaders for RAW formats.
// exiftool handles every RAW format; without it only CR3 previews are read.
func (r *ImageLoaderRegistry) registerRawLoaders() {
	var rawLoader ImageLoader
	var formats []FormatType

	if hasExiftool() {
		loader := NewRawPreviewLoader()
		rawLoader, formats = loader, loader.SupportedFormats
		logging.DebugLog("Registered RawPreviewLoader")
	} else {
		loader := NewCR3PreviewLoader()
		rawLoader, formats = loader, loader.SupportedFormats
		logging.DebugLog("exiftool not found, only CR3 previews can be read natively")
	}

	for _, ext := range extensionsFor(formats...) {
		r.RegisterLoader(ext, rawLoader)
	}
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = loader
}

// GetLoader returns the appropriate loader for the given path
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := r.loaders[ext]; ok {
		return loader
	}

	return r.defaultLoader
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	_, ok := r.loaders[ext]
	return ok
}

// LoadImage loads an image using the appropriate registered loader
func (r *ImageLoaderRegistry) LoadImage(path string) (image.Image, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return nil, fmt.Errorf("no suitable loader found for: %s", path)
	}

	return loader.LoadImage(path)
}

// Close releases loaders holding external processes
func (r *ImageLoaderRegistry) Close() error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	closed := make(map[ImageLoader]bool)
	var errs []error
	for _, loader := range r.loaders {
		closer, ok := loader.(io.Closer)
		if !ok || closed[loader] {
			continue
		}
		closed[loader] = true
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
