package imageprocessor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os/exec"
	"strings"
	"sync"

	"imagededup/logging"

	"github.com/barasher/go-exiftool"
)

// Embedded preview tags, largest first
var previewTags = []string{
	"LargestImagePreview",
	"PreviewImage",
	"JpgFromRaw",
	"OtherImage",
	"ThumbnailImage",
}

// exiftool returns one JSON document per file; previews are several megabytes
// once base64 encoded
const exiftoolMaxOutput = 256 << 20

// RawPreviewLoader decodes the JPEG preview embedded in RAW camera files.
// One exiftool process is started on first use and shared by every caller.
type RawPreviewLoader struct {
	BaseImageLoader

	once    sync.Once
	et      *exiftool.Exiftool
	initErr error
}

// NewRawPreviewLoader creates a loader for RAW formats backed by exiftool
func NewRawPreviewLoader() *RawPreviewLoader {
	return &RawPreviewLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: rawFormats,
		},
	}
}

func (l *RawPreviewLoader) tool() (*exiftool.Exiftool, error) {
	l.once.Do(func() {
		l.et, l.initErr = exiftool.NewExiftool(
			exiftool.ExtractAllBinaryMetadata(),
			exiftool.Buffer(make([]byte, 64*1024), exiftoolMaxOutput),
		)
		if l.initErr != nil {
			l.initErr = fmt.Errorf("failed to initialize exiftool: %w", l.initErr)
		}
	})
	return l.et, l.initErr
}

// LoadImage finds the largest embedded preview and decodes it
func (l *RawPreviewLoader) LoadImage(path string) (image.Image, error) {
	et, err := l.tool()
	if err != nil {
		return nil, err
	}

	fileInfos := et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return nil, newImageLoadError("no metadata extracted", path)
	}

	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return nil, fmt.Errorf("error extracting metadata from %s: %w", path, fileInfo.Err)
	}

	for _, tag := range previewTags {
		value, ok := fileInfo.Fields[tag]
		if !ok {
			continue
		}

		data, err := decodeBinaryField(value)
		if err != nil {
			logging.DebugLog("exiftool could not extract %s from %s: %v", tag, path, err)
			continue
		}

		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			logging.DebugLog("embedded %s in %s is not decodable: %v", tag, path, err)
			continue
		}
		return img, nil
	}

	return nil, newImageLoadError("no decodable embedded preview", path)
}

// Close stops the exiftool process, if one was started
func (l *RawPreviewLoader) Close() error {
	if l.et == nil {
		return nil
	}
	return l.et.Close()
}

// decodeBinaryField turns a binary tag from exiftool's JSON output back into bytes
func decodeBinaryField(value interface{}) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected value of type %T", value)
	}

	encoded, ok := strings.CutPrefix(s, "base64:")
	if !ok {
		return nil, fmt.Errorf("not binary data: %q", s)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty binary data")
	}
	return data, nil
}

// hasExiftool checks if exiftool is available on the system
func hasExiftool() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}
