package imageprocessor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
)

// maxPreviewSize bounds a single embedded JPEG
const maxPreviewSize = 20 * 1024 * 1024

var (
	jpegStart = []byte{0xFF, 0xD8, 0xFF}
	jpegEnd   = []byte{0xFF, 0xD9}
)

// CR3PreviewLoader decodes the JPEG preview of Canon CR3 files in pure Go.
// It is used when exiftool is not installed.
type CR3PreviewLoader struct {
	BaseImageLoader
}

// NewCR3PreviewLoader creates a CR3 loader that needs no external tools
func NewCR3PreviewLoader() *CR3PreviewLoader {
	return &CR3PreviewLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatCR3},
		},
	}
}

// LoadImage extracts and decodes the embedded preview of a CR3 file
func (l *CR3PreviewLoader) LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	preview, err := findCR3Preview(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}

	img, _, err := image.Decode(bytes.NewReader(preview))
	if err != nil {
		return nil, newImageLoadError(fmt.Sprintf("embedded preview is not decodable (%v)", err), path)
	}
	return img, nil
}

// isoBox is an ISO base media file format box header
type isoBox struct {
	Type       string
	Size       uint64 // whole box, header included
	HeaderSize uint64
}

// readISOBoxHeader reads the box header at the start of r. A size of zero
// means the box extends to the end of the file; remaining is used then.
func readISOBoxHeader(r io.Reader, remaining uint64) (isoBox, error) {
	var size uint32
	var boxType [4]byte

	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return isoBox{}, err
	}
	if _, err := io.ReadFull(r, boxType[:]); err != nil {
		return isoBox{}, err
	}

	box := isoBox{Type: string(boxType[:]), Size: uint64(size), HeaderSize: 8}

	switch box.Size {
	case 0:
		box.Size = remaining
	case 1:
		// Extended size (64-bit)
		var extended uint64
		if err := binary.Read(r, binary.BigEndian, &extended); err != nil {
			return isoBox{}, err
		}
		box.Size = extended
		box.HeaderSize = 16
	}

	if box.Size < box.HeaderSize || box.Size > remaining {
		return isoBox{}, fmt.Errorf("malformed %q box", box.Type)
	}
	return box, nil
}

// findCR3Preview returns the largest JPEG stored in the file's uuid boxes,
// falling back to a signature scan of the whole file.
func findCR3Preview(data []byte) ([]byte, error) {
	first, err := readISOBoxHeader(bytes.NewReader(data), uint64(len(data)))
	if err != nil || first.Type != "ftyp" {
		return nil, errors.New("not a CR3 file (first box is not ftyp)")
	}

	var best []byte
	for offset := uint64(0); offset+8 <= uint64(len(data)); {
		box, err := readISOBoxHeader(bytes.NewReader(data[offset:]), uint64(len(data))-offset)
		if err != nil {
			break
		}

		// Canon keeps the previews in uuid boxes
		if box.Type == "uuid" {
			if jpeg := largestJPEG(data[offset+box.HeaderSize : offset+box.Size]); len(jpeg) > len(best) {
				best = jpeg
			}
		}
		offset += box.Size
	}

	if best == nil {
		best = largestJPEG(data)
	}
	if best == nil {
		return nil, errors.New("no JPEG preview found in CR3 file")
	}
	return best, nil
}

// largestJPEG scans data for SOI...EOI runs and returns the longest one
func largestJPEG(data []byte) []byte {
	var best []byte

	for pos := 0; pos < len(data); {
		start := bytes.Index(data[pos:], jpegStart)
		if start < 0 {
			break
		}
		start += pos

		end := bytes.Index(data[start+len(jpegStart):], jpegEnd)
		if end < 0 {
			break
		}
		end += start + len(jpegStart) + len(jpegEnd)

		if candidate := data[start:end]; len(candidate) > len(best) && len(candidate) <= maxPreviewSize {
			best = candidate
		}
		pos = end
	}

	return best
}
