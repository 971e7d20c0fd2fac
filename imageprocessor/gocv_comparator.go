//go:build gocv

package imageprocessor

import (
	"fmt"
	"image"
	"math"
	"math/bits"
	"sort"

	"imagededup/types"

	"gocv.io/x/gocv"
)

// gocvHashBytes is the size of the 8x8 DCT hash
const gocvHashBytes = 8

func init() {
	RegisterComparator("gocv", func(*ImageLoaderRegistry) Comparator {
		return &GoCVComparator{}
	})
}

// GoCVComparator computes a DCT perceptual hash with OpenCV. It reads files
// through OpenCV directly, so the loader registry is not used.
type GoCVComparator struct{}

// Name returns the registry name
func (c *GoCVComparator) Name() string {
	return "gocv"
}

// Fingerprint loads the image in grayscale and hashes it
func (c *GoCVComparator) Fingerprint(path string) (types.Fingerprint, error) {
	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer img.Close()
	if img.Empty() {
		return nil, newImageLoadError("failed to load image with OpenCV", path)
	}
	return ComputePerceptualHash(img)
}

// Distance returns the fraction of differing bits between two hashes
func (c *GoCVComparator) Distance(a, b types.Fingerprint) (float64, error) {
	ha, okA := a.([]byte)
	hb, okB := b.([]byte)
	if !okA || !okB || len(ha) != len(hb) {
		return 0, fingerprintMismatch(c.Name(), a, b)
	}

	diff := 0
	for i := range ha {
		diff += bits.OnesCount8(ha[i] ^ hb[i])
	}
	return float64(diff) / float64(len(ha)*8), nil
}

// ComputePerceptualHash computes a DCT-based perceptual hash for the image
func ComputePerceptualHash(img gocv.Mat) ([]byte, error) {
	if img.Empty() {
		return nil, fmt.Errorf("cannot compute hash for empty image")
	}

	// Resize to 32x32 for DCT
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Point{X: 32, Y: 32}, 0, 0, gocv.InterpolationLinear)

	// Convert to grayscale if not already
	gray := gocv.NewMat()
	defer gray.Close()
	if resized.Channels() != 1 {
		gocv.CvtColor(resized, &gray, gocv.ColorBGRToGray)
	} else {
		resized.CopyTo(&gray)
	}

	floatImg := gocv.NewMat()
	defer floatImg.Close()
	gray.ConvertTo(&floatImg, gocv.MatTypeCV32F)

	dct := gocv.NewMat()
	defer func() { dct.Close() }()
	gocv.DCT(floatImg, &dct, 0)
	if dct.Empty() {
		// Fall back to the direct DCT-II formula
		dct.Close()
		dct = applyDCT(floatImg)
	}

	// Keep the 8x8 low frequency corner
	lowFreq := dct.Region(image.Rect(0, 0, 8, 8))
	defer lowFreq.Close()

	values := make([]float32, 0, 64)
	for y := 0; y < lowFreq.Rows(); y++ {
		for x := 0; x < lowFreq.Cols(); x++ {
			values = append(values, lowFreq.GetFloatAt(y, x))
		}
	}
	median := calculateMedian(values)

	hash := make([]byte, gocvHashBytes)
	for i, val := range values {
		if val >= median {
			hash[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return hash, nil
}

// applyDCT applies a Discrete Cosine Transform when OpenCV's DCT is unavailable
func applyDCT(img gocv.Mat) gocv.Mat {
	rows, cols := img.Rows(), img.Cols()
	result := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV32F)

	for u := 0; u < rows; u++ {
		for v := 0; v < cols; v++ {
			sum := float32(0.0)
			for i := 0; i < rows; i++ {
				for j := 0; j < cols; j++ {
					cosU := float32(math.Cos(math.Pi * float64(u) * (2*float64(i) + 1) / (2 * float64(rows))))
					cosV := float32(math.Cos(math.Pi * float64(v) * (2*float64(j) + 1) / (2 * float64(cols))))
					sum += img.GetFloatAt(i, j) * cosU * cosV
				}
			}

			scaleU := float32(1.0)
			if u == 0 {
				scaleU = 1.0 / float32(math.Sqrt(2.0))
			}
			scaleV := float32(1.0)
			if v == 0 {
				scaleV = 1.0 / float32(math.Sqrt(2.0))
			}

			scaleFactor := (2.0 * scaleU * scaleV) / float32(math.Sqrt(float64(rows*cols)))
			result.SetFloatAt(u, v, sum*scaleFactor)
		}
	}

	return result
}

// calculateMedian calculates the median value of a float32 slice
func calculateMedian(values []float32) float32 {
	sorted := make([]float32, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n%2 == 0:
		return (sorted[n/2-1] + sorted[n/2]) / 2
	default:
		return sorted[n/2]
	}
}
