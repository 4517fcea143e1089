package imaging

import (
	"bytes"
	"image"
	"math"

	// Raster formats accepted for X-ray uploads.
	_ "image/jpeg"
	_ "image/png"
)

// Features are grayscale pixel statistics of the decoded X-ray.
type Features struct {
	Mean        float64
	StdDev      float64
	Contrast    float64 // max - min luminance
	DarkRatio   float64 // fraction of pixels below the dark threshold
	BrightRatio float64 // fraction of pixels above the bright threshold
}

const (
	darkThreshold   = 90
	brightThreshold = 200
)

// extractFeatures decodes the image to grayscale and computes the pixel
// statistics the probability heuristic consumes.
func extractFeatures(blob []byte) (Features, error) {
	img, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return Features{}, err
	}

	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return Features{}, image.ErrFormat
	}

	var sum, sumSq float64
	minVal, maxVal := 255.0, 0.0
	dark, bright := 0, 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// Standard luma conversion, scaled to 0-255.
			lum := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0

			sum += lum
			sumSq += lum * lum
			if lum < minVal {
				minVal = lum
			}
			if lum > maxVal {
				maxVal = lum
			}
			if lum < darkThreshold {
				dark++
			}
			if lum > brightThreshold {
				bright++
			}
		}
	}

	n := float64(total)
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	return Features{
		Mean:        mean,
		StdDev:      math.Sqrt(variance),
		Contrast:    maxVal - minVal,
		DarkRatio:   float64(dark) / n,
		BrightRatio: float64(bright) / n,
	}, nil
}
