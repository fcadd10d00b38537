package quality

import (
	"image"

	"github.com/ocula-id/ocula/internal/imaging"
)

// glareChannelFloor is the 8-bit channel value above which a pixel counts as
// overexposed; all three channels must exceed it.
const glareChannelFloor = 250

// Metrics are the device-independent raster scores computed from a decoded
// image, plus the face-geometry scores folded in for selfies.
type Metrics struct {
	// BlurScore is the variance of the discrete Laplacian over a grayscale
	// rendering, excluding the one-pixel border. Low variance means blurry.
	BlurScore float64 `json:"blur_score"`
	// Brightness is the mean perceptual luminance in [0,1].
	Brightness float64 `json:"brightness"`
	// GlareRatio is the fraction of pixels with R, G and B all above 250/255.
	GlareRatio float64 `json:"glare_ratio"`

	// Selfie-only scores, nil for plain image checks.
	FaceConfidence   *float64 `json:"face_confidence,omitempty"`
	FaceAreaRatio    *float64 `json:"face_area_ratio,omitempty"`
	FaceCenterOffset *float64 `json:"face_center_offset,omitempty"`
}

// ComputeMetrics calculates the three raster metrics in two passes: one over
// the color raster for brightness and glare, one over a grayscale rendering
// for the Laplacian blur score.
func ComputeMetrics(img image.Image) Metrics {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return Metrics{}
	}

	var lumSum float64
	glareCount := 0
	// 16-bit channel threshold equivalent of 250/255.
	const glare16 = glareChannelFloor * 257

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			lumSum += imaging.Luminance(r, g, b)
			if r > glare16 && g > glare16 && b > glare16 {
				glareCount++
			}
		}
	}

	return Metrics{
		BlurScore:  laplacianVariance(imaging.Grayscale(img)),
		Brightness: lumSum / float64(total),
		GlareRatio: float64(glareCount) / float64(total),
	}
}

// laplacianVariance computes the variance of the 4-neighbor discrete
// Laplacian (-4*center + top + bottom + left + right) over the interior of a
// grayscale raster. A flat image scores 0; sharp detail scores high.
func laplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
	}

	count := (w - 2) * (h - 2)
	var sum, sumSq float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			lap := -4*at(x, y) + at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y)
			sum += lap
			sumSq += lap * lap
		}
	}

	mean := sum / float64(count)
	return sumSq/float64(count) - mean*mean
}
