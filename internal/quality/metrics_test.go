package quality

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func checkerboard(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestComputeMetrics_FlatImageScoresZeroBlur(t *testing.T) {
	m := ComputeMetrics(solid(32, 32, color.RGBA{R: 128, G: 128, B: 128, A: 255}))
	assert.InDelta(t, 0, m.BlurScore, 1e-9)
	assert.InDelta(t, 0.5, m.Brightness, 0.01)
	assert.InDelta(t, 0, m.GlareRatio, 1e-9)
}

func TestComputeMetrics_CheckerboardScoresHighBlur(t *testing.T) {
	m := ComputeMetrics(checkerboard(32, 32))
	assert.Greater(t, m.BlurScore, DefaultProfile().MinBlurScore)
}

func TestComputeMetrics_Brightness(t *testing.T) {
	white := ComputeMetrics(solid(16, 16, color.White))
	assert.InDelta(t, 1.0, white.Brightness, 1e-6)

	black := ComputeMetrics(solid(16, 16, color.Black))
	assert.InDelta(t, 0.0, black.Brightness, 1e-6)
}

func TestComputeMetrics_GlareRatio(t *testing.T) {
	// Quarter of the frame fully saturated.
	img := solid(20, 20, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.White)
		}
	}

	m := ComputeMetrics(img)
	assert.InDelta(t, 0.25, m.GlareRatio, 1e-9)
}

func TestComputeMetrics_NearSaturatedIsNotGlare(t *testing.T) {
	// 249/255 sits just under the overexposure floor.
	m := ComputeMetrics(solid(16, 16, color.RGBA{R: 249, G: 249, B: 249, A: 255}))
	assert.InDelta(t, 0, m.GlareRatio, 1e-9)
}

func TestComputeMetrics_EmptyImage(t *testing.T) {
	m := ComputeMetrics(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.Equal(t, Metrics{}, m)
}
