package docscan

import (
	"image"
	"image/color"
	"math"

	"github.com/ocula-id/ocula/internal/vision"
)

// minOutputDim guards against rectifying into a degenerate sliver.
const minOutputDim = 8

// Rectify maps the four detected corners (normalized, top-left origin, in
// top-left/top-right/bottom-right/bottom-left order) onto an axis-aligned
// output image via a projective transform. The output dimensions follow the
// longest opposite edges of the quadrilateral in source pixels.
//
// Returns (nil, false) when the transform is unresolvable (a degenerate or
// self-intersecting quadrilateral) rather than producing a malformed image.
func Rectify(src image.Image, corners [4]vision.Point) (image.Image, bool) {
	bounds := src.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	// Corners in source pixel space.
	var px [4]vision.Point
	for i, c := range corners {
		px[i] = vision.Point{X: c.X * w, Y: c.Y * h}
	}

	outW := int(math.Round(math.Max(dist(px[0], px[1]), dist(px[3], px[2]))))
	outH := int(math.Round(math.Max(dist(px[0], px[3]), dist(px[1], px[2]))))
	if outW < minOutputDim || outH < minOutputDim {
		return nil, false
	}

	hom, ok := homography(outW, outH, px)
	if !ok {
		return nil, false
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			sx, sy, ok := hom.apply(float64(x), float64(y))
			if !ok {
				return nil, false
			}
			dst.Set(x, y, sampleBilinear(src, sx+float64(bounds.Min.X), sy+float64(bounds.Min.Y)))
		}
	}
	return dst, true
}

// homographyMatrix is a 3x3 projective transform with the bottom-right
// element fixed at 1.
type homographyMatrix [8]float64

// apply maps a destination point to source coordinates. Reports false when
// the point projects to infinity (w ~ 0).
func (m homographyMatrix) apply(x, y float64) (float64, float64, bool) {
	wDen := m[6]*x + m[7]*y + 1
	if math.Abs(wDen) < 1e-12 {
		return 0, 0, false
	}
	sx := (m[0]*x + m[1]*y + m[2]) / wDen
	sy := (m[3]*x + m[4]*y + m[5]) / wDen
	return sx, sy, true
}

// homography solves the 8-unknown projective transform mapping the output
// rectangle corners (0,0), (w,0), (w,h), (0,h) to the four source corners.
func homography(w, h int, src [4]vision.Point) (homographyMatrix, bool) {
	dst := [4]vision.Point{
		{X: 0, Y: 0},
		{X: float64(w), Y: 0},
		{X: float64(w), Y: float64(h)},
		{X: 0, Y: float64(h)},
	}

	// Two equations per correspondence:
	//   sx = h0*x + h1*y + h2 - h6*x*sx - h7*y*sx
	//   sy = h3*x + h4*y + h5 - h6*x*sy - h7*y*sy
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := dst[i].X, dst[i].Y
		sx, sy := src[i].X, src[i].Y
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * sx, -y * sx, sx}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * sy, -y * sy, sy}
	}

	// Gaussian elimination with partial pivoting.
	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-9 {
			return homographyMatrix{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]

		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			factor := a[row][col] / a[col][col]
			for k := col; k < 9; k++ {
				a[row][k] -= factor * a[col][k]
			}
		}
	}

	var m homographyMatrix
	for i := 0; i < 8; i++ {
		m[i] = a[i][8] / a[i][i]
	}
	return m, true
}

// sampleBilinear samples the source image at a fractional position,
// clamping to the image border.
func sampleBilinear(src image.Image, x, y float64) color.Color {
	bounds := src.Bounds()

	x0 := clampInt(int(math.Floor(x)), bounds.Min.X, bounds.Max.X-1)
	y0 := clampInt(int(math.Floor(y)), bounds.Min.Y, bounds.Max.Y-1)
	x1 := clampInt(x0+1, bounds.Min.X, bounds.Max.X-1)
	y1 := clampInt(y0+1, bounds.Min.Y, bounds.Max.Y-1)

	fx := clampFloat(x-float64(x0), 0, 1)
	fy := clampFloat(y-float64(y0), 0, 1)

	c00 := src.At(x0, y0)
	c10 := src.At(x1, y0)
	c01 := src.At(x0, y1)
	c11 := src.At(x1, y1)

	lerp := func(a, b uint32, t float64) float64 {
		return float64(a) + (float64(b)-float64(a))*t
	}

	r00, g00, b00, a00 := c00.RGBA()
	r10, g10, b10, a10 := c10.RGBA()
	r01, g01, b01, a01 := c01.RGBA()
	r11, g11, b11, a11 := c11.RGBA()

	blend := func(v00, v10, v01, v11 uint32) uint8 {
		top := lerp(v00, v10, fx)
		bot := lerp(v01, v11, fx)
		return uint8((top + (bot-top)*fy) / 257.0)
	}

	return color.RGBA{
		R: blend(r00, r10, r01, r11),
		G: blend(g00, g10, g01, g11),
		B: blend(b00, b10, b01, b11),
		A: blend(a00, a10, a01, a11),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
