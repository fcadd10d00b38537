// Package imaging provides decoding and raster helpers shared by the
// perception core. All metrics downstream operate on image.Image values
// produced here; no package other than this one touches codecs.
package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // register PNG decoder

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrUndecodable is returned when the input bytes are not a supported image.
var ErrUndecodable = errors.New("imaging: undecodable image data")

// jpegQuality is the encoding quality for captured stills.
const jpegQuality = 85

// Decode decodes JPEG, PNG or WebP bytes into an image.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrUndecodable
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUndecodable
	}
	return img, nil
}

// DecodeConfig reads the dimensions and color model of encoded image bytes
// without decoding the pixel data.
func DecodeConfig(data []byte) (image.Config, error) {
	if len(data) == 0 {
		return image.Config{}, ErrUndecodable
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, ErrUndecodable
	}
	return cfg, nil
}

// EncodeJPEG encodes an image as a compressed JPEG still.
func EncodeJPEG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrUndecodable
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Luminance returns the perceptual luminance of an RGBA sample in [0,1]
// using the ITU-R BT.601 weights.
func Luminance(r, g, b uint32) float64 {
	// RGBA() returns 16-bit channels.
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
}

// Grayscale renders an image into an 8-bit grayscale raster using the same
// luminance weights as Luminance, so the blur and brightness metrics agree.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			v := Luminance(r, g, b) * 255.0
			if v > 255 {
				v = 255
			}
			gray.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return gray
}

// Downscale resizes an image to fit within maxDim on its longest side using
// bilinear interpolation. Images already within bounds are returned as-is.
func Downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
