// Package facedetect wraps a vision.Provider and normalizes its raw face
// detections into image-space results the rest of the perception core
// consumes.
package facedetect

import (
	"context"
	"image"

	"github.com/ocula-id/ocula/internal/imaging"
	"github.com/ocula-id/ocula/internal/vision"
)

// DefaultMinConfidence is the detection confidence cutoff below which faces
// are silently filtered.
const DefaultMinConfidence = 0.5

// NormRect is a normalized rectangle with a top-left image origin, all
// values in [0,1].
type NormRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Center returns the normalized center point of the rectangle.
func (r NormRect) Center() vision.Point {
	return vision.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Area returns the normalized area of the rectangle.
func (r NormRect) Area() float64 {
	return r.Width * r.Height
}

// FaceLandmarks holds landmark point sequences in image pixel coordinates
// with a top-left origin.
type FaceLandmarks struct {
	LeftEye      []vision.Point
	RightEye     []vision.Point
	LeftEyebrow  []vision.Point
	RightEyebrow []vision.Point
	Nose         []vision.Point
	OuterLips    []vision.Point
	FaceContour  []vision.Point
}

// DetectedFace is a per-frame face detection in image space. Values are
// produced fresh per frame and never mutated; the caller of that frame's
// detection owns them.
type DetectedFace struct {
	Bounds     image.Rectangle // image-space pixels, top-left origin
	Norm       NormRect        // same box normalized to [0,1]
	Confidence float64
	Landmarks  *FaceLandmarks

	// Head pose in radians, nil when the backend does not report it.
	Yaw   *float64
	Pitch *float64
	Roll  *float64
}

// Options tunes the detector. The zero value is not usable; use
// DefaultOptions.
type Options struct {
	// MinConfidence filters detections below this confidence.
	MinConfidence float64
}

// DefaultOptions returns the production detector settings.
func DefaultOptions() Options {
	return Options{MinConfidence: DefaultMinConfidence}
}

// Detector converts raw provider detections into image-space DetectedFace
// values. It is stateless and safe for concurrent use.
type Detector struct {
	provider vision.Provider
	opts     Options
}

// NewDetector creates a face detector over the given vision provider.
func NewDetector(provider vision.Provider, opts Options) *Detector {
	return &Detector{provider: provider, opts: opts}
}

// Detect runs face detection on an encoded image or video frame and returns
// zero or more faces above the confidence threshold, with landmarks mapped
// into image pixel coordinates. Invalid or unreadable input yields a nil
// slice and nil error: absence is the signal, not a fault.
func (d *Detector) Detect(ctx context.Context, frame []byte) ([]DetectedFace, error) {
	cfg, err := imaging.DecodeConfig(frame)
	if err != nil {
		return nil, nil
	}

	raw, err := d.provider.DetectFaces(ctx, frame)
	if err != nil {
		return nil, err
	}

	var faces []DetectedFace
	for _, f := range raw {
		if f.Confidence < d.opts.MinConfidence {
			continue
		}
		faces = append(faces, mapFace(f, cfg.Width, cfg.Height))
	}
	return faces, nil
}

// mapFace converts a detector-native face (bottom-left-origin, bbox-relative
// landmarks) to top-left-origin image pixel coordinates.
func mapFace(f vision.Face, imgW, imgH int) DetectedFace {
	bb := f.BoundingBox
	w := float64(imgW)
	h := float64(imgH)

	// The detector reports the box with a bottom-left origin; flip Y.
	norm := NormRect{
		X:      bb.X,
		Y:      1 - bb.Y - bb.Height,
		Width:  bb.Width,
		Height: bb.Height,
	}

	face := DetectedFace{
		Bounds: image.Rect(
			int(norm.X*w),
			int(norm.Y*h),
			int((norm.X+norm.Width)*w),
			int((norm.Y+norm.Height)*h),
		),
		Norm:       norm,
		Confidence: f.Confidence,
		Yaw:        f.Yaw,
		Pitch:      f.Pitch,
		Roll:       f.Roll,
	}

	if f.Landmarks != nil {
		face.Landmarks = &FaceLandmarks{
			LeftEye:      mapPoints(f.Landmarks.LeftEye, bb, w, h),
			RightEye:     mapPoints(f.Landmarks.RightEye, bb, w, h),
			LeftEyebrow:  mapPoints(f.Landmarks.LeftEyebrow, bb, w, h),
			RightEyebrow: mapPoints(f.Landmarks.RightEyebrow, bb, w, h),
			Nose:         mapPoints(f.Landmarks.Nose, bb, w, h),
			OuterLips:    mapPoints(f.Landmarks.OuterLips, bb, w, h),
			FaceContour:  mapPoints(f.Landmarks.FaceContour, bb, w, h),
		}
	}
	return face
}

// mapPoints maps bounding-box-relative, bottom-left-origin landmark points
// to full-image pixel coordinates with a top-left origin:
//
//	imageX = (bbox.x + p.x*bbox.width) * imageWidth
//	imageY = (1 - bbox.y - p.y*bbox.height) * imageHeight
func mapPoints(points []vision.Point, bb vision.BoundingBox, imgW, imgH float64) []vision.Point {
	if len(points) == 0 {
		return nil
	}
	out := make([]vision.Point, len(points))
	for i, p := range points {
		out[i] = vision.Point{
			X: (bb.X + p.X*bb.Width) * imgW,
			Y: (1 - bb.Y - p.Y*bb.Height) * imgH,
		}
	}
	return out
}
