package vision

import "context"

// Provider is the capability contract for the underlying vision backend.
// Implementations wrap an on-device or remote detector; the perception core
// consumes this interface only and never talks to a backend directly.
//
// A detection that finds nothing returns a nil/empty result and a nil error:
// absence is a normal per-frame outcome, not a fault. Unreadable input
// degrades to absence as well.
type Provider interface {
	// DetectFaces detects faces in an encoded image or video frame.
	// Landmark and bounding-box coordinates follow the detector-native
	// convention documented on Face.
	DetectFaces(ctx context.Context, image []byte) ([]Face, error)

	// DetectDocument detects at most one document quadrilateral.
	// Returns nil when no quadrilateral is found or the backend does not
	// support document detection.
	DetectDocument(ctx context.Context, image []byte) (*DocumentObservation, error)

	// RecognizeText recognizes printed text lines in an encoded image.
	RecognizeText(ctx context.Context, image []byte) ([]TextLine, error)
}

// Point is a 2D point. The coordinate space depends on where the point
// appears; see the field documentation of the containing type.
type Point struct {
	X float64
	Y float64
}

// BoundingBox is a normalized face bounding box in the detector-native
// convention: origin at the bottom-left of the image, all values in [0,1].
type BoundingBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Landmarks holds the named landmark point sequences of a detected face.
// Points are normalized relative to the face bounding box with a bottom-left
// origin. Sequences are ordered but variable length depending on detector
// richness; consumers must check lengths before computing geometry (eye
// sequences need at least 6 points, the outer-lip sequence at least 8).
type Landmarks struct {
	LeftEye      []Point
	RightEye     []Point
	LeftEyebrow  []Point
	RightEyebrow []Point
	Nose         []Point
	OuterLips    []Point
	FaceContour  []Point
}

// Face is a raw per-frame face detection as produced by the backend.
// Values are never mutated after creation; each frame produces fresh ones.
type Face struct {
	BoundingBox BoundingBox
	Confidence  float64    // detection confidence in [0,1]
	Landmarks   *Landmarks // nil when landmark detection is off or unsupported

	// Head pose in radians, nil when the backend does not report pose.
	Yaw   *float64
	Pitch *float64
	Roll  *float64
}

// DocumentObservation is a detected document quadrilateral. Corners are
// normalized to [0,1] with a top-left image origin, ordered top-left,
// top-right, bottom-right, bottom-left.
type DocumentObservation struct {
	Corners    [4]Point
	Confidence float64
}

// TextLine is a recognized printed text line and its approximate vertical
// position in the image (0 = top, 1 = bottom), used to order lines.
type TextLine struct {
	Text             string
	VerticalPosition float64
}

// AspectRatio returns width/height of the bounding box, or 0 for a
// degenerate box.
func (b BoundingBox) AspectRatio() float64 {
	if b.Height == 0 {
		return 0
	}
	return b.Width / b.Height
}
