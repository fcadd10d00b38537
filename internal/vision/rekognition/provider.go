// Package rekognition implements the vision provider contract on top of the
// AWS Rekognition DetectFaces and DetectText APIs.
package rekognition

import (
	"context"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/ocula-id/ocula/internal/vision"
)

const (
	// maxImageSize is the maximum image size accepted by Rekognition (5MB).
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing.
	minImageSize = 100
)

// Provider implements vision.Provider using AWS Rekognition.
type Provider struct {
	client *Client
}

var _ vision.Provider = (*Provider)(nil)

// NewProvider creates a Rekognition-backed vision provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return &Provider{client: client}, nil
}

// validateImage checks if image data is within Rekognition's accepted range.
func validateImage(image []byte) error {
	if len(image) == 0 {
		return ErrInvalidImage
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// DetectFaces detects faces via the Rekognition DetectFaces API. Rekognition
// reports boxes and landmarks in whole-image coordinates with a top-left
// origin and pose angles in degrees; both are converted to the detector
// contract here. No face found is an empty result, not an error.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]vision.Face, error) {
	if err := validateImage(image); err != nil {
		return nil, err
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: image,
		},
		Attributes: []types.Attribute{types.AttributeAll},
	}

	output, err := p.client.rekognition.DetectFaces(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", parseAWSError(err))
	}

	faces := make([]vision.Face, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		faces = append(faces, mapFaceDetail(detail))
	}
	return faces, nil
}

// DetectDocument reports absence: Rekognition has no document quadrilateral
// API. Document scanning runs on providers with native rectangle detection.
func (p *Provider) DetectDocument(ctx context.Context, image []byte) (*vision.DocumentObservation, error) {
	return nil, nil
}

// RecognizeText recognizes printed text lines via the Rekognition DetectText
// API. Word-level detections are skipped; each LINE detection carries its
// bounding-box top as the vertical position.
func (p *Provider) RecognizeText(ctx context.Context, image []byte) ([]vision.TextLine, error) {
	if err := validateImage(image); err != nil {
		return nil, err
	}

	input := &rekognition.DetectTextInput{
		Image: &types.Image{
			Bytes: image,
		},
	}

	output, err := p.client.rekognition.DetectText(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("detect text: %w", parseAWSError(err))
	}

	lines := make([]vision.TextLine, 0, len(output.TextDetections))
	for _, det := range output.TextDetections {
		if det.Type != types.TextTypesLine || det.DetectedText == nil {
			continue
		}
		if det.Confidence != nil && *det.Confidence < p.client.config.MinTextConfidence {
			continue
		}
		vertical := 0.0
		if det.Geometry != nil && det.Geometry.BoundingBox != nil && det.Geometry.BoundingBox.Top != nil {
			vertical = float64(*det.Geometry.BoundingBox.Top)
		}
		lines = append(lines, vision.TextLine{
			Text:             *det.DetectedText,
			VerticalPosition: vertical,
		})
	}
	return lines, nil
}

// mapFaceDetail converts one Rekognition face into the detector contract:
// the box flips from top-left to bottom-left origin, landmarks become
// box-relative, and pose degrees become radians.
func mapFaceDetail(detail types.FaceDetail) vision.Face {
	box := vision.BoundingBox{
		X:      f64(detail.BoundingBox.Left),
		Y:      1 - f64(detail.BoundingBox.Top) - f64(detail.BoundingBox.Height),
		Width:  f64(detail.BoundingBox.Width),
		Height: f64(detail.BoundingBox.Height),
	}

	face := vision.Face{
		BoundingBox: box,
		Landmarks:   mapLandmarks(detail.Landmarks, detail.BoundingBox),
	}
	if detail.Confidence != nil {
		face.Confidence = float64(*detail.Confidence) / 100
	}
	if detail.Pose != nil {
		face.Yaw = degPtr(detail.Pose.Yaw)
		face.Pitch = degPtr(detail.Pose.Pitch)
		face.Roll = degPtr(detail.Pose.Roll)
	}
	return face
}

// mapLandmarks assembles the named landmark sequences from Rekognition's
// typed landmark list. Rekognition exposes four points per eye and mouth
// (left, up, right, down); corner points are doubled so the sequences reach
// the minimum lengths the geometry consumers expect.
func mapLandmarks(marks []types.Landmark, box *types.BoundingBox) *vision.Landmarks {
	if len(marks) == 0 {
		return nil
	}

	byType := make(map[types.LandmarkType]vision.Point, len(marks))
	for _, m := range marks {
		if m.X == nil || m.Y == nil {
			continue
		}
		byType[m.Type] = relativePoint(float64(*m.X), float64(*m.Y), box)
	}

	leftEye, leftOK := eyeSequence(byType,
		types.LandmarkTypeLeftEyeLeft, types.LandmarkTypeLeftEyeUp,
		types.LandmarkTypeLeftEyeRight, types.LandmarkTypeLeftEyeDown)
	rightEye, rightOK := eyeSequence(byType,
		types.LandmarkTypeRightEyeLeft, types.LandmarkTypeRightEyeUp,
		types.LandmarkTypeRightEyeRight, types.LandmarkTypeRightEyeDown)
	lips, lipsOK := mouthSequence(byType)

	if !leftOK && !rightOK && !lipsOK {
		return nil
	}

	lm := &vision.Landmarks{}
	if leftOK {
		lm.LeftEye = leftEye
	}
	if rightOK {
		lm.RightEye = rightEye
	}
	if lipsOK {
		lm.OuterLips = lips
	}
	if nose, ok := byType[types.LandmarkTypeNose]; ok {
		lm.Nose = []vision.Point{nose}
	}
	return lm
}

// eyeSequence builds the six-point eye contour expected by the aspect-ratio
// geometry: corners p1/p4, and the up/down points doubled as p2/p3 and
// p6/p5.
func eyeSequence(byType map[types.LandmarkType]vision.Point, left, up, right, down types.LandmarkType) ([]vision.Point, bool) {
	l, okL := byType[left]
	u, okU := byType[up]
	r, okR := byType[right]
	d, okD := byType[down]
	if !okL || !okU || !okR || !okD {
		return nil, false
	}
	return []vision.Point{l, u, u, r, d, d}, true
}

// mouthSequence builds the eight-point outer-lip contour: corner and
// up/down points doubled so width reads from index 0/4 and height from
// index 2/6.
func mouthSequence(byType map[types.LandmarkType]vision.Point) ([]vision.Point, bool) {
	l, okL := byType[types.LandmarkTypeMouthLeft]
	u, okU := byType[types.LandmarkTypeMouthUp]
	r, okR := byType[types.LandmarkTypeMouthRight]
	d, okD := byType[types.LandmarkTypeMouthDown]
	if !okL || !okU || !okR || !okD {
		return nil, false
	}
	return []vision.Point{l, l, u, u, r, r, d, d}, true
}

// relativePoint converts a whole-image top-left-origin landmark into the
// box-relative bottom-left-origin contract.
func relativePoint(x, y float64, box *types.BoundingBox) vision.Point {
	if box == nil || f64(box.Width) == 0 || f64(box.Height) == 0 {
		return vision.Point{X: x, Y: 1 - y}
	}
	return vision.Point{
		X: (x - f64(box.Left)) / f64(box.Width),
		Y: 1 - (y-f64(box.Top))/f64(box.Height),
	}
}

func f64(v *float32) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}

func degPtr(deg *float32) *float64 {
	if deg == nil {
		return nil
	}
	rad := float64(*deg) * math.Pi / 180
	return &rad
}
