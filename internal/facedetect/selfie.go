package facedetect

import (
	"fmt"
	"math"
)

// Selfie framing limits. Violations produce human-readable issues for the
// capture UI to render, never hard failures.
const (
	minSelfieFaceArea = 0.15
	maxSelfieFaceArea = 0.60
	maxCenterOffset   = 0.20
	maxSelfieYaw      = 0.3 // radians
)

// ValidateSelfie checks selfie framing on a set of detected faces: exactly
// one face, face area between 15% and 60% of the image, face centered within
// 20% of the image center on both axes, and head yaw within 0.3 rad when the
// detector reports pose. Returns a list of issue strings; empty means the
// framing is acceptable.
func ValidateSelfie(faces []DetectedFace) []string {
	var issues []string

	switch {
	case len(faces) == 0:
		return []string{"no face detected"}
	case len(faces) > 1:
		issues = append(issues, fmt.Sprintf("multiple faces detected (%d), only one person may be in frame", len(faces)))
	}

	face := faces[0]

	area := face.Norm.Area()
	if area < minSelfieFaceArea {
		issues = append(issues, "face too small, move closer to the camera")
	} else if area > maxSelfieFaceArea {
		issues = append(issues, "face too large, move away from the camera")
	}

	center := face.Norm.Center()
	if math.Abs(center.X-0.5) > maxCenterOffset {
		issues = append(issues, "face is not horizontally centered")
	}
	if math.Abs(center.Y-0.5) > maxCenterOffset {
		issues = append(issues, "face is not vertically centered")
	}

	if face.Yaw != nil && math.Abs(*face.Yaw) > maxSelfieYaw {
		issues = append(issues, "face the camera directly")
	}

	return issues
}
