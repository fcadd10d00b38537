package liveness

import (
	"math"

	"github.com/ocula-id/ocula/internal/vision"
)

// Minimum landmark richness for the geometric signals. Sparser landmark sets
// degrade the signal to "undetected" rather than erroring.
const (
	minEyePoints   = 6
	minMouthPoints = 8
)

// eyeAspectRatio computes the EAR over the first six points of an eye
// landmark sequence:
//
//	EAR = (dist(p2,p6) + dist(p3,p5)) / (2 * dist(p1,p4))
//
// Open eyes score around 0.3; closed eyes drop toward 0. Reports false when
// the sequence is too sparse or degenerate.
func eyeAspectRatio(eye []vision.Point) (float64, bool) {
	if len(eye) < minEyePoints {
		return 0, false
	}
	horizontal := pointDist(eye[0], eye[3])
	if horizontal == 0 {
		return 0, false
	}
	vertical := pointDist(eye[1], eye[5]) + pointDist(eye[2], eye[4])
	return vertical / (2 * horizontal), true
}

// averageEAR averages the eye aspect ratio across both eyes; if only one eye
// has enough landmarks, that eye alone is used.
func averageEAR(left, right []vision.Point) (float64, bool) {
	leftEAR, leftOK := eyeAspectRatio(left)
	rightEAR, rightOK := eyeAspectRatio(right)

	switch {
	case leftOK && rightOK:
		return (leftEAR + rightEAR) / 2, true
	case leftOK:
		return leftEAR, true
	case rightOK:
		return rightEAR, true
	default:
		return 0, false
	}
}

// mouthRatio computes the outer-lip width-to-height ratio: dist(pt0,pt4) /
// dist(pt2,pt6). Smiles stretch the mouth wide and flat, pushing the ratio
// up. Reports false when the sequence is too sparse or degenerate.
func mouthRatio(lips []vision.Point) (float64, bool) {
	if len(lips) < minMouthPoints {
		return 0, false
	}
	height := pointDist(lips[2], lips[6])
	if height == 0 {
		return 0, false
	}
	return pointDist(lips[0], lips[4]) / height, true
}

func pointDist(a, b vision.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
