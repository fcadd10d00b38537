// Package quality scores captured stills for blur, brightness and glare, and
// folds face-geometry checks into selfie verdicts. All findings are returned
// as structured issues for the capture UI to render; nothing here is fatal.
package quality

import (
	"fmt"
	"image"
	"math"

	"github.com/ocula-id/ocula/internal/facedetect"
)

// Report is the outcome of a quality validation.
type Report struct {
	Metrics Metrics `json:"metrics"`
	Issues  []Issue `json:"issues"`
}

// Valid reports whether the capture is acceptable: true iff no issue has
// error severity. Warnings do not block.
func (r Report) Valid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Validator applies a threshold profile to computed metrics. It is stateless
// and safe for concurrent use.
type Validator struct {
	profile Profile
}

// NewValidator creates a validator with the given threshold profile.
func NewValidator(profile Profile) *Validator {
	return &Validator{profile: profile}
}

// Profile returns the active threshold profile.
func (v *Validator) Profile() Profile {
	return v.profile
}

// ValidateImage scores a decoded still for blur, brightness and glare.
func (v *Validator) ValidateImage(img image.Image) Report {
	metrics := ComputeMetrics(img)
	return Report{
		Metrics: metrics,
		Issues:  v.rasterIssues(metrics),
	}
}

// ValidateSelfie scores a decoded selfie still, folding the detected face's
// confidence, area ratio and center offset into the verdict. The face is the
// one detection the capture flow selected; pass nil when detection found
// nothing and the raster checks alone apply.
func (v *Validator) ValidateSelfie(img image.Image, face *facedetect.DetectedFace) Report {
	metrics := ComputeMetrics(img)
	issues := v.rasterIssues(metrics)

	if face != nil {
		confidence := face.Confidence
		area := face.Norm.Area()
		center := face.Norm.Center()
		offset := math.Max(math.Abs(center.X-0.5), math.Abs(center.Y-0.5))

		metrics.FaceConfidence = &confidence
		metrics.FaceAreaRatio = &area
		metrics.FaceCenterOffset = &offset

		if confidence < v.profile.MinFaceConfidence {
			issues = append(issues, Issue{
				Type:     IssueFaceConfidence,
				Message:  fmt.Sprintf("face detection confidence %.2f is low", confidence),
				Severity: SeverityWarning,
			})
		}
		if area < v.profile.MinFaceAreaRatio {
			issues = append(issues, Issue{
				Type:     IssueFaceTooSmall,
				Message:  "face too small, move closer to the camera",
				Severity: SeverityError,
			})
		}
		if offset > v.profile.MaxFaceCenterOffset {
			issues = append(issues, Issue{
				Type:     IssueFaceOffCenter,
				Message:  "face is off-center, align with the frame",
				Severity: SeverityWarning,
			})
		}
	}

	return Report{Metrics: metrics, Issues: issues}
}

func (v *Validator) rasterIssues(m Metrics) []Issue {
	var issues []Issue

	if m.BlurScore < v.profile.MinBlurScore {
		issues = append(issues, Issue{
			Type:     IssueBlur,
			Message:  "image is blurry, hold the device steady",
			Severity: SeverityError,
		})
	}
	if m.Brightness < v.profile.MinBrightness {
		issues = append(issues, Issue{
			Type:     IssueDark,
			Message:  "image is too dark, find better lighting",
			Severity: SeverityError,
		})
	} else if m.Brightness > v.profile.MaxBrightness {
		issues = append(issues, Issue{
			Type:     IssueBright,
			Message:  "image is overexposed, avoid direct light",
			Severity: SeverityWarning,
		})
	}
	if m.GlareRatio > v.profile.MaxGlareRatio {
		issues = append(issues, Issue{
			Type:     IssueGlare,
			Message:  fmt.Sprintf("glare on %.0f%% of the image, tilt away from light sources", m.GlareRatio*100),
			Severity: SeverityError,
		})
	}

	return issues
}
