package quality

// Severity classifies an issue. Overall validity is decided by error-severity
// issues only; warnings never block a capture.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueType names the check that produced an issue.
type IssueType string

const (
	IssueBlur           IssueType = "blur"
	IssueDark           IssueType = "dark"
	IssueBright         IssueType = "bright"
	IssueGlare          IssueType = "glare"
	IssueFaceConfidence IssueType = "face_confidence"
	IssueFaceTooSmall   IssueType = "face_too_small"
	IssueFaceOffCenter  IssueType = "face_off_center"
)

// Issue is a single user-actionable quality finding.
type Issue struct {
	Type     IssueType `json:"type"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

// Profile is a named set of quality thresholds. Callers select a profile
// explicitly; the relaxed profile tolerates lower-end capture hardware.
type Profile struct {
	Name string

	// MinBlurScore is the minimum Laplacian variance; lower means blurrier.
	MinBlurScore float64
	// Brightness is mean perceptual luminance in [0,1]. Below MinBrightness
	// is an error (too dark), above MaxBrightness a warning (washed out).
	MinBrightness float64
	MaxBrightness float64
	// MaxGlareRatio is the tolerated fraction of overexposed pixels.
	MaxGlareRatio float64

	// Selfie-only thresholds.
	MinFaceConfidence   float64
	MinFaceAreaRatio    float64
	MaxFaceCenterOffset float64
}

// DefaultProfile returns the standard capture thresholds.
func DefaultProfile() Profile {
	return Profile{
		Name:                "default",
		MinBlurScore:        100,
		MinBrightness:       0.3,
		MaxBrightness:       0.85,
		MaxGlareRatio:       0.05,
		MinFaceConfidence:   0.7,
		MinFaceAreaRatio:    0.2,
		MaxFaceCenterOffset: 0.2,
	}
}

// RelaxedProfile returns thresholds for constrained capture conditions.
func RelaxedProfile() Profile {
	p := DefaultProfile()
	p.Name = "relaxed"
	p.MinBlurScore = 50
	p.MaxGlareRatio = 0.10
	return p
}

// ProfileByName resolves a profile by its name, falling back to the default
// profile for unknown names.
func ProfileByName(name string) Profile {
	if name == "relaxed" {
		return RelaxedProfile()
	}
	return DefaultProfile()
}
