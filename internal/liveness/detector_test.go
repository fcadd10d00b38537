package liveness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocula-id/ocula/internal/facedetect"
	"github.com/ocula-id/ocula/internal/vision"
)

// eyePoints builds a six-point eye sequence with the given aspect ratio.
func eyePoints(ear float64) []vision.Point {
	d := 0.3 * ear
	return []vision.Point{
		{X: 0.2, Y: 0.5},
		{X: 0.4, Y: 0.5 + d},
		{X: 0.6, Y: 0.5 + d},
		{X: 0.8, Y: 0.5},
		{X: 0.6, Y: 0.5 - d},
		{X: 0.4, Y: 0.5 - d},
	}
}

// lipPoints builds an eight-point outer-lip sequence with the given
// width-to-height ratio.
func lipPoints(ratio float64) []vision.Point {
	h := 0.8 / ratio
	return []vision.Point{
		{X: 0.1, Y: 0.5},
		{X: 0.3, Y: 0.5 + h/2},
		{X: 0.5, Y: 0.5 + h/2},
		{X: 0.7, Y: 0.5 + h/2},
		{X: 0.9, Y: 0.5},
		{X: 0.7, Y: 0.5 - h/2},
		{X: 0.5, Y: 0.5 - h/2},
		{X: 0.3, Y: 0.5 - h/2},
	}
}

func eyeFace(ear float64) *facedetect.DetectedFace {
	return &facedetect.DetectedFace{
		Confidence: 0.95,
		Landmarks: &facedetect.FaceLandmarks{
			LeftEye:  eyePoints(ear),
			RightEye: eyePoints(ear),
		},
	}
}

func mouthFace(ratio float64) *facedetect.DetectedFace {
	return &facedetect.DetectedFace{
		Confidence: 0.95,
		Landmarks: &facedetect.FaceLandmarks{
			OuterLips: lipPoints(ratio),
		},
	}
}

func poseFace(yaw, pitch float64) *facedetect.DetectedFace {
	return &facedetect.DetectedFace{Confidence: 0.95, Yaw: &yaw, Pitch: &pitch}
}

func TestEyeAspectRatio(t *testing.T) {
	ear, ok := eyeAspectRatio(eyePoints(0.3))
	require.True(t, ok)
	assert.InDelta(t, 0.3, ear, 1e-9)

	_, ok = eyeAspectRatio(eyePoints(0.3)[:4])
	assert.False(t, ok)
}

func TestMouthRatio(t *testing.T) {
	ratio, ok := mouthRatio(lipPoints(2.5))
	require.True(t, ok)
	assert.InDelta(t, 2.5, ratio, 1e-9)

	_, ok = mouthRatio(lipPoints(2.5)[:6])
	assert.False(t, ok)
}

func TestDetector_BlinkCycle(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	// Open, close for two frames, reopen past the hysteresis threshold.
	sequence := []float64{0.4, 0.1, 0.1, 0.25, 0.4}
	for _, ear := range sequence[:len(sequence)-1] {
		p := d.Process(eyeFace(ear), ChallengeBlink)
		assert.False(t, p.Completed)
		assert.InDelta(t, 0, p.Progress, 1e-9)
	}

	// The reopening frame is the first detection.
	p := d.Process(eyeFace(0.4), ChallengeBlink)
	assert.False(t, p.Completed)
	assert.InDelta(t, 0.2, p.Progress, 1e-9)

	// Detection is sticky; four more frames fill the confirmation window.
	for i := 0; i < DefaultConfirmWindow-2; i++ {
		p = d.Process(eyeFace(0.4), ChallengeBlink)
		assert.False(t, p.Completed)
	}
	p = d.Process(eyeFace(0.4), ChallengeBlink)
	assert.True(t, p.Completed)
	assert.InDelta(t, 1.0, p.Progress, 1e-9)
	assert.InDelta(t, 0.95, p.Confidence, 1e-9)
}

func TestDetector_BlinkNeedsReopenPastHysteresis(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	// Close, then hover between the close threshold and the reopen
	// threshold: the cycle never completes.
	for _, ear := range []float64{0.4, 0.1, 0.1, 0.25, 0.25, 0.25, 0.25, 0.25} {
		p := d.Process(eyeFace(ear), ChallengeBlink)
		assert.InDelta(t, 0, p.Progress, 1e-9)
	}
}

func TestDetector_SmileIsSticky(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	p := d.Process(mouthFace(3.0), ChallengeSmile)
	assert.InDelta(t, 0.2, p.Progress, 1e-9)

	// The mouth relaxing does not undo the detection.
	for i := 0; i < DefaultConfirmWindow-2; i++ {
		p = d.Process(mouthFace(1.5), ChallengeSmile)
		assert.False(t, p.Completed)
	}
	p = d.Process(mouthFace(1.5), ChallengeSmile)
	assert.True(t, p.Completed)
}

func TestDetector_TurnUsesFirstFrameBaseline(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	// The first sample establishes the baseline and never detects.
	p := d.Process(poseFace(0.1, 0), ChallengeTurnLeft)
	assert.InDelta(t, 0, p.Progress, 1e-9)

	// Yaw delta beyond the threshold detects; returning resets the signal.
	p = d.Process(poseFace(0.4, 0), ChallengeTurnLeft)
	assert.InDelta(t, 0.2, p.Progress, 1e-9)

	p = d.Process(poseFace(0.1, 0), ChallengeTurnLeft)
	assert.InDelta(t, 0.2, p.Progress, 1e-9) // one hit remains in the window

	// A right turn is the opposite sign and never triggers turn-left.
	p = d.Process(poseFace(-0.4, 0), ChallengeTurnLeft)
	assert.False(t, p.Completed)
}

func TestDetector_TurnRight(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	d.Process(poseFace(0, 0), ChallengeTurnRight)
	for i := 0; i < DefaultConfirmWindow-1; i++ {
		p := d.Process(poseFace(-0.3, 0), ChallengeTurnRight)
		assert.False(t, p.Completed)
	}
	p := d.Process(poseFace(-0.3, 0), ChallengeTurnRight)
	assert.True(t, p.Completed)
}

func TestDetector_NodCompletes(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	d.Process(poseFace(0, 0), ChallengeNodUp)
	for i := 0; i < DefaultConfirmWindow; i++ {
		p := d.Process(poseFace(0, 0.2), ChallengeNodUp)
		assert.Equal(t, i == DefaultConfirmWindow-1, p.Completed, "frame %d", i)
	}
}

func TestDetector_NodDownOppositeSign(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	d.Process(poseFace(0, 0), ChallengeNodDown)
	p := d.Process(poseFace(0, 0.2), ChallengeNodDown)
	assert.InDelta(t, 0, p.Progress, 1e-9)

	p = d.Process(poseFace(0, -0.2), ChallengeNodDown)
	assert.InDelta(t, 0.2, p.Progress, 1e-9)
}

func TestDetector_NilFaceIsNonDetection(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	p := d.Process(nil, ChallengeBlink)
	assert.False(t, p.Completed)
	assert.InDelta(t, 0, p.Progress, 1e-9)
	assert.InDelta(t, 0, p.Confidence, 1e-9)
}

func TestDetector_MissingLandmarksIsNonDetection(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	p := d.Process(&facedetect.DetectedFace{Confidence: 0.9}, ChallengeSmile)
	assert.InDelta(t, 0, p.Progress, 1e-9)
}

func TestDetector_ResetClearsBaselineAndHistory(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	// Establish a yaw baseline at 0.5, then reset.
	d.Process(poseFace(0.5, 0), ChallengeTurnLeft)
	d.Reset()

	// The next frame becomes the new baseline, so a yaw of 0.0 followed by
	// 0.3 detects against the fresh baseline.
	p := d.Process(poseFace(0, 0), ChallengeTurnLeft)
	assert.InDelta(t, 0, p.Progress, 1e-9)
	p = d.Process(poseFace(0.3, 0), ChallengeTurnLeft)
	assert.InDelta(t, 0.2, p.Progress, 1e-9)
}

func TestDetector_ResetClearsStickyBlink(t *testing.T) {
	d := NewDetector(DefaultDetectorOptions())

	for _, ear := range []float64{0.4, 0.1, 0.1, 0.25, 0.4} {
		d.Process(eyeFace(ear), ChallengeBlink)
	}
	d.Reset()

	p := d.Process(eyeFace(0.4), ChallengeBlink)
	assert.InDelta(t, 0, p.Progress, 1e-9)
}
