package liveness

import (
	"github.com/ocula-id/ocula/internal/facedetect"
)

// Gesture thresholds. Tuned capture values; configurable through
// DetectorOptions, not hard invariants.
const (
	// DefaultEARClose is the eye-aspect-ratio below which an eye counts as
	// closing/closed. Reopening requires 1.5x this value (hysteresis).
	DefaultEARClose = 0.2
	// DefaultSmileRatio is the mouth width/height ratio confirming a smile.
	DefaultSmileRatio = 2.3
	// DefaultTurnDelta is the yaw change from baseline confirming a head
	// turn, in radians.
	DefaultTurnDelta = 0.25
	// DefaultNodDelta is the pitch change from baseline confirming a nod,
	// in radians.
	DefaultNodDelta = 0.15
	// DefaultConfirmWindow is the consecutive-detection count required to
	// complete a challenge.
	DefaultConfirmWindow = 5
)

// earReopenFactor is the hysteresis multiplier applied to the close
// threshold before a blink's reopening phase completes.
const earReopenFactor = 1.5

// DetectorOptions tunes the per-gesture thresholds.
type DetectorOptions struct {
	EARClose      float64
	SmileRatio    float64
	TurnDelta     float64
	NodDelta      float64
	ConfirmWindow int
}

// DefaultDetectorOptions returns the production gesture thresholds.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		EARClose:      DefaultEARClose,
		SmileRatio:    DefaultSmileRatio,
		TurnDelta:     DefaultTurnDelta,
		NodDelta:      DefaultNodDelta,
		ConfirmWindow: DefaultConfirmWindow,
	}
}

// Progress is the per-frame detector report.
type Progress struct {
	// Progress is the confirmation fraction in [0,1]: detections within the
	// confirmation window over the window size.
	Progress float64
	// Completed is true once the last ConfirmWindow frames all detected the
	// gesture.
	Completed bool
	// Confidence is the face-detection confidence passed through from the
	// sample, not a liveness-specific score.
	Confidence float64
}

// blinkPhase tracks the blink cycle: a blink completes only after the eye
// closes and reopens past the hysteresis threshold.
type blinkPhase int

const (
	blinkOpen blinkPhase = iota
	blinkClosing
	blinkClosed
	blinkOpening
)

// Detector converts per-frame face-geometry samples into a confirmed
// challenge outcome. One instance is bound to a single challenge type at a
// time; Reset must be called when switching types.
//
// Single-writer: only the goroutine delivering detection results may call
// Process, and calls must not overlap.
type Detector struct {
	opts DetectorOptions

	// history holds per-frame detection booleans, bounded at twice the
	// confirmation window; oldest entries drop on overflow.
	history []bool

	// Per-challenge-type state, cleared unconditionally on Reset so nothing
	// leaks across challenge switches.
	blink         blinkPhase
	blinkDetected bool
	smileDetected bool
	yawBaseline   *float64
	pitchBaseline *float64
}

// NewDetector creates a challenge detector.
func NewDetector(opts DetectorOptions) *Detector {
	return &Detector{opts: opts}
}

// Reset clears the detection history and all per-challenge-type state:
// blink phase, smile flag, and turn/nod baselines. Must be called when the
// detector is rebound to a new challenge.
func (d *Detector) Reset() {
	d.history = nil
	d.blink = blinkOpen
	d.blinkDetected = false
	d.smileDetected = false
	d.yawBaseline = nil
	d.pitchBaseline = nil
}

// Process feeds one face sample for the given challenge type and returns
// confirmation progress. A nil face counts as a non-detection frame.
func (d *Detector) Process(face *facedetect.DetectedFace, challenge ChallengeType) Progress {
	detected := false
	confidence := 0.0
	if face != nil {
		detected = d.detect(face, challenge)
		confidence = face.Confidence
	}

	d.history = append(d.history, detected)
	if limit := 2 * d.opts.ConfirmWindow; len(d.history) > limit {
		d.history = d.history[len(d.history)-limit:]
	}

	consecutive := d.recentCount()
	progress := float64(consecutive) / float64(d.opts.ConfirmWindow)
	if progress > 1 {
		progress = 1
	}

	return Progress{
		Progress:   progress,
		Completed:  consecutive >= d.opts.ConfirmWindow,
		Confidence: confidence,
	}
}

// recentCount counts detections within the last ConfirmWindow entries.
func (d *Detector) recentCount() int {
	start := len(d.history) - d.opts.ConfirmWindow
	if start < 0 {
		start = 0
	}
	count := 0
	for _, hit := range d.history[start:] {
		if hit {
			count++
		}
	}
	return count
}

func (d *Detector) detect(face *facedetect.DetectedFace, challenge ChallengeType) bool {
	switch challenge {
	case ChallengeBlink:
		return d.detectBlink(face)
	case ChallengeSmile:
		return d.detectSmile(face)
	case ChallengeTurnLeft:
		return d.detectTurn(face, true)
	case ChallengeTurnRight:
		return d.detectTurn(face, false)
	case ChallengeNodUp:
		return d.detectNod(face, true)
	case ChallengeNodDown:
		return d.detectNod(face, false)
	default:
		return false
	}
}

// detectBlink advances the open -> closing -> closed -> opening -> open
// cycle. The detected flag is sticky for the challenge lifetime: a blink is
// a one-shot event, so once seen it holds until Reset.
func (d *Detector) detectBlink(face *facedetect.DetectedFace) bool {
	if face.Landmarks == nil {
		return d.blinkDetected
	}
	ear, ok := averageEAR(face.Landmarks.LeftEye, face.Landmarks.RightEye)
	if !ok {
		return d.blinkDetected
	}

	closeThr := d.opts.EARClose
	reopenThr := closeThr * earReopenFactor

	switch d.blink {
	case blinkOpen:
		if ear < closeThr {
			d.blink = blinkClosing
		}
	case blinkClosing:
		if ear < closeThr {
			d.blink = blinkClosed
		} else {
			d.blink = blinkOpen
		}
	case blinkClosed:
		if ear > closeThr {
			d.blink = blinkOpening
		}
	case blinkOpening:
		if ear > reopenThr {
			d.blink = blinkOpen
			d.blinkDetected = true
		}
	}

	return d.blinkDetected
}

// detectSmile confirms when the mouth ratio exceeds the smile threshold.
// Sticky once true, like blink.
func (d *Detector) detectSmile(face *facedetect.DetectedFace) bool {
	if d.smileDetected {
		return true
	}
	if face.Landmarks == nil {
		return false
	}
	ratio, ok := mouthRatio(face.Landmarks.OuterLips)
	if ok && ratio > d.opts.SmileRatio {
		d.smileDetected = true
	}
	return d.smileDetected
}

// detectTurn measures yaw delta against a baseline taken from the first
// sample (which never detects). Non-sticky: the signal flips back to false
// if the head returns toward baseline, since a pose can be held or reversed.
func (d *Detector) detectTurn(face *facedetect.DetectedFace, left bool) bool {
	if face.Yaw == nil {
		return false
	}
	if d.yawBaseline == nil {
		baseline := *face.Yaw
		d.yawBaseline = &baseline
		return false
	}
	delta := *face.Yaw - *d.yawBaseline
	if left {
		return delta > d.opts.TurnDelta
	}
	return delta < -d.opts.TurnDelta
}

// detectNod mirrors detectTurn on the pitch axis with its own threshold.
func (d *Detector) detectNod(face *facedetect.DetectedFace, up bool) bool {
	if face.Pitch == nil {
		return false
	}
	if d.pitchBaseline == nil {
		baseline := *face.Pitch
		d.pitchBaseline = &baseline
		return false
	}
	delta := *face.Pitch - *d.pitchBaseline
	if up {
		return delta > d.opts.NodDelta
	}
	return delta < -d.opts.NodDelta
}
