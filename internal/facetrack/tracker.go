// Package facetrack follows a stream of per-frame face detections and
// reports geometric stability and face-lost transitions with hysteresis, so
// single missed frames in a live feed do not flicker the capture UI.
package facetrack

import (
	"math"

	"github.com/ocula-id/ocula/internal/facedetect"
)

// Defaults are tuned capture values, configurable through Options.
const (
	DefaultWindowSize        = 5
	DefaultMovementTolerance = 0.02
	DefaultLostThreshold     = 10
)

// Options tunes the tracker.
type Options struct {
	// WindowSize is the number of consecutive detected frames required for
	// stability.
	WindowSize int
	// MovementTolerance is the normalized per-pair limit on both center
	// displacement and max-dimension size change.
	MovementTolerance float64
	// LostThreshold is the number of consecutive missed frames before the
	// face is declared lost.
	LostThreshold int
}

// DefaultOptions returns the production tracker settings.
func DefaultOptions() Options {
	return Options{
		WindowSize:        DefaultWindowSize,
		MovementTolerance: DefaultMovementTolerance,
		LostThreshold:     DefaultLostThreshold,
	}
}

// Update is the tracker's per-frame report.
type Update struct {
	// Stable is true when a full window of consecutive detections moved
	// within tolerance.
	Stable bool
	// FaceLost fires exactly once when the miss counter reaches the lost
	// threshold; history is cleared and the next detection starts fresh.
	FaceLost bool
}

// Tracker consumes a sequential detection stream. Single-writer: only the
// goroutine delivering detection results may call Observe, and calls must
// not overlap.
type Tracker struct {
	opts Options

	window      []facedetect.NormRect
	missedCount int
	lostSignal  bool
}

// NewTracker creates a face tracker.
func NewTracker(opts Options) *Tracker {
	return &Tracker{opts: opts}
}

// Observe feeds one frame's detection outcome; pass nil when no face was
// detected this frame.
func (t *Tracker) Observe(face *facedetect.DetectedFace) Update {
	if face == nil {
		return t.observeMiss()
	}

	t.missedCount = 0
	t.lostSignal = false

	t.window = append(t.window, face.Norm)
	if len(t.window) > t.opts.WindowSize {
		t.window = t.window[1:]
	}

	return Update{Stable: t.stable()}
}

// Reset clears all history; the tracker is ready for a fresh stream.
func (t *Tracker) Reset() {
	t.window = nil
	t.missedCount = 0
	t.lostSignal = false
}

func (t *Tracker) observeMiss() Update {
	t.missedCount++
	if t.missedCount >= t.opts.LostThreshold && !t.lostSignal {
		t.window = nil
		t.lostSignal = true
		return Update{FaceLost: true}
	}
	return Update{}
}

// stable requires a full window where every consecutive pair stayed within
// the movement tolerance on both center displacement and size change.
func (t *Tracker) stable() bool {
	if len(t.window) < t.opts.WindowSize {
		return false
	}
	for i := 1; i < len(t.window); i++ {
		prev, cur := t.window[i-1], t.window[i]

		pc, cc := prev.Center(), cur.Center()
		if math.Hypot(cc.X-pc.X, cc.Y-pc.Y) >= t.opts.MovementTolerance {
			return false
		}

		prevDim := math.Max(prev.Width, prev.Height)
		curDim := math.Max(cur.Width, cur.Height)
		if math.Abs(curDim-prevDim) >= t.opts.MovementTolerance {
			return false
		}
	}
	return true
}
