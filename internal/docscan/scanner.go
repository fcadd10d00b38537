// Package docscan detects document quadrilaterals in a video stream, tracks
// frame-to-frame corner stability, and rectifies the detected document via
// perspective correction.
package docscan

import (
	"context"
	"math"

	"github.com/ocula-id/ocula/internal/vision"
)

// Defaults for the scanner. These are product-tuning values, not algorithmic
// necessities, so they stay configurable through Options.
const (
	DefaultMinConfidence     = 0.7
	DefaultStabilityDistance = 0.02
	DefaultStableFrames      = 5

	minAspectRatio = 0.5
	maxAspectRatio = 2.0
)

// Options tunes the scanner.
type Options struct {
	// MinConfidence filters quadrilaterals below this detection confidence.
	MinConfidence float64
	// StabilityDistance is the normalized per-corner movement tolerance.
	StabilityDistance float64
	// StableFrames is the consecutive-frame run required for stability.
	StableFrames int
}

// DefaultOptions returns the production scanner settings.
func DefaultOptions() Options {
	return Options{
		MinConfidence:     DefaultMinConfidence,
		StabilityDistance: DefaultStabilityDistance,
		StableFrames:      DefaultStableFrames,
	}
}

// Result is a per-frame document observation. Corners are normalized [0,1],
// top-left origin, ordered top-left, top-right, bottom-right, bottom-left.
type Result struct {
	Corners    [4]vision.Point
	Confidence float64
	Stable     bool
}

// Scanner detects and tracks a document quadrilateral across frames.
//
// The scanner holds exactly one "last observation" for stability comparison.
// It is single-writer: only the goroutine delivering a frame's detection may
// call Process, and calls must not overlap. The external capture pipeline
// serializes frame delivery, so no lock is taken here.
type Scanner struct {
	provider vision.Provider
	opts     Options

	last      *[4]vision.Point
	stableRun int
}

// NewScanner creates a document scanner over the given vision provider.
func NewScanner(provider vision.Provider, opts Options) *Scanner {
	return &Scanner{provider: provider, opts: opts}
}

// Process runs document detection on one frame. It returns nil when no
// acceptable quadrilateral is present this frame (absence is the signal).
// An accepted observation updates the stability run: all four corners within
// StabilityDistance of the previous observation extend the run, any outlier
// corner restarts it at 1 (the current frame starts the new run).
func (s *Scanner) Process(ctx context.Context, frame []byte) (*Result, error) {
	obs, err := s.provider.DetectDocument(ctx, frame)
	if err != nil {
		return nil, err
	}
	if obs == nil || obs.Confidence < s.opts.MinConfidence || !acceptableAspect(obs.Corners) {
		// A missed or filtered frame breaks the consecutive run.
		s.last = nil
		s.stableRun = 0
		return nil, nil
	}

	if s.last != nil && s.withinTolerance(obs.Corners) {
		s.stableRun++
	} else {
		s.stableRun = 1
	}
	corners := obs.Corners
	s.last = &corners

	return &Result{
		Corners:    obs.Corners,
		Confidence: obs.Confidence,
		Stable:     s.stableRun >= s.opts.StableFrames,
	}, nil
}

// ResetStability clears the observation history. Safe to call at any time
// between Process calls; the scanner is immediately ready for a fresh run.
func (s *Scanner) ResetStability() {
	s.last = nil
	s.stableRun = 0
}

func (s *Scanner) withinTolerance(corners [4]vision.Point) bool {
	for i := range corners {
		if dist(corners[i], s.last[i]) >= s.opts.StabilityDistance {
			return false
		}
	}
	return true
}

// acceptableAspect checks the quadrilateral's aspect ratio against the
// document envelope [0.5, 2.0], using averaged opposite-edge lengths.
func acceptableAspect(c [4]vision.Point) bool {
	width := (dist(c[0], c[1]) + dist(c[3], c[2])) / 2
	height := (dist(c[0], c[3]) + dist(c[1], c[2])) / 2
	if height == 0 {
		return false
	}
	ratio := width / height
	return ratio >= minAspectRatio && ratio <= maxAspectRatio
}

func dist(a, b vision.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
