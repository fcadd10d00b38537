package liveness

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ocula-id/ocula/internal/facedetect"
	"github.com/ocula-id/ocula/internal/imaging"
)

// Listener receives session events. Events for one manager are delivered in
// order and never concurrently; implementations must not call back into the
// manager from inside a callback.
type Listener interface {
	// ChallengeStarted announces the challenge the user should perform.
	ChallengeStarted(challenge Challenge)
	// Progress reports confirmation progress for the active challenge on
	// every processed frame; face is nil when no face was detected.
	Progress(challenge Challenge, progress float64, face *facedetect.DetectedFace)
	// ChallengeCompleted reports one challenge's recorded outcome.
	ChallengeCompleted(result ChallengeResult)
	// SessionCompleted reports the aggregated result after the last
	// challenge. The full sequence always runs to the end.
	SessionCompleted(result SessionResult)
}

// managerState tracks where the session is in its lifecycle.
type managerState int

const (
	stateIdle managerState = iota
	stateDetecting
	stateCapturing
)

// Manager orchestrates one liveness session: it drives the challenge
// detector through the session's challenges in order, captures a still on
// each completion, and aggregates per-challenge results.
//
// Frame processing is guarded to at most one in-flight detection: frames
// arriving while a detection is running are dropped, not queued, so a live
// camera feed cannot build a backlog. A generation counter invalidates
// results of detections that complete after Stop or a challenge advance, so
// stale callbacks never mutate fresh state.
type Manager struct {
	faces     *facedetect.Detector
	challenge *Detector
	listener  Listener
	logger    *slog.Logger

	inFlight atomic.Bool

	mu         sync.Mutex
	generation uint64
	state      managerState
	session    *Session
	index      int
	results    []ChallengeResult
}

// NewManager creates a liveness session manager.
func NewManager(faces *facedetect.Detector, challenge *Detector, listener Listener, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		faces:     faces,
		challenge: challenge,
		listener:  listener,
		logger:    logger,
	}
}

// Start begins a session at its first challenge. Any previous session state
// is discarded; all per-challenge-type detector state is reset
// unconditionally. A session without challenges is ignored.
func (m *Manager) Start(session Session) {
	m.mu.Lock()
	if len(session.Challenges) == 0 {
		m.mu.Unlock()
		m.logger.Warn("liveness session has no challenges", "session_id", session.ID)
		return
	}

	m.generation++
	m.session = &session
	m.index = 0
	m.results = nil
	m.state = stateDetecting
	m.challenge.Reset()
	first := session.Challenges[0]
	m.mu.Unlock()

	m.logger.Info("liveness session started",
		"session_id", session.ID,
		"challenges", len(session.Challenges),
	)
	m.listener.ChallengeStarted(first)
}

// Stop abandons the session. Safe to call at any time; in-flight detections
// that complete afterwards are discarded, and the manager is immediately
// ready for a fresh Start.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.generation++
	m.state = stateIdle
	m.session = nil
	m.results = nil
	m.challenge.Reset()
	m.mu.Unlock()
}

// ProcessFrame feeds one camera frame. Frames are dropped when no challenge
// is active (defensive no-op: frame delivery cannot pause for setup) or
// while a previous frame's detection is still in flight.
func (m *Manager) ProcessFrame(ctx context.Context, frame []byte) {
	m.mu.Lock()
	if m.state != stateDetecting || m.session == nil {
		m.mu.Unlock()
		return
	}
	gen := m.generation
	current := m.session.Challenges[m.index]
	m.mu.Unlock()

	if !m.inFlight.CompareAndSwap(false, true) {
		return // drop, never queue, against a live feed
	}
	defer m.inFlight.Store(false)

	faces, err := m.faces.Detect(ctx, frame)
	if err != nil {
		m.logger.Debug("face detection failed", "error", err)
		return
	}

	m.mu.Lock()
	if m.generation != gen || m.state != stateDetecting {
		// Stale result from before a Stop/advance; disregard.
		m.mu.Unlock()
		return
	}

	// Only the first face is evaluated; additional faces are ignored here
	// (the selfie quality validator is where multi-face is reported).
	var face *facedetect.DetectedFace
	if len(faces) > 0 {
		face = &faces[0]
	}

	progress := m.challenge.Process(face, current.Type)
	if !progress.Completed {
		m.mu.Unlock()
		m.listener.Progress(current, progress.Progress, face)
		return
	}

	m.state = stateCapturing
	m.mu.Unlock()
	m.listener.Progress(current, progress.Progress, face)

	result := m.captureResult(current, progress.Confidence, frame)
	m.recordAndAdvance(gen, result)
}

// SkipChallenge records an explicit failed result for the active challenge
// and advances without running detection. Test/debug path.
func (m *Manager) SkipChallenge() {
	m.mu.Lock()
	if m.state == stateIdle || m.session == nil {
		m.mu.Unlock()
		return
	}
	gen := m.generation
	current := m.session.Challenges[m.index]
	m.state = stateCapturing
	m.mu.Unlock()

	m.recordAndAdvance(gen, ChallengeResult{Challenge: current, Passed: false})
}

// captureResult converts the completing frame into a compressed still. A
// capture failure records a failed result rather than aborting the session.
func (m *Manager) captureResult(challenge Challenge, confidence float64, frame []byte) ChallengeResult {
	img, err := imaging.Decode(frame)
	if err != nil {
		m.logger.Warn("still capture failed", "challenge", challenge.Type, "error", err)
		return ChallengeResult{Challenge: challenge, Passed: false}
	}
	data, err := imaging.EncodeJPEG(img)
	if err != nil {
		m.logger.Warn("still capture failed", "challenge", challenge.Type, "error", err)
		return ChallengeResult{Challenge: challenge, Passed: false}
	}
	return ChallengeResult{
		Challenge:  challenge,
		Passed:     true,
		Confidence: confidence,
		Image:      data,
	}
}

// recordAndAdvance appends the result and moves to the next challenge, or
// finalizes the session after the last one.
func (m *Manager) recordAndAdvance(gen uint64, result ChallengeResult) {
	m.mu.Lock()
	if m.generation != gen || m.session == nil {
		m.mu.Unlock()
		return
	}

	m.results = append(m.results, result)
	m.index++

	if m.index < len(m.session.Challenges) {
		next := m.session.Challenges[m.index]
		m.challenge.Reset()
		m.state = stateDetecting
		m.mu.Unlock()

		m.listener.ChallengeCompleted(result)
		m.listener.ChallengeStarted(next)
		return
	}

	// Last challenge done: aggregate. passed is the AND over all results.
	passed := true
	for _, r := range m.results {
		if !r.Passed {
			passed = false
			break
		}
	}
	final := SessionResult{
		SessionID: m.session.ID,
		Passed:    passed,
		Results:   m.results,
	}
	m.generation++
	m.state = stateIdle
	m.session = nil
	m.results = nil
	m.challenge.Reset()
	m.mu.Unlock()

	m.listener.ChallengeCompleted(result)
	m.logger.Info("liveness session completed",
		"session_id", final.SessionID,
		"passed", final.Passed,
		"challenges", len(final.Results),
	)
	m.listener.SessionCompleted(final)
}
