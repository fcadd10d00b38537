// Package liveness implements the active liveness challenge-response core:
// per-challenge gesture state machines over a stream of face-geometry
// samples, temporal confirmation, and session orchestration across a
// sequence of challenges.
package liveness

import "time"

// ChallengeType identifies a prompted user gesture.
type ChallengeType string

const (
	ChallengeBlink     ChallengeType = "blink"
	ChallengeSmile     ChallengeType = "smile"
	ChallengeTurnLeft  ChallengeType = "turn_left"
	ChallengeTurnRight ChallengeType = "turn_right"
	ChallengeNodUp     ChallengeType = "nod_up"
	ChallengeNodDown   ChallengeType = "nod_down"
)

// Challenge is one prompted gesture within a session. Immutable value.
type Challenge struct {
	ID          string        `json:"id"`
	Type        ChallengeType `json:"type"`
	Instruction string        `json:"instruction"`
	Order       int           `json:"order"`
}

// Session is a liveness challenge sequence issued by the verification
// service. It is consumed read-only for the duration of one attempt and
// discarded when the attempt ends.
type Session struct {
	ID         string      `json:"id"`
	Challenges []Challenge `json:"challenges"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// ChallengeResult records the outcome of one challenge. Appended exactly
// once per challenge, in challenge order, and never mutated afterwards.
type ChallengeResult struct {
	Challenge  Challenge `json:"challenge"`
	Passed     bool      `json:"passed"`
	Confidence float64   `json:"confidence"`
	// Image is the JPEG still captured at completion; nil when capture
	// failed or the challenge was skipped.
	Image []byte `json:"-"`
}

// SessionResult aggregates every challenge's outcome. The full sequence
// always runs; a failed challenge never terminates the session early.
type SessionResult struct {
	SessionID string            `json:"session_id"`
	Passed    bool              `json:"passed"`
	Results   []ChallengeResult `json:"results"`
}
