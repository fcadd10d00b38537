package ws

import (
	"time"
)

type EventType string

const (
	EventChallengeStarted   EventType = "challenge.started"
	EventChallengeProgress  EventType = "challenge.progress"
	EventChallengeCompleted EventType = "challenge.completed"
	EventSessionCompleted   EventType = "session.completed"
	EventFaceLost           EventType = "face.lost"
	EventFaceStable         EventType = "face.stable"
	EventError              EventType = "error"
)

// Event is one server-to-client message on a capture stream.
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ProgressData reports confirmation progress for the active challenge.
type ProgressData struct {
	ChallengeID  string  `json:"challenge_id"`
	Progress     float64 `json:"progress"`
	FaceDetected bool    `json:"face_detected"`
}

// CompletedData reports one challenge's recorded outcome. The captured still
// stays server-side; only the verdict travels over the stream.
type CompletedData struct {
	ChallengeID string  `json:"challenge_id"`
	Type        string  `json:"type"`
	Passed      bool    `json:"passed"`
	Confidence  float64 `json:"confidence"`
}

// ErrorData carries a client-actionable stream error.
type ErrorData struct {
	Message string `json:"message"`
}
