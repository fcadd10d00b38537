package verification

import "time"

// ChallengeSpec describes one server-issued liveness challenge.
type ChallengeSpec struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Instruction string `json:"instruction"`
	Order       int    `json:"order"`
}

// SessionResponse is the server's answer to a session creation request.
type SessionResponse struct {
	SessionID  string          `json:"session_id"`
	Challenges []ChallengeSpec `json:"challenges"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// createSessionRequest asks the backend for a liveness session.
type createSessionRequest struct {
	ChallengeCount int `json:"challenge_count,omitempty"`
}

// uploadRequest carries one captured image as base64 JPEG.
type uploadRequest struct {
	SessionID   string `json:"session_id"`
	ImageBase64 string `json:"image_base64"`
}

// UploadResponse is the server's verdict on an uploaded capture.
type UploadResponse struct {
	ImageID  string   `json:"image_id"`
	Accepted bool     `json:"accepted"`
	Reasons  []string `json:"reasons,omitempty"`
}

// ChallengeOutcome is the client-side result of one liveness challenge.
type ChallengeOutcome struct {
	ChallengeID string  `json:"challenge_id"`
	Type        string  `json:"type"`
	Passed      bool    `json:"passed"`
	Confidence  float64 `json:"confidence"`
	ImageBase64 string  `json:"image_base64,omitempty"`
}

// submitLivenessRequest reports all challenge outcomes for a session.
type submitLivenessRequest struct {
	SessionID string             `json:"session_id"`
	Outcomes  []ChallengeOutcome `json:"outcomes"`
}

// LivenessVerdict is the server's aggregate liveness decision.
type LivenessVerdict struct {
	Accepted bool    `json:"accepted"`
	Score    float64 `json:"score"`
}

// completeRequest ties the session's uploads together for the final
// decision.
type completeRequest struct {
	SessionID  string `json:"session_id"`
	DocumentID string `json:"document_id"`
	SelfieID   string `json:"selfie_id"`
}

// Result is the backend's final verification decision.
type Result struct {
	VerificationID string  `json:"verification_id"`
	Status         string  `json:"status"`
	Score          float64 `json:"score"`
}
