package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocula-id/ocula/internal/facedetect"
	"github.com/ocula-id/ocula/internal/facetrack"
	"github.com/ocula-id/ocula/internal/liveness"
	"github.com/ocula-id/ocula/internal/verification"
	"github.com/ocula-id/ocula/internal/vision/mock"
)

// testStream builds a stream without a connection; the tests drive the
// listener and command paths directly and read events off the send queue.
func testStream(verifier Verifier) *Stream {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	faces := facedetect.NewDetector(mock.New(), facedetect.DefaultOptions())
	return newStream(nil, faces, verifier, logger)
}

// fakeVerifier records submitted session results.
type fakeVerifier struct {
	submitted chan liveness.SessionResult
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{submitted: make(chan liveness.SessionResult, 1)}
}

func (f *fakeVerifier) SubmitLiveness(ctx context.Context, result liveness.SessionResult) (*verification.LivenessVerdict, error) {
	f.submitted <- result
	return &verification.LivenessVerdict{Accepted: true, Score: 0.9}, nil
}

// drainEvents empties the queued events.
func drainEvents(t *testing.T, s *Stream) []Event {
	t.Helper()
	var events []Event
	for {
		select {
		case payload := <-s.send:
			var e Event
			require.NoError(t, json.Unmarshal(payload, &e))
			events = append(events, e)
		default:
			return events
		}
	}
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func TestBuildSession(t *testing.T) {
	session, err := buildSession([]string{"blink", "smile"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	require.Len(t, session.Challenges, 2)

	assert.Equal(t, liveness.ChallengeBlink, session.Challenges[0].Type)
	assert.Equal(t, 0, session.Challenges[0].Order)
	assert.Equal(t, liveness.ChallengeSmile, session.Challenges[1].Type)
	assert.Equal(t, 1, session.Challenges[1].Order)
	assert.NotEmpty(t, session.Challenges[0].Instruction)
	assert.NotEqual(t, session.Challenges[0].ID, session.Challenges[1].ID)
}

func TestBuildSession_Rejections(t *testing.T) {
	_, err := buildSession(nil)
	assert.Error(t, err)

	_, err = buildSession([]string{"blink", "backflip"})
	assert.Error(t, err)
}

func TestStream_ListenerEventOrder(t *testing.T) {
	s := testStream(nil)
	challenge := liveness.Challenge{ID: "c1", Type: liveness.ChallengeBlink}

	s.ChallengeStarted(challenge)
	s.Progress(challenge, 0.4, &facedetect.DetectedFace{})
	s.ChallengeCompleted(liveness.ChallengeResult{Challenge: challenge, Passed: true, Confidence: 0.9})
	s.SessionCompleted(liveness.SessionResult{SessionID: "sess", Passed: true})

	events := drainEvents(t, s)
	assert.Equal(t, []EventType{
		EventChallengeStarted,
		EventChallengeProgress,
		EventChallengeCompleted,
		EventSessionCompleted,
	}, eventTypes(events))
}

func TestStream_FaceStableFiresOncePerRun(t *testing.T) {
	s := testStream(nil)
	challenge := liveness.Challenge{ID: "c1", Type: liveness.ChallengeBlink}
	face := &facedetect.DetectedFace{
		Norm: facedetect.NormRect{X: 0.3, Y: 0.3, Width: 0.4, Height: 0.4},
	}

	for i := 0; i < facetrack.DefaultWindowSize+2; i++ {
		s.Progress(challenge, 0, face)
	}

	stable := 0
	for _, e := range drainEvents(t, s) {
		if e.Type == EventFaceStable {
			stable++
		}
	}
	assert.Equal(t, 1, stable)
}

func TestStream_FaceLostSignal(t *testing.T) {
	s := testStream(nil)
	challenge := liveness.Challenge{ID: "c1", Type: liveness.ChallengeBlink}

	s.Progress(challenge, 0, &facedetect.DetectedFace{})
	for i := 0; i < facetrack.DefaultLostThreshold; i++ {
		s.Progress(challenge, 0, nil)
	}

	lost := 0
	for _, e := range drainEvents(t, s) {
		if e.Type == EventFaceLost {
			lost++
		}
	}
	assert.Equal(t, 1, lost)
}

func TestStream_HandleCommand(t *testing.T) {
	s := testStream(nil)

	s.handleCommand([]byte(`{"action":"start","challenges":["blink"]}`))
	events := drainEvents(t, s)
	require.Len(t, events, 1)
	assert.Equal(t, EventChallengeStarted, events[0].Type)
}

func TestStream_HandleCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "malformed json", raw: `{"action":`},
		{name: "unknown action", raw: `{"action":"dance"}`},
		{name: "unknown challenge", raw: `{"action":"start","challenges":["backflip"]}`},
		{name: "empty challenge list", raw: `{"action":"start"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testStream(nil)
			s.handleCommand([]byte(tt.raw))
			events := drainEvents(t, s)
			require.Len(t, events, 1)
			assert.Equal(t, EventError, events[0].Type)
		})
	}
}

func TestStream_SessionCompletedSubmitsToVerifier(t *testing.T) {
	verifier := newFakeVerifier()
	s := testStream(verifier)

	s.SessionCompleted(liveness.SessionResult{SessionID: "sess", Passed: true})

	select {
	case result := <-verifier.submitted:
		assert.Equal(t, "sess", result.SessionID)
		assert.True(t, result.Passed)
	case <-time.After(time.Second):
		t.Fatal("session result never reached the verifier")
	}

	// The client still receives the local result regardless of the backend.
	events := drainEvents(t, s)
	require.Len(t, events, 1)
	assert.Equal(t, EventSessionCompleted, events[0].Type)
}
