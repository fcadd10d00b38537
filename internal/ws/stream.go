// Package ws serves the live capture stream: a websocket connection carrying
// camera frames upstream and challenge/tracking events downstream. Each
// connection owns one liveness session at a time.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/ocula-id/ocula/internal/facedetect"
	"github.com/ocula-id/ocula/internal/facetrack"
	"github.com/ocula-id/ocula/internal/liveness"
	"github.com/ocula-id/ocula/internal/verification"
)

// sendBuffer bounds the per-connection event queue; events beyond it are
// dropped rather than stalling frame processing on a slow consumer.
const sendBuffer = 256

// submitTimeout bounds the backend submission, retries included.
const submitTimeout = 2 * time.Minute

// Verifier forwards completed session outcomes to the verification backend.
// A nil Verifier leaves the decision to the client application.
type Verifier interface {
	SubmitLiveness(ctx context.Context, result liveness.SessionResult) (*verification.LivenessVerdict, error)
}

// instructions are the user-facing prompts per challenge type.
var instructions = map[liveness.ChallengeType]string{
	liveness.ChallengeBlink:     "Blink your eyes",
	liveness.ChallengeSmile:     "Smile",
	liveness.ChallengeTurnLeft:  "Turn your head to the left",
	liveness.ChallengeTurnRight: "Turn your head to the right",
	liveness.ChallengeNodUp:     "Tilt your head up",
	liveness.ChallengeNodDown:   "Tilt your head down",
}

// command is a client-to-server control message. Frames travel as binary
// messages; commands as JSON text messages.
type command struct {
	Action     string   `json:"action"`
	Challenges []string `json:"challenges,omitempty"`
}

// Stream is one capture connection. It implements liveness.Listener, so the
// session manager's callbacks flow straight onto the wire.
//
// All listener callbacks and command handling run on the read-pump goroutine;
// only the send channel crosses to the write pump.
type Stream struct {
	conn     *websocket.Conn
	manager  *liveness.Manager
	tracker  *facetrack.Tracker
	verifier Verifier
	logger   *slog.Logger

	send      chan []byte
	closeOnce sync.Once

	faceStable bool
}

var _ liveness.Listener = (*Stream)(nil)

func newStream(conn *websocket.Conn, faces *facedetect.Detector, verifier Verifier, logger *slog.Logger) *Stream {
	s := &Stream{
		conn:     conn,
		tracker:  facetrack.NewTracker(facetrack.DefaultOptions()),
		verifier: verifier,
		logger:   logger,
		send:     make(chan []byte, sendBuffer),
	}
	s.manager = liveness.NewManager(faces, liveness.NewDetector(liveness.DefaultDetectorOptions()), s, logger)
	return s
}

// ReadPump consumes the connection until it closes: binary messages are
// camera frames, text messages are control commands.
func (s *Stream) ReadPump(ctx context.Context) {
	defer func() {
		s.manager.Stop()
		s.closeSend()
		_ = s.conn.Close()
	}()

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			s.manager.ProcessFrame(ctx, data)
		case websocket.TextMessage:
			s.handleCommand(data)
		}
	}
}

// WritePump drains the event queue onto the connection.
func (s *Stream) WritePump() {
	defer func() {
		_ = s.conn.Close()
	}()

	for message := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

func (s *Stream) handleCommand(data []byte) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.emitError("malformed command")
		return
	}

	switch cmd.Action {
	case "start":
		session, err := buildSession(cmd.Challenges)
		if err != nil {
			s.emitError(err.Error())
			return
		}
		s.tracker.Reset()
		s.faceStable = false
		s.manager.Start(session)
	case "stop":
		s.manager.Stop()
		s.tracker.Reset()
		s.faceStable = false
	case "skip":
		s.manager.SkipChallenge()
	default:
		s.emitError(fmt.Sprintf("unknown action %q", cmd.Action))
	}
}

// buildSession assembles a locally issued session from challenge type names.
func buildSession(names []string) (liveness.Session, error) {
	if len(names) == 0 {
		return liveness.Session{}, fmt.Errorf("no challenges requested")
	}

	challenges := make([]liveness.Challenge, 0, len(names))
	for i, name := range names {
		ct := liveness.ChallengeType(name)
		instruction, ok := instructions[ct]
		if !ok {
			return liveness.Session{}, fmt.Errorf("unknown challenge type %q", name)
		}
		challenges = append(challenges, liveness.Challenge{
			ID:          uuid.NewString(),
			Type:        ct,
			Instruction: instruction,
			Order:       i,
		})
	}

	return liveness.Session{
		ID:         uuid.NewString(),
		Challenges: challenges,
	}, nil
}

// ChallengeStarted implements liveness.Listener.
func (s *Stream) ChallengeStarted(challenge liveness.Challenge) {
	s.emit(EventChallengeStarted, challenge)
}

// Progress implements liveness.Listener. The per-frame face observation also
// feeds the stability tracker so the client can render hold-still guidance.
func (s *Stream) Progress(challenge liveness.Challenge, progress float64, face *facedetect.DetectedFace) {
	update := s.tracker.Observe(face)
	if update.FaceLost {
		s.faceStable = false
		s.emit(EventFaceLost, nil)
	}
	if update.Stable && !s.faceStable {
		s.faceStable = true
		s.emit(EventFaceStable, nil)
	} else if !update.Stable {
		s.faceStable = false
	}

	s.emit(EventChallengeProgress, ProgressData{
		ChallengeID:  challenge.ID,
		Progress:     progress,
		FaceDetected: face != nil,
	})
}

// ChallengeCompleted implements liveness.Listener.
func (s *Stream) ChallengeCompleted(result liveness.ChallengeResult) {
	s.emit(EventChallengeCompleted, CompletedData{
		ChallengeID: result.Challenge.ID,
		Type:        string(result.Challenge.Type),
		Passed:      result.Passed,
		Confidence:  result.Confidence,
	})
}

// SessionCompleted implements liveness.Listener. When a verifier is
// configured, the outcome is also submitted to the backend off the frame
// path; the client already received the local result either way.
func (s *Stream) SessionCompleted(result liveness.SessionResult) {
	s.emit(EventSessionCompleted, result)
	if s.verifier != nil {
		go s.submitResult(result)
	}
}

func (s *Stream) submitResult(result liveness.SessionResult) {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	verdict, err := s.verifier.SubmitLiveness(ctx, result)
	if err != nil {
		s.logger.Warn("liveness submission failed",
			"session_id", result.SessionID, "error", err)
		return
	}
	s.logger.Info("liveness submitted",
		"session_id", result.SessionID,
		"accepted", verdict.Accepted,
		"score", verdict.Score,
	)
}

func (s *Stream) emitError(message string) {
	s.emit(EventError, ErrorData{Message: message})
}

func (s *Stream) emit(eventType EventType, data interface{}) {
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("event marshal failed", "type", eventType, "error", err)
		return
	}

	select {
	case s.send <- payload:
	default:
		s.logger.Debug("event dropped, slow consumer", "type", eventType)
	}
}

func (s *Stream) closeSend() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}
