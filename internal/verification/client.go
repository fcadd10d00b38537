// Package verification talks to the remote verification backend: session
// creation, capture uploads, liveness outcome submission and the final
// decision. The perception core runs on-device; this client is the only
// network egress.
package verification

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ocula-id/ocula/internal/liveness"
)

// Config holds the configuration for the verification client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:8090",
		Timeout:    30 * time.Second,
		RetryCount: 3,
	}
}

// Client is the HTTP client for the verification backend.
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new verification client.
func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// CreateSession asks the backend for a liveness session and converts the
// challenge sequence into the on-device session model.
func (c *Client) CreateSession(ctx context.Context, challengeCount int) (*liveness.Session, error) {
	req := createSessionRequest{ChallengeCount: challengeCount}

	var resp SessionResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, "/v1/sessions", req, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrInvalidResponse)
	}

	session := &liveness.Session{
		ID:        resp.SessionID,
		ExpiresAt: resp.ExpiresAt,
	}
	for _, spec := range resp.Challenges {
		session.Challenges = append(session.Challenges, liveness.Challenge{
			ID:          spec.ID,
			Type:        liveness.ChallengeType(spec.Type),
			Instruction: spec.Instruction,
			Order:       spec.Order,
		})
	}
	return session, nil
}

// UploadDocument uploads the rectified document capture.
func (c *Client) UploadDocument(ctx context.Context, sessionID string, image []byte) (*UploadResponse, error) {
	return c.upload(ctx, "/v1/documents", sessionID, image)
}

// UploadSelfie uploads the validated selfie capture.
func (c *Client) UploadSelfie(ctx context.Context, sessionID string, image []byte) (*UploadResponse, error) {
	return c.upload(ctx, "/v1/selfies", sessionID, image)
}

func (c *Client) upload(ctx context.Context, path, sessionID string, image []byte) (*UploadResponse, error) {
	req := uploadRequest{
		SessionID:   sessionID,
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	}

	var resp UploadResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitLiveness reports the session's challenge outcomes, including the
// per-challenge stills.
func (c *Client) SubmitLiveness(ctx context.Context, result liveness.SessionResult) (*LivenessVerdict, error) {
	req := submitLivenessRequest{SessionID: result.SessionID}
	for _, r := range result.Results {
		outcome := ChallengeOutcome{
			ChallengeID: r.Challenge.ID,
			Type:        string(r.Challenge.Type),
			Passed:      r.Passed,
			Confidence:  r.Confidence,
		}
		if len(r.Image) > 0 {
			outcome.ImageBase64 = base64.StdEncoding.EncodeToString(r.Image)
		}
		req.Outcomes = append(req.Outcomes, outcome)
	}

	var resp LivenessVerdict
	if err := c.doRequestWithRetry(ctx, http.MethodPost, "/v1/liveness", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Complete requests the final verification decision for the session.
func (c *Client) Complete(ctx context.Context, sessionID, documentID, selfieID string) (*Result, error) {
	req := completeRequest{
		SessionID:  sessionID,
		DocumentID: documentID,
		SelfieID:   selfieID,
	}

	var resp Result
	if err := c.doRequestWithRetry(ctx, http.MethodPost, "/v1/verifications", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// maxBackoff is the maximum backoff duration for retries.
const maxBackoff = 30 * time.Second

// calculateBackoff returns the exponential backoff for a given attempt:
// 1s, 2s, 4s, 8s, capped at maxBackoff.
func calculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	seconds := 1
	for i := 1; i < attempt && i < 6; i++ {
		seconds *= 2
	}
	return time.Duration(seconds) * time.Second
}

// doRequestWithRetry executes an HTTP request with retry on server errors.
func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			backoff := calculateBackoff(attempt)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = c.doRequest(ctx, method, path, body, result)
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Client errors (4xx) are not retried; only server errors are.
		if isClientError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: %v", ErrBackendUnavailable, lastErr)
}

// isClientError checks if the error is a 4xx client error.
func isClientError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for status := 400; status < 500; status++ {
		if strings.Contains(errStr, fmt.Sprintf("status %d", status)) {
			return true
		}
	}
	return false
}

// doRequest executes a single HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	url := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: status %d: %s", ErrSessionNotFound, resp.StatusCode, string(respBody))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("verification backend returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	return nil
}
