package verification

import "errors"

var (
	ErrBackendUnavailable = errors.New("verification backend unavailable")
	ErrInvalidResponse    = errors.New("invalid response from verification backend")
	ErrSessionNotFound    = errors.New("verification session not found")
	ErrRejected           = errors.New("verification rejected by backend")
)
