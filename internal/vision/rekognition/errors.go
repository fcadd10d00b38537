package rekognition

import "errors"

var (
	// ErrInvalidImage indicates the image bytes are outside Rekognition's
	// accepted size range.
	ErrInvalidImage = errors.New("invalid image for rekognition")

	// ErrInvalidCredentials indicates AWS credentials are invalid or missing.
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrThrottled indicates the AWS API rejected the call for rate limiting.
	ErrThrottled = errors.New("rekognition request throttled")
)
