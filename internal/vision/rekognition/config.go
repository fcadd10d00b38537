package rekognition

// Config holds configuration for the AWS Rekognition vision provider.
type Config struct {
	// Region is the AWS region where Rekognition will be called
	// (e.g., "us-east-1").
	Region string

	// MinTextConfidence filters DetectText results below this confidence,
	// in percent as reported by AWS (0-100).
	MinTextConfidence float32
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Region:            "us-east-1",
		MinTextConfidence: 80,
	}
}
