package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Vision provider
	ProviderType string `envconfig:"PROVIDER_TYPE" default:"mock"`
	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Verification backend
	VerificationURL    string `envconfig:"VERIFICATION_URL" default:"http://localhost:8090"`
	VerificationAPIKey string `envconfig:"VERIFICATION_API_KEY"`

	// Quality
	QualityProfile string `envconfig:"QUALITY_PROFILE" default:"default"`

	// Detection thresholds; zero means package default
	MinFaceConfidence     float64 `envconfig:"MIN_FACE_CONFIDENCE" default:"0"`
	MinDocumentConfidence float64 `envconfig:"MIN_DOCUMENT_CONFIDENCE" default:"0"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
