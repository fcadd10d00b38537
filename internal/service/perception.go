// Package service wires the perception packages behind the API: decoding,
// face and document detection, quality validation and MRZ reading.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ocula-id/ocula/internal/docscan"
	"github.com/ocula-id/ocula/internal/domain"
	"github.com/ocula-id/ocula/internal/facedetect"
	"github.com/ocula-id/ocula/internal/imaging"
	"github.com/ocula-id/ocula/internal/mrz"
	"github.com/ocula-id/ocula/internal/quality"
	"github.com/ocula-id/ocula/internal/vision"
)

// SelfieValidation is the outcome of a selfie validation request.
type SelfieValidation struct {
	FaceCount int
	Issues    []string
	Report    quality.Report
	Valid     bool
}

// DocumentScan is the outcome of a single-shot document scan: the detected
// quadrilateral and the perspective-corrected crop as JPEG bytes.
type DocumentScan struct {
	Result    docscan.Result
	Rectified []byte
}

// PerceptionService exposes the perception core to the API handlers.
type PerceptionService struct {
	provider  vision.Provider
	faces     *facedetect.Detector
	validator *quality.Validator
	scanOpts  docscan.Options
	logger    *slog.Logger
}

// NewPerceptionService creates the service.
func NewPerceptionService(provider vision.Provider, faces *facedetect.Detector, validator *quality.Validator, scanOpts docscan.Options, logger *slog.Logger) *PerceptionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PerceptionService{
		provider:  provider,
		faces:     faces,
		validator: validator,
		scanOpts:  scanOpts,
		logger:    logger,
	}
}

// ValidateQuality scores one still for blur, brightness and glare.
func (s *PerceptionService) ValidateQuality(ctx context.Context, image []byte) (*quality.Report, error) {
	img, err := imaging.Decode(image)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	report := s.validator.ValidateImage(img)
	return &report, nil
}

// ValidateSelfie runs face detection plus the selfie-specific quality checks
// on one still. No face is an error at this surface: the caller explicitly
// asked whether the capture is a usable selfie.
func (s *PerceptionService) ValidateSelfie(ctx context.Context, image []byte) (*SelfieValidation, error) {
	img, err := imaging.Decode(image)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	faces, err := s.faces.Detect(ctx, image)
	if err != nil {
		return nil, domain.ErrProviderUnavailable.WithError(err)
	}
	if len(faces) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	issues := facedetect.ValidateSelfie(faces)

	face := &faces[0]
	report := s.validator.ValidateSelfie(img, face)

	return &SelfieValidation{
		FaceCount: len(faces),
		Issues:    issues,
		Report:    report,
		Valid:     len(issues) == 0 && report.Valid(),
	}, nil
}

// ScanDocument runs single-shot document detection and perspective
// correction. Streaming captures track stability on-device; at this surface
// one acceptable observation is enough.
func (s *PerceptionService) ScanDocument(ctx context.Context, image []byte) (*DocumentScan, error) {
	img, err := imaging.Decode(image)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	// A fresh scanner per request: the scanner is single-writer and its
	// stability run is meaningless across unrelated requests.
	scanner := docscan.NewScanner(s.provider, s.scanOpts)
	result, err := scanner.Process(ctx, image)
	if err != nil {
		return nil, domain.ErrProviderUnavailable.WithError(err)
	}
	if result == nil {
		return nil, domain.ErrNoDocumentDetected
	}

	rectified, ok := docscan.Rectify(img, result.Corners)
	if !ok {
		return nil, domain.ErrDocumentNotRectifiable
	}
	data, err := imaging.EncodeJPEG(rectified)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	return &DocumentScan{
		Result:    *result,
		Rectified: data,
	}, nil
}

// ReadMRZ recognizes text in a document still and parses the machine-
// readable zone. Check-digit failures are not errors: the parsed data
// carries per-field verdicts and the caller decides.
func (s *PerceptionService) ReadMRZ(ctx context.Context, image []byte) (*mrz.Data, error) {
	if _, err := imaging.Decode(image); err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	lines, err := s.provider.RecognizeText(ctx, image)
	if err != nil {
		return nil, domain.ErrProviderUnavailable.WithError(err)
	}

	text := mrz.AssembleLines(lines)
	if text == "" {
		return nil, domain.ErrMRZNotFound
	}

	data, err := mrz.Parse(text)
	if err != nil {
		if errors.Is(err, mrz.ErrUnrecognized) {
			return nil, domain.ErrMRZNotFound.WithError(err)
		}
		return nil, domain.ErrInternal.WithError(err)
	}

	if !data.Valid() {
		s.logger.Debug("mrz check digits failed",
			"format", data.Format,
			"validation_errors", data.ValidationErrors,
		)
	}
	return data, nil
}
