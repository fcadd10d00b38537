package handler

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ocula-id/ocula/internal/domain"
	"github.com/ocula-id/ocula/internal/mrz"
	"github.com/ocula-id/ocula/internal/quality"
	"github.com/ocula-id/ocula/internal/service"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// PerceptionService interface for the service
type PerceptionService interface {
	ValidateQuality(ctx context.Context, image []byte) (*quality.Report, error)
	ValidateSelfie(ctx context.Context, image []byte) (*service.SelfieValidation, error)
	ScanDocument(ctx context.Context, image []byte) (*service.DocumentScan, error)
	ReadMRZ(ctx context.Context, image []byte) (*mrz.Data, error)
}

// PerceptionHandler handles capture validation requests
type PerceptionHandler struct {
	service PerceptionService
	logger  *slog.Logger
}

// NewPerceptionHandler creates a new PerceptionHandler instance
func NewPerceptionHandler(service PerceptionService, logger *slog.Logger) *PerceptionHandler {
	return &PerceptionHandler{
		service: service,
		logger:  logger,
	}
}

// QualityResponse response for the quality endpoint
type QualityResponse struct {
	Valid   bool            `json:"valid"`
	Metrics quality.Metrics `json:"metrics"`
	Issues  []quality.Issue `json:"issues"`
}

// SelfieResponse response for the selfie validation endpoint
type SelfieResponse struct {
	Valid     bool            `json:"valid"`
	FaceCount int             `json:"face_count"`
	Issues    []string        `json:"issues"`
	Metrics   quality.Metrics `json:"metrics"`
	Quality   []quality.Issue `json:"quality_issues"`
}

// CornerResponse is one normalized document corner
type CornerResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DocumentScanResponse response for the document scan endpoint
type DocumentScanResponse struct {
	Corners         [4]CornerResponse `json:"corners"`
	Confidence      float64           `json:"confidence"`
	RectifiedBase64 string            `json:"rectified_base64"`
}

// MRZResponse response for the MRZ endpoint
type MRZResponse struct {
	Data      *mrz.Data `json:"data"`
	Valid     bool      `json:"valid"`
	BirthDate string    `json:"birth_date_iso,omitempty"`
	Expiry    string    `json:"expiry_date_iso,omitempty"`
}

// ValidateQuality POST /v1/quality - score a capture for blur, brightness and glare
func (h *PerceptionHandler) ValidateQuality(c *fiber.Ctx) error {
	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("validate quality: %w", err)
	}

	report, err := h.service.ValidateQuality(c.Context(), imageBytes)
	if err != nil {
		return err
	}

	return c.JSON(QualityResponse{
		Valid:   report.Valid(),
		Metrics: report.Metrics,
		Issues:  report.Issues,
	})
}

// ValidateSelfie POST /v1/selfie/validate - validate a selfie capture
func (h *PerceptionHandler) ValidateSelfie(c *fiber.Ctx) error {
	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("validate selfie: %w", err)
	}

	result, err := h.service.ValidateSelfie(c.Context(), imageBytes)
	if err != nil {
		return err
	}

	return c.JSON(SelfieResponse{
		Valid:     result.Valid,
		FaceCount: result.FaceCount,
		Issues:    result.Issues,
		Metrics:   result.Report.Metrics,
		Quality:   result.Report.Issues,
	})
}

// ScanDocument POST /v1/document/scan - detect and rectify a document
func (h *PerceptionHandler) ScanDocument(c *fiber.Ctx) error {
	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("scan document: %w", err)
	}

	scan, err := h.service.ScanDocument(c.Context(), imageBytes)
	if err != nil {
		return err
	}

	var corners [4]CornerResponse
	for i, p := range scan.Result.Corners {
		corners[i] = CornerResponse{X: p.X, Y: p.Y}
	}

	return c.JSON(DocumentScanResponse{
		Corners:         corners,
		Confidence:      scan.Result.Confidence,
		RectifiedBase64: base64.StdEncoding.EncodeToString(scan.Rectified),
	})
}

// ReadMRZ POST /v1/mrz - recognize and parse a machine-readable zone
func (h *PerceptionHandler) ReadMRZ(c *fiber.Ctx) error {
	imageBytes, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("read mrz: %w", err)
	}

	data, err := h.service.ReadMRZ(c.Context(), imageBytes)
	if err != nil {
		return err
	}

	resp := MRZResponse{
		Data:  data,
		Valid: data.Valid(),
	}
	if birth, err := mrz.ParseDate(data.BirthDate, true); err == nil {
		resp.BirthDate = birth.Format("2006-01-02")
	}
	if expiry, err := mrz.ParseDate(data.ExpiryDate, false); err == nil {
		resp.Expiry = expiry.Format("2006-01-02")
	}
	return c.JSON(resp)
}

// extractAndValidateImage extracts and validates the image from the form
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	// 1. Extract file
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	// 2. Validate size
	if file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	// 3. Validate Content-Type
	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	// 4. Read image bytes
	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
