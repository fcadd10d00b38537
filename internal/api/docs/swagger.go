package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
)

// QualityMetricsData represents the computed quality metrics
type QualityMetricsData struct {
	BlurScore  float64 `json:"blur_score" example:"153.2"`
	Brightness float64 `json:"brightness" example:"0.52"`
	GlareRatio float64 `json:"glare_ratio" example:"0.01"`
}

// QualityIssueData represents one quality finding
type QualityIssueData struct {
	Type     string `json:"type" example:"blur"`
	Message  string `json:"message" example:"image is blurry, hold the device steady"`
	Severity string `json:"severity" example:"error"`
}

// QualityCheckResponse represents the response for a quality check
type QualityCheckResponse struct {
	Valid   bool               `json:"valid" example:"true"`
	Metrics QualityMetricsData `json:"metrics"`
	Issues  []QualityIssueData `json:"issues"`
}

// SelfieValidationResponse represents the response for selfie validation
type SelfieValidationResponse struct {
	Valid     bool               `json:"valid" example:"true"`
	FaceCount int                `json:"face_count" example:"1"`
	Issues    []string           `json:"issues" example:"[]"`
	Metrics   QualityMetricsData `json:"metrics"`
	Quality   []QualityIssueData `json:"quality_issues"`
}

// CornerData is one normalized document corner
type CornerData struct {
	X float64 `json:"x" example:"0.12"`
	Y float64 `json:"y" example:"0.08"`
}

// DocumentScanResponse represents the response for a document scan
type DocumentScanResponse struct {
	Corners         []CornerData `json:"corners"`
	Confidence      float64      `json:"confidence" example:"0.94"`
	RectifiedBase64 string       `json:"rectified_base64" example:"/9j/4AAQ..."`
}

// MRZDataResponse represents parsed MRZ fields
type MRZDataResponse struct {
	Format              string   `json:"format" example:"TD3"`
	DocumentType        string   `json:"document_type" example:"P"`
	IssuingCountry      string   `json:"issuing_country" example:"UTO"`
	DocumentNumber      string   `json:"document_number" example:"L898902C3"`
	Surname             string   `json:"surname" example:"ERIKSSON"`
	GivenNames          string   `json:"given_names" example:"ANNA MARIA"`
	Nationality         string   `json:"nationality" example:"UTO"`
	BirthDate           string   `json:"birth_date" example:"740812"`
	ExpiryDate          string   `json:"expiry_date" example:"120415"`
	Sex                 string   `json:"sex" example:"F"`
	OptionalData        string   `json:"optional_data,omitempty" example:"ZE184226B"`
	OptionalData2       string   `json:"optional_data_2,omitempty"`
	DocumentNumberValid bool     `json:"document_number_valid" example:"true"`
	BirthDateValid      bool     `json:"birth_date_valid" example:"true"`
	ExpiryDateValid     bool     `json:"expiry_date_valid" example:"true"`
	ValidationErrors    []string `json:"validation_errors,omitempty" example:"birth date check digit mismatch"`
}

// MRZReadResponse represents the response for MRZ reading
type MRZReadResponse struct {
	Data      MRZDataResponse `json:"data"`
	Valid     bool            `json:"valid" example:"true"`
	BirthDate string          `json:"birth_date_iso,omitempty" example:"1974-08-12"`
	Expiry    string          `json:"expiry_date_iso,omitempty" example:"2012-04-15"`
}

// HealthData represents the health check response
type HealthData struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Ocula Capture API",
		Version:     "v0.1.0",
		Description: "Identity verification capture validation: image quality scoring, selfie validation, document scanning with perspective correction, and MRZ reading",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /v1/quality - Quality check
		endpoint.New(
			endpoint.POST,
			"/quality",
			endpoint.WithTags("Quality"),
			endpoint.WithSummary("Score a capture for quality"),
			endpoint.WithDescription("Computes blur, brightness and glare metrics for the uploaded image and reports threshold violations as issues"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(QualityCheckResponse{}, "200", "Quality check completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/selfie/validate - Selfie validation
		endpoint.New(
			endpoint.POST,
			"/selfie/validate",
			endpoint.WithTags("Selfie"),
			endpoint.WithSummary("Validate a selfie capture"),
			endpoint.WithDescription("Runs face detection and selfie-specific checks: single face, framing, pose and quality metrics"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SelfieValidationResponse{}, "200", "Selfie validated"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in the image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "PROVIDER_UNAVAILABLE", Message: "Vision provider is unavailable"}, "503", "Service Unavailable"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/document/scan - Document scan
		endpoint.New(
			endpoint.POST,
			"/document/scan",
			endpoint.WithTags("Document"),
			endpoint.WithSummary("Detect and rectify a document"),
			endpoint.WithDescription("Detects a document quadrilateral in the uploaded image and returns the perspective-corrected crop as base64 JPEG"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DocumentScanResponse{}, "200", "Document scanned"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "NO_DOCUMENT_DETECTED", Message: "No document detected in the image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "DOCUMENT_NOT_RECTIFIABLE", Message: "Document corners are too degenerate for perspective correction"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "PROVIDER_UNAVAILABLE", Message: "Vision provider is unavailable"}, "503", "Service Unavailable"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// POST /v1/mrz - MRZ reading
		endpoint.New(
			endpoint.POST,
			"/mrz",
			endpoint.WithTags("MRZ"),
			endpoint.WithSummary("Read the machine-readable zone"),
			endpoint.WithDescription("Recognizes printed text in the uploaded document image and parses the ICAO 9303 MRZ (TD1, TD2 or TD3) with per-field check-digit validation"),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MRZReadResponse{}, "200", "MRZ parsed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "MRZ_NOT_FOUND", Message: "No machine-readable zone recognized in the image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "PROVIDER_UNAVAILABLE", Message: "Vision provider is unavailable"}, "503", "Service Unavailable"),
				response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
			}),
		),

		// GET /health - Health check
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Health check"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthData{}, "200", "Service is healthy"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
