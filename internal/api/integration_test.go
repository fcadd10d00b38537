package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocula-id/ocula/internal/docscan"
	"github.com/ocula-id/ocula/internal/facedetect"
	"github.com/ocula-id/ocula/internal/quality"
	"github.com/ocula-id/ocula/internal/service"
	"github.com/ocula-id/ocula/internal/vision"
	"github.com/ocula-id/ocula/internal/vision/mock"
)

func newTestRouter(provider *mock.Provider) *Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	faces := facedetect.NewDetector(provider, facedetect.DefaultOptions())
	validator := quality.NewValidator(quality.DefaultProfile())
	perception := service.NewPerceptionService(provider, faces, validator, docscan.DefaultOptions(), logger)

	router := NewRouter(logger, &Dependencies{Perception: perception, Faces: faces})
	router.Setup()
	return router
}

// sharpPNG encodes a checkerboard of mid-gray tones that passes every raster
// quality check.
func sharpPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	dark := color.RGBA{R: 64, G: 64, B: 64, A: 255}
	light := color.RGBA{R: 192, G: 192, B: 192, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, light)
			} else {
				img.Set(x, y, dark)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartImage builds an image-upload request body with the given part
// content type.
func multipartImage(t *testing.T, data []byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="capture.png"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func postImage(t *testing.T, router *Router, path string, data []byte) map[string]interface{} {
	t.Helper()
	body, contentType := multipartImage(t, data, "image/png")
	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", contentType)

	resp, err := router.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &result), "body: %s", raw)
	result["_status"] = float64(resp.StatusCode)
	return result
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(mock.New())

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := router.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "ok", result["status"])
}

func TestReadyEndpoint(t *testing.T) {
	router := newTestRouter(mock.New())

	req := httptest.NewRequest("GET", "/ready", nil)
	resp, err := router.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestNotFoundReturns404(t *testing.T) {
	router := newTestRouter(mock.New())

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	resp, err := router.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestQualityEndpoint(t *testing.T) {
	router := newTestRouter(mock.New())

	result := postImage(t, router, "/v1/quality", sharpPNG(t, 64, 64))
	assert.Equal(t, float64(200), result["_status"])
	assert.Equal(t, true, result["valid"])

	metrics, ok := result["metrics"].(map[string]interface{})
	require.True(t, ok)
	assert.Greater(t, metrics["blur_score"].(float64), 0.0)
}

func TestQualityEndpoint_UndecodableImage(t *testing.T) {
	router := newTestRouter(mock.New())

	result := postImage(t, router, "/v1/quality", []byte("not pixels at all"))
	assert.Equal(t, float64(422), result["_status"])

	errObj, ok := result["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "INVALID_IMAGE", errObj["code"])
}

func TestQualityEndpoint_MissingFile(t *testing.T) {
	router := newTestRouter(mock.New())

	req := httptest.NewRequest("POST", "/v1/quality", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := router.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
}

func TestSelfieEndpoint(t *testing.T) {
	provider := mock.New()
	provider.QueueFaces([]vision.Face{
		{
			BoundingBox: vision.BoundingBox{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5},
			Confidence:  0.95,
		},
	})
	router := newTestRouter(provider)

	result := postImage(t, router, "/v1/selfie/validate", sharpPNG(t, 64, 64))
	assert.Equal(t, float64(200), result["_status"])
	assert.Equal(t, true, result["valid"])
	assert.Equal(t, float64(1), result["face_count"])
}

func TestSelfieEndpoint_NoFace(t *testing.T) {
	provider := mock.New()
	provider.QueueFaces(nil)
	router := newTestRouter(provider)

	result := postImage(t, router, "/v1/selfie/validate", sharpPNG(t, 64, 64))
	assert.Equal(t, float64(422), result["_status"])

	errObj, ok := result["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "NO_FACE_DETECTED", errObj["code"])
}

func TestDocumentScanEndpoint(t *testing.T) {
	provider := mock.New()
	provider.SetDocument(&vision.DocumentObservation{
		Corners: [4]vision.Point{
			{X: 0.1, Y: 0.2},
			{X: 0.9, Y: 0.2},
			{X: 0.9, Y: 0.7},
			{X: 0.1, Y: 0.7},
		},
		Confidence: 0.95,
	})
	router := newTestRouter(provider)

	result := postImage(t, router, "/v1/document/scan", sharpPNG(t, 200, 200))
	assert.Equal(t, float64(200), result["_status"])
	assert.Equal(t, 0.95, result["confidence"])
	assert.NotEmpty(t, result["rectified_base64"])
}

func TestDocumentScanEndpoint_NoDocument(t *testing.T) {
	router := newTestRouter(mock.New())

	result := postImage(t, router, "/v1/document/scan", sharpPNG(t, 200, 200))
	assert.Equal(t, float64(422), result["_status"])

	errObj, ok := result["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "NO_DOCUMENT_DETECTED", errObj["code"])
}

func TestMRZEndpoint(t *testing.T) {
	provider := mock.New()
	provider.SetText([]vision.TextLine{
		{Text: "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<", VerticalPosition: 0.8},
		{Text: "L898902C36UTO7408122F1204159ZE184226B<<<<<10", VerticalPosition: 0.9},
	})
	router := newTestRouter(provider)

	result := postImage(t, router, "/v1/mrz", sharpPNG(t, 64, 64))
	assert.Equal(t, float64(200), result["_status"])
	assert.Equal(t, true, result["valid"])
	assert.Equal(t, "1974-08-12", result["birth_date_iso"])
	assert.Equal(t, "2012-04-15", result["expiry_date_iso"])

	data, ok := result["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "L898902C3", data["document_number"])
}

func TestMRZEndpoint_NotFound(t *testing.T) {
	provider := mock.New()
	provider.SetText([]vision.TextLine{
		{Text: "no machine readable zone here", VerticalPosition: 0.5},
	})
	router := newTestRouter(provider)

	result := postImage(t, router, "/v1/mrz", sharpPNG(t, 64, 64))
	assert.Equal(t, float64(422), result["_status"])

	errObj, ok := result["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "MRZ_NOT_FOUND", errObj["code"])
}
