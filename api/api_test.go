package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstar-tools/imageprep/jpeginfo"
	"github.com/dstar-tools/imageprep/prep"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	SetupRoutes(r, &Config{
		MaxFileSize: 10 * 1024 * 1024,
		TempDir:     t.TempDir(),
		Prep:        prep.DefaultOptions(),
	})
	return r
}

func getTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 77, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func getTestJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 120, 90)), nil))
	return buf.Bytes()
}

// uploadRequest builds a multipart POST with the given file under field
// "image" plus any extra form fields.
func uploadRequest(t *testing.T, url string, file []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "upload.bin")
	require.NoError(t, err)
	_, err = part.Write(file)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestConvertUpload(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/image/convert", getTestPNG(t), nil))

	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	assert.Equal(t, "640x480", w.Header().Get("X-Frame-Size"))

	quality, err := strconv.Atoi(w.Header().Get("X-Jpeg-Quality"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, quality, 35)
	assert.LessOrEqual(t, quality, 88)

	info, err := jpeginfo.ScanBytes(w.Body.Bytes())
	require.NoError(t, err, "response body should be a JPEG")
	assert.True(t, info.Baseline())
	assert.Equal(t, 640, info.Width)
	assert.Equal(t, 480, info.Height)
}

func TestConvertUploadWithMode(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/image/convert", getTestPNG(t), map[string]string{"mode": "contain"}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/image/convert", getTestPNG(t), map[string]string{"mode": "bogus"}))
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown mode is rejected")
}

func TestConvertRejectsNonImage(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/image/convert", []byte("plain text, not pixels"), nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
}

func TestConvertRejectsOversized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r, &Config{
		MaxFileSize: 64, // tiny ceiling
		TempDir:     t.TempDir(),
		Prep:        prep.DefaultOptions(),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/image/convert", getTestPNG(t), nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too large")
}

func TestConvertMissingFile(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/image/convert", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInspect(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/image/inspect", getTestJPEG(t), nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(120), resp["width"])
	assert.Equal(t, float64(90), resp["height"])
	assert.Equal(t, true, resp["baseline"])
	assert.Equal(t, false, resp["progressive"])
}

func TestInspectRejectsNonJPEG(t *testing.T) {
	r := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/api/image/inspect", getTestPNG(t), nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "JPEG")
}
