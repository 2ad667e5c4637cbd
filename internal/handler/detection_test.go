package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/growmate/growmate/internal/classifier"
)

type stubClassifier struct {
	res classifier.Result
	err error
}

func (s stubClassifier) Classify(_ []byte) (classifier.Result, error) { return s.res, s.err }

type stubAdvice struct {
	reply string
	got   string
}

func (s *stubAdvice) Generate(_ context.Context, prompt string) string {
	s.got = prompt
	return s.reply
}

// callUpload posts a multipart form with an optional "image" part.
func callUpload(t *testing.T, h echo.HandlerFunc, withImage bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if withImage {
		part, err := w.CreateFormFile("image", "leaf.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestDetectHappyPath(t *testing.T) {
	adv := &stubAdvice{reply: "**Leaf Blight** responds well to copper fungicide."}
	h := NewDetectionHandler(
		stubClassifier{res: classifier.Result{Prediction: "Leaf Blight", Confidence: 87.0}},
		adv, nil, zap.NewNop().Sugar())

	rec := callUpload(t, h.Detect, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp detectionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Leaf Blight", resp.Prediction)
	assert.InDelta(t, 87.0, resp.Confidence, 1e-9)
	assert.Equal(t, adv.reply, resp.Analysis)
	assert.Contains(t, resp.AnalysisHTML, "<strong>Leaf Blight</strong>")

	// The prompt embeds the classification the advice elaborates on.
	assert.Contains(t, adv.got, "'Leaf Blight'")
	assert.Contains(t, adv.got, "87.00%")
}

func TestDetectDeliversFallbackAdvice(t *testing.T) {
	// Advice degradation must not hide the classification result.
	adv := &stubAdvice{reply: "Unable to generate analysis at this time."}
	h := NewDetectionHandler(
		stubClassifier{res: classifier.Result{Prediction: "Healthy", Confidence: 61.5}},
		adv, nil, zap.NewNop().Sugar())

	rec := callUpload(t, h.Detect, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp detectionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Healthy", resp.Prediction)
	assert.Equal(t, "Unable to generate analysis at this time.", resp.Analysis)
}

func TestDetectClassificationFailureIsFatal(t *testing.T) {
	adv := &stubAdvice{reply: "should never be asked"}
	h := NewDetectionHandler(
		stubClassifier{err: errors.New("decode image: bad magic")},
		adv, nil, zap.NewNop().Sugar())

	rec := callUpload(t, h.Detect, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, adv.got, "no advice call on a failed classification")
}

func TestDetectMissingFile(t *testing.T) {
	h := NewDetectionHandler(stubClassifier{}, &stubAdvice{}, nil, zap.NewNop().Sugar())

	rec := callUpload(t, h.Detect, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no file provided")
}

func TestAnalyzeReturnsBareClassification(t *testing.T) {
	h := NewDetectionHandler(
		stubClassifier{res: classifier.Result{Prediction: "Leaf Blight", Confidence: 87.0}},
		&stubAdvice{}, nil, zap.NewNop().Sugar())

	rec := callUpload(t, h.Analyze, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var res classifier.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "Leaf Blight", res.Prediction)
	assert.InDelta(t, 87.0, res.Confidence, 1e-9)
}

func TestAnalyzeClassificationFailure(t *testing.T) {
	h := NewDetectionHandler(
		stubClassifier{err: errors.New("inference: shape mismatch")},
		&stubAdvice{}, nil, zap.NewNop().Sugar())

	rec := callUpload(t, h.Analyze, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to analyze disease")
}
