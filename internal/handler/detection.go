package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/growmate/growmate/internal/classifier"
	"github.com/growmate/growmate/internal/middleware"
	"github.com/growmate/growmate/internal/queue"
)

// AdviceGenerator is the part of the advice client the handlers use.
// Narrowing to an interface keeps handler tests free of real HTTP calls.
type AdviceGenerator interface {
	Generate(ctx context.Context, prompt string) string
}

// ImageClassifier is the classification entry point consumed by handlers.
type ImageClassifier interface {
	Classify(imageBytes []byte) (classifier.Result, error)
}

// DetectionHandler serves the disease-detection endpoints: the full pipeline
// (classify + generated care advice) and the bare classification API.
type DetectionHandler struct {
	Classifier ImageClassifier
	Advice     AdviceGenerator
	Publisher  *queue.Publisher // nil when events are disabled
	Log        *zap.SugaredLogger
}

func NewDetectionHandler(cl ImageClassifier, adv AdviceGenerator, pub *queue.Publisher, log *zap.SugaredLogger) *DetectionHandler {
	return &DetectionHandler{Classifier: cl, Advice: adv, Publisher: pub, Log: log}
}

type detectionResp struct {
	Prediction   string  `json:"prediction"`
	Confidence   float64 `json:"confidence"`
	Analysis     string  `json:"analysis"`
	AnalysisHTML string  `json:"analysis_html"`
}

// Detect handles the full pipeline: multipart image upload → classification
// → generated care advice. Classification failure rejects the request with a
// clear message; advice failure degrades to the fallback text so the
// classification result is still delivered.
func (h *DetectionHandler) Detect(c echo.Context) error {
	imageBytes, fileName, err := readUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no file provided"})
	}

	result, err := h.Classifier.Classify(imageBytes)
	if err != nil {
		h.Log.Errorw("error analyzing plant disease", "file", fileName, "err", err)
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "error analyzing plant disease"})
	}
	h.Log.Infow("classification result", "prediction", result.Prediction, "confidence", fmt.Sprintf("%.2f%%", result.Confidence))

	analysis := h.Advice.Generate(c.Request().Context(), diagnosisPrompt(result.Prediction, result.Confidence))

	if h.Publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Best effort; the publisher logs its own failures.
		_ = h.Publisher.PublishAnalysisCompleted(ctx, queue.AnalysisCompletedEvent{
			AnalysisID: uuid.NewString(),
			UserEmail:  middleware.Email(c),
			FileName:   fileName,
			Prediction: result.Prediction,
			Confidence: result.Confidence,
			AnalyzedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, detectionResp{
		Prediction:   result.Prediction,
		Confidence:   result.Confidence,
		Analysis:     analysis,
		AnalysisHTML: renderMarkdown(analysis),
	})
}

// Analyze is the bare classification API: same upload contract, no generated
// advice. It stays public, matching the original service's JSON endpoint.
func (h *DetectionHandler) Analyze(c echo.Context) error {
	imageBytes, fileName, err := readUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no file provided"})
	}

	result, err := h.Classifier.Classify(imageBytes)
	if err != nil {
		h.Log.Errorw("error analyzing plant disease", "file", fileName, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to analyze disease"})
	}
	return c.JSON(http.StatusOK, result)
}

// readUpload pulls the "image" part out of the multipart form and returns
// its bytes and file name. The router caps request bodies at 16MB, so the
// whole image fits in memory.
func readUpload(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, "", err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}

// diagnosisPrompt elaborates a classification result into a care-advice
// request. The wording follows the prompt the service has always sent.
func diagnosisPrompt(prediction string, confidence float64) string {
	return fmt.Sprintf(
		"Provide a detailed analysis of the plant disease prediction: '%s' with a confidence of %.2f%%. "+
			"Ensure the response includes care tips and specific recommendations. "+
			"If the prediction seems incomplete or unclear, Just tell Retry",
		prediction, confidence)
}
