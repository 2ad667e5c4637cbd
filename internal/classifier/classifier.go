// Package classifier turns an uploaded plant image into a disease label with
// a confidence score. The trained model and the label map are loaded once at
// startup and never mutated, so Classify is a pure function of its input and
// safe to call from concurrent requests.
package classifier

import (
	"bytes"
	"fmt"
	"image"

	// Register decoders for the upload formats we accept.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Result is a single classification outcome. Prediction is a value from the
// label map, or "Unknown" when the winning index is unmapped. Confidence is
// the top probability scaled to [0,100].
type Result struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// Classifier binds a Predictor to its label map.
type Classifier struct {
	model  Predictor
	labels LabelMap
}

// New builds a Classifier from already-loaded parts.
func New(model Predictor, labels LabelMap) *Classifier {
	return &Classifier{model: model, labels: labels}
}

// Load reads the model and label artifacts from disk and returns a ready
// Classifier.
func Load(modelPath, labelsPath string) (*Classifier, error) {
	model, err := LoadNetwork(modelPath)
	if err != nil {
		return nil, err
	}
	labels, err := LoadLabels(labelsPath)
	if err != nil {
		return nil, err
	}
	return New(model, labels), nil
}

// Classify decodes the image, resizes it to the model input square,
// normalizes pixels to [0,1] and runs the forward pass. The decision rule is
// argmax over the probability vector with ties broken by the lowest index.
// Any decode, resize or inference failure is returned as an error; there is
// never a partial result.
func (c *Classifier) Classify(imageBytes []byte) (Result, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}

	pixels := preprocess(img, c.model.InputSize())

	probs, err := c.model.Predict(pixels)
	if err != nil {
		return Result{}, fmt.Errorf("inference: %w", err)
	}
	if len(probs) == 0 {
		return Result{}, fmt.Errorf("inference: empty probability vector")
	}

	best := argmax(probs)
	return Result{
		Prediction: c.labels.LabelFor(best),
		Confidence: probs[best] * 100,
	}, nil
}

// preprocess scales the image to size×size with bilinear interpolation and
// flattens it row-major as height × width × RGB, each channel divided by 255.
func preprocess(img image.Image, size int) []float64 {
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	pixels := make([]float64, 0, size*size*3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			// RGBA returns 16-bit channels; shift back to 8-bit before
			// normalizing so values match the original /255 pipeline.
			pixels = append(pixels,
				float64(r>>8)/255.0,
				float64(g>>8)/255.0,
				float64(b>>8)/255.0,
			)
		}
	}
	return pixels
}

// argmax returns the index of the maximum value. The strict > comparison
// keeps the first (lowest) index on ties.
func argmax(v []float64) int {
	best := 0
	for i, x := range v {
		if x > v[best] {
			best = i
		}
	}
	return best
}
