package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Predictor runs a forward pass over a preprocessed pixel tensor and returns
// a probability vector over the known classes. Implementations must be safe
// for concurrent calls; the server classifies uploads from parallel requests
// without serializing them.
type Predictor interface {
	// InputSize returns the side length of the square input image.
	InputSize() int
	// Predict takes pixels normalized to [0,1], flattened row-major as
	// height × width × channels, and returns the class probabilities.
	Predict(pixels []float64) ([]float64, error)
}

// denseLayer is one fully connected layer of the network. Weights are stored
// row-major: weights[o*Inputs+i] connects input i to output o.
type denseLayer struct {
	Inputs  int       `json:"inputs"`
	Outputs int       `json:"outputs"`
	Weights []float64 `json:"weights"`
	Biases  []float64 `json:"biases"`
}

// Network is a feed-forward classifier loaded from a serialized weights file.
// Hidden layers use ReLU; the final layer is followed by softmax so Predict
// always returns a probability distribution. All fields are immutable after
// LoadNetwork, which makes concurrent forward passes safe without locking.
type Network struct {
	inputSize int
	channels  int
	layers    []denseLayer
}

// networkFile is the on-disk JSON layout of a serialized network.
type networkFile struct {
	InputSize int          `json:"input_size"`
	Channels  int          `json:"channels"`
	Layers    []denseLayer `json:"layers"`
}

// LoadNetwork reads and validates a serialized network. Layer dimensions are
// checked against each other and against the declared input shape so a
// corrupt artifact fails at startup, not mid-request.
func LoadNetwork(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var f networkFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	if f.InputSize <= 0 || f.Channels <= 0 || len(f.Layers) == 0 {
		return nil, fmt.Errorf("model %s: missing input shape or layers", path)
	}
	want := f.InputSize * f.InputSize * f.Channels
	for i, l := range f.Layers {
		if l.Inputs != want {
			return nil, fmt.Errorf("model %s: layer %d expects %d inputs, previous produces %d", path, i, l.Inputs, want)
		}
		if len(l.Weights) != l.Inputs*l.Outputs || len(l.Biases) != l.Outputs {
			return nil, fmt.Errorf("model %s: layer %d has inconsistent weight shape", path, i)
		}
		want = l.Outputs
	}
	return &Network{inputSize: f.InputSize, channels: f.Channels, layers: f.Layers}, nil
}

// InputSize returns the square input dimension declared by the model file
// (224 for the production artifact).
func (n *Network) InputSize() int { return n.inputSize }

// Classes returns the dimensionality of the output probability vector.
func (n *Network) Classes() int { return n.layers[len(n.layers)-1].Outputs }

// Predict runs the forward pass. The input length must match the declared
// input shape. The returned slice is freshly allocated on every call.
func (n *Network) Predict(pixels []float64) ([]float64, error) {
	if want := n.inputSize * n.inputSize * n.channels; len(pixels) != want {
		return nil, fmt.Errorf("predict: got %d inputs, model expects %d", len(pixels), want)
	}
	x := pixels
	for i, l := range n.layers {
		out := make([]float64, l.Outputs)
		for o := 0; o < l.Outputs; o++ {
			sum := l.Biases[o]
			row := l.Weights[o*l.Inputs : (o+1)*l.Inputs]
			for j, w := range row {
				sum += w * x[j]
			}
			out[o] = sum
		}
		if i < len(n.layers)-1 {
			relu(out)
		}
		x = out
	}
	return softmax(x), nil
}

func relu(v []float64) {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		}
	}
}

// softmax converts raw scores into a probability distribution. The max score
// is subtracted first to keep the exponentials from overflowing.
func softmax(v []float64) []float64 {
	max := v[0]
	for _, x := range v[1:] {
		if x > max {
			max = x
		}
	}
	out := make([]float64, len(v))
	var sum float64
	for i, x := range v {
		out[i] = math.Exp(x - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
