package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// UnknownLabel is returned when the predicted class index has no entry in the
// label map. Classification still succeeds; only the name is missing.
const UnknownLabel = "Unknown"

// LabelMap translates a model output index into a human-readable disease
// label. Keys are stringified class indices, matching the on-disk JSON
// artifact produced alongside the trained model. The map is loaded once at
// startup and is read-only afterwards.
type LabelMap map[string]string

// LoadLabels reads the class-index → label map from a JSON file.
func LoadLabels(path string) (LabelMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels %s: %w", path, err)
	}
	var m LabelMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse labels %s: %w", path, err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("labels %s: empty map", path)
	}
	return m, nil
}

// LabelFor resolves a class index to its label, falling back to UnknownLabel
// for indices the map does not cover.
func (m LabelMap) LabelFor(index int) string {
	if label, ok := m[strconv.Itoa(index)]; ok {
		return label
	}
	return UnknownLabel
}
