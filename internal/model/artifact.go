package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactName is the file a model directory must contain.
const ArtifactName = "model.json"

// Save writes the fitted model into dir as a JSON artifact.
func (m *LogisticRegression) Save(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create model directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize model: %w", err)
	}

	path := filepath.Join(dir, ArtifactName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model artifact %s: %w", path, err)
	}
	return nil
}

// Load reads a model artifact back from dir.
func Load(dir string) (*LogisticRegression, error) {
	path := filepath.Join(dir, ArtifactName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}

	var m LogisticRegression
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}

	if len(m.Weights) == 0 || len(m.Weights) != len(m.Columns) {
		return nil, fmt.Errorf("model artifact %s is malformed: %d weights for %d columns", path, len(m.Weights), len(m.Columns))
	}

	return &m, nil
}
