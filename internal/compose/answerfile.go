// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// AnswerFile is the on-disk form of one answered question, written by
// ask --save.
type AnswerFile struct {
	Question  string                `yaml:"question"`
	RunID     string                `yaml:"run_id"`
	Budget    types.RetrievalBudget `yaml:"budget"`
	Answer    types.ComposedAnswer  `yaml:"answer"`
	Elapsed   time.Duration         `yaml:"elapsed"`
	Timestamp time.Time             `yaml:"timestamp"`
}

// WriteAnswerFile saves af as YAML at path.
func WriteAnswerFile(path string, af AnswerFile) error {
	if af.Timestamp.IsZero() {
		af.Timestamp = time.Now().UTC()
	}
	data, err := yaml.Marshal(&af)
	if err != nil {
		return fmt.Errorf("marshaling answer file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadAnswerFile loads an answer file written by WriteAnswerFile.
func ReadAnswerFile(path string) (*AnswerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answer file: %w", err)
	}
	var af AnswerFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("parsing answer file: %w", err)
	}
	return &af, nil
}
