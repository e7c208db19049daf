// Package jsonfile loads batch inputs from JSON or YAML documents.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/lineage/pkg/application/dto"
)

// Loader reads batch input documents from disk
type Loader struct{}

// NewLoader creates a new document loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadInput reads a single customer group from path. Files ending in .yaml or
// .yml are decoded as YAML, everything else as JSON.
func (l *Loader) LoadInput(path string) (dto.BatchInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dto.BatchInput{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var input dto.BatchInput
	if err := decode(path, data, &input); err != nil {
		return dto.BatchInput{}, err
	}
	if input.GroupID == "" {
		input.GroupID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return input, nil
}

// LoadBatch reads several customer groups from path. The document may be a
// list of groups or a single group.
func (l *Loader) LoadBatch(path string) ([]dto.BatchInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if isList(path, data) {
		var inputs []dto.BatchInput
		if err := decode(path, data, &inputs); err != nil {
			return nil, err
		}
		return inputs, nil
	}

	input, err := l.LoadInput(path)
	if err != nil {
		return nil, err
	}
	return []dto.BatchInput{input}, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isList(path string, data []byte) bool {
	if !isYAML(path) {
		return bytes.HasPrefix(bytes.TrimSpace(data), []byte("["))
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil || len(node.Content) == 0 {
		return false
	}
	return node.Content[0].Kind == yaml.SequenceNode
}

func decode(path string, data []byte, v any) error {
	if isYAML(path) {
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML %s: %w", path, err)
		}
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to parse JSON %s: %w", path, err)
	}
	return nil
}
