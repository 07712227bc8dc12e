// Package output writes the pull request artifact and renders reports for
// the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spiffcs/prsync/internal/model"
)

// WriteFile overwrites path with records as a 2-space indented JSON array,
// creating the parent directory first.
func WriteFile(path string, records []model.PullRequest) error {
	if records == nil {
		records = []model.PullRequest{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// ReadFile loads a previously written artifact.
func ReadFile(path string) ([]model.PullRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []model.PullRequest
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// JSONFormatter formats values as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format encodes v to w
func (f *JSONFormatter) Format(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}
