package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/concord/pkg/domain"
)

// Sink implements ports.ResultSink using the local filesystem.
// It stores one JSON file per template in a configured directory.
type Sink struct {
	BasePath string
}

// NewSink creates a new Sink with the given base path.
// If basePath is empty, it defaults to ".concord/results".
func NewSink(basePath string) *Sink {
	if basePath == "" {
		basePath = filepath.Join(".concord", "results")
	}
	return &Sink{BasePath: basePath}
}

// Publish writes the result to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Sink) Publish(_ context.Context, result domain.TemplateResult) error {
	if result.TemplateID == "" {
		return fmt.Errorf("templateID cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure result directory: %w", err)
	}

	destPath := filepath.Join(s.BasePath, result.TemplateID+".json")

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	// 1. Create Temp File in the same directory (required for atomic rename)
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+result.TemplateID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // No-op once renamed
	}()

	// 2. Write Data
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	// 3. Fsync to ensure durability
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Rename (Windows refuses to overwrite, so remove first)
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing result file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to result: %w", err)
	}
	return nil
}

// Get reads the last published result.
func (s *Sink) Get(_ context.Context, templateID string) (domain.TemplateResult, error) {
	if templateID == "" {
		return domain.TemplateResult{}, fmt.Errorf("templateID cannot be empty")
	}

	data, err := os.ReadFile(filepath.Join(s.BasePath, templateID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.TemplateResult{}, domain.ErrResultNotFound
		}
		return domain.TemplateResult{}, fmt.Errorf("failed to read result file: %w", err)
	}

	var res domain.TemplateResult
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.TemplateResult{}, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return res, nil
}
