// Package report persists run summaries as JSON files. The CLI writes one
// when --summary-file is given; Load reads one back for inspection.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kostasandrews/ExtractorFileTool/internal/logger"
	"github.com/kostasandrews/ExtractorFileTool/internal/pathutil"
	"github.com/kostasandrews/ExtractorFileTool/pkg/extraction"
)

// Common errors
var (
	// ErrEmptyPath is returned when the summary path is empty.
	ErrEmptyPath = errors.New("summary path is required")

	// ErrNilResult is returned when the run result is nil.
	ErrNilResult = errors.New("run result is nil")
)

// Save writes the run result to path as pretty-printed JSON. The write goes
// through a temp file and rename, never a partial file. The parent directory
// is created if it doesn't exist.
func Save(path string, result *extraction.RunResult) error {
	if path == "" {
		return ErrEmptyPath
	}
	if result == nil {
		return ErrNilResult
	}
	if err := pathutil.ValidateFilePath(path); err != nil {
		return fmt.Errorf("invalid summary path: %w", err)
	}

	if err := pathutil.EnsureParentDir(path); err != nil {
		logger.Warn("failed to create summary directory",
			"path", path,
			"error", err.Error(),
		)
		return fmt.Errorf("creating summary directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Warn("failed to marshal run summary",
			"run_id", result.RunID,
			"error", err.Error(),
		)
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	data = append(data, '\n')

	// Write to temp file first (atomic write)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		logger.Warn("failed to write temp summary file",
			"run_id", result.RunID,
			"path", tempPath,
			"error", err.Error(),
		)
		return fmt.Errorf("writing temp summary file: %w", err)
	}

	// Rename temp file to final path (atomic on POSIX)
	if err := os.Rename(tempPath, path); err != nil {
		// Clean up temp file on error
		_ = os.Remove(tempPath)
		logger.Warn("failed to rename summary file",
			"run_id", result.RunID,
			"temp_path", tempPath,
			"final_path", path,
			"error", err.Error(),
		)
		return fmt.Errorf("renaming summary file: %w", err)
	}

	logger.Debug("run summary saved",
		"run_id", result.RunID,
		"path", path,
		"status", result.Status,
	)

	return nil
}

// Load reads a run result previously written by Save.
func Load(path string) (*extraction.RunResult, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading summary file: %w", err)
	}

	var result extraction.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warn("failed to unmarshal run summary",
			"path", path,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("unmarshaling summary file: %w", err)
	}

	logger.Debug("run summary loaded",
		"run_id", result.RunID,
		"path", path,
	)

	return &result, nil
}
