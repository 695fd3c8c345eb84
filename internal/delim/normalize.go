package delim

import (
	"fmt"
	"os"
	"strings"

	"github.com/kostasandrews/ExtractorFileTool/internal/logger"
)

// quoteNormalizer maps apostrophes and typographic double quotes to the
// standard double quote.
var quoteNormalizer = strings.NewReplacer(
	"'", Quote,
	"“", Quote,
	"”", Quote,
	"„", Quote,
)

// NormalizeString returns s with apostrophes and typographic double quotes
// replaced by '"'.
func NormalizeString(s string) string {
	return quoteNormalizer.Replace(s)
}

// NormalizeQuotes rewrites path in place so all quote variants become '"'.
// The rewrite goes through a temp file and rename, never a partial write.
// Files that need no change are left untouched.
func NormalizeQuotes(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading file for quote normalization: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file for quote normalization: %w", err)
	}

	normalized := NormalizeString(string(data))
	if normalized == string(data) {
		logger.Debug("quote normalization: no changes", "path", path)
		return nil
	}

	// Write to temp file first (atomic write)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(normalized), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing normalized file: %w", err)
	}

	// Rename temp file to final path (atomic on POSIX)
	if err := os.Rename(tempPath, path); err != nil {
		// Clean up temp file on error
		_ = os.Remove(tempPath)
		return fmt.Errorf("replacing file with normalized copy: %w", err)
	}

	logger.Debug("quotes normalized", "path", path)
	return nil
}
