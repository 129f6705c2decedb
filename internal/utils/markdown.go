package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteMarkdown writes a report file under dir, creating the directory if
// needed.
func WriteMarkdown(dir, fileName, content string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}
