package utils

import (
	"embed"
	"fmt"
)

//go:embed prompts
var promptFiles embed.FS

// LoadPrompt loads a prompt template from the embedded markdown files.
func LoadPrompt(path string) (string, error) {
	content, err := promptFiles.ReadFile(fmt.Sprintf("prompts/%s.md", path))
	if err != nil {
		return "", fmt.Errorf("failed to load prompt %s: %w", path, err)
	}
	return string(content), nil
}
