package extract

import (
	"fmt"
	"os"

	"github.com/lu4p/cat"
)

func usesCat(ext string) bool {
	return ext == ".odt" || ext == ".rtf"
}

// extractWithCat reads OpenDocument text and RTF files.
func extractWithCat(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return text, nil
}

// extractCatBytes spills content to a temporary file because cat detects formats from files.
func extractCatBytes(content []byte, ext string) (string, error) {
	f, err := os.CreateTemp("", "jidai-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(content); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return extractWithCat(f.Name())
}
