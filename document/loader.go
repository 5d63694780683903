package document

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Supported reports whether Load knows how to extract text from the file.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf", ".docx":
		return true
	default:
		return false
	}
}

// Load reads a single file and extracts its text. Unknown extensions fail
// with ErrUnsupportedFormat and files with no extractable text with
// ErrEmptyDocument; both are per-file conditions the caller is expected to
// skip, not fatal errors.
func Load(path string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if !Supported(path) {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	var text string

	switch ext {
	case ".txt", ".md":
		text = string(content)
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	}
	if err != nil {
		return Document{}, err
	}

	if len(strings.TrimSpace(text)) == 0 {
		return Document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	doc := Document{
		Content: text,
		Metadata: map[string]any{
			MetaSourceID:   hashPath(path),
			MetaSourceName: filepath.Base(path),
			MetaSourceType: ext,
		},
	}

	return doc, nil
}

func hashPath(path string) string {
	h := sha1.Sum([]byte(path))
	return hex.EncodeToString(h[:8])
}
