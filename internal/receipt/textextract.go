package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// TextExtractor pulls raw text out of uploaded receipt documents before
// normalization. PDFs go through mupdf; plain-text files are passed
// through as-is.
type TextExtractor struct {
	logger *zap.Logger
}

// NewTextExtractor creates a text extractor.
func NewTextExtractor(logger *zap.Logger) *TextExtractor {
	return &TextExtractor{logger: logger}
}

// ExtractText returns the concatenated text of every page of the document.
// Pages that fail to extract are skipped; the remaining pages still feed
// the normalizer.
func (e *TextExtractor) ExtractText(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("document not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		return string(data), nil
	}
	if ext != ".pdf" {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	pageCount := doc.NumPage()
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			e.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	e.logger.Debug("Extracted document text",
		zap.String("path", path),
		zap.Int("pages", pageCount),
		zap.Int("chars", sb.Len()))

	return sb.String(), nil
}
