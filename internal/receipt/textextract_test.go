package receipt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractTextPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.txt")
	content := "Joe's Diner\n06/02/2025\nTotal: $18.75\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	e := NewTextExtractor(zap.NewNop())
	text, err := e.ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, content, text)
}

func TestExtractTextMissingFile(t *testing.T) {
	e := NewTextExtractor(zap.NewNop())
	_, err := e.ExtractText(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorContains(t, err, "not found")
}

func TestExtractTextUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.docx")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0o644))

	e := NewTextExtractor(zap.NewNop())
	_, err := e.ExtractText(path)
	assert.ErrorContains(t, err, "unsupported file type")
}
