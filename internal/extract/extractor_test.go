package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRegistryPlainText(t *testing.T) {
	r := NewRegistry()
	path := writeFile(t, "notes.TXT", []byte("\ufeffThe man spoke. All is well."))

	text, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "The man spoke. All is well.", text)
}

func TestRegistryNormalisesToNFC(t *testing.T) {
	r := NewRegistry()
	// "e" followed by a combining acute accent
	path := writeFile(t, "accent.md", []byte("Cafe\u0301 opened today."))

	text, err := r.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9 opened today.", text)
}

func TestRegistryUnsupported(t *testing.T) {
	r := NewRegistry()
	path := writeFile(t, "sheet.xlsx", []byte("x"))

	_, err := r.Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, r.Supports("sheet.xlsx"))
	assert.True(t, r.Supports("Report.PDF"))
}

func TestRegistryExtensions(t *testing.T) {
	assert.Equal(t, []string{".md", ".pdf", ".text", ".txt"}, NewRegistry().Extensions())
}

func TestPlainTextRejectsInvalidUTF8(t *testing.T) {
	path := writeFile(t, "bad.txt", []byte{0xff, 0xfe, 0xfd})

	_, err := (&PlainTextExtractor{}).Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestPlainTextHonorsCancellation(t *testing.T) {
	path := writeFile(t, "ok.txt", []byte("Some text here."))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&PlainTextExtractor{}).Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFRejectsGarbage(t *testing.T) {
	path := writeFile(t, "fake.pdf", []byte("this is not a pdf document at all"))

	_, err := (&PDFExtractor{}).Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestPDFMissingFile(t *testing.T) {
	_, err := (&PDFExtractor{}).Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnreadable)
}
