// Package extract turns uploaded documents into plain text for scanning.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrUnsupportedFormat is returned for file extensions without an extractor
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrUnreadable is returned when a document of a supported format cannot be parsed
	ErrUnreadable = errors.New("document could not be read")
)

// Extractor reads the text content of a document on disk
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Registry dispatches extraction by file extension
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry returns a registry with the PDF and plain text extractors installed
func NewRegistry() *Registry {
	r := &Registry{extractors: make(map[string]Extractor)}

	pdf := &PDFExtractor{}
	r.Register(".pdf", pdf)

	text := &PlainTextExtractor{}
	for _, ext := range []string{".txt", ".text", ".md"} {
		r.Register(ext, text)
	}

	return r
}

// Register installs an extractor for an extension such as ".pdf"
func (r *Registry) Register(ext string, e Extractor) {
	r.extractors[strings.ToLower(ext)] = e
}

// Supports reports whether a file name has a registered extension
func (r *Registry) Supports(name string) bool {
	_, ok := r.extractors[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extensions lists the registered extensions in sorted order
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract reads the document at path and returns its NFC-normalised text
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	text, err := e.Extract(ctx, path)
	if err != nil {
		return "", err
	}

	return norm.NFC.String(text), nil
}
