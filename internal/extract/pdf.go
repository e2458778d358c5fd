package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor joins the plain text of every page with a single space.
// Pages whose text cannot be decoded contribute an empty string.
type PDFExtractor struct{}

// Extract implements Extractor
func (e *PDFExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat pdf: %w", err)
	}

	// The parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pages = append(pages, pageText(reader.Page(i)))
	}

	return strings.Join(pages, " "), nil
}

func pageText(page pdf.Page) (text string) {
	if page.V.IsNull() {
		return ""
	}

	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}
