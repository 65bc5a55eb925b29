package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrEmptyFile = errors.New("empty file")
	ErrNotPDF    = errors.New("missing %PDF header")
	ErrNoText    = errors.New("pdf contains no extractable text")
)

// Extractor turns raw document bytes into best-effort plain text.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) ExtractText(ctx context.Context, data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if !isPDF(data) {
		return "", ErrNotPDF
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}

	text = collapseWhitespace(string(b))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func isPDF(b []byte) bool {
	// Some producers put a BOM or blank lines before the header.
	head := b[:min(len(b), 1024)]
	return bytes.Contains(head, []byte("%PDF-"))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
