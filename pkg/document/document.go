// Package document extracts plain text from uploaded documents so it can be
// used as prompt context.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// DefaultMaxPages is how many leading PDF pages are read.
	DefaultMaxPages = 3

	// maxFileBytes guards against loading huge files into memory.
	maxFileBytes = 16 << 20
)

var (
	// ErrUnsupported is returned for file types that cannot be extracted.
	ErrUnsupported = errors.New("unsupported document type")

	// ErrTooLarge is returned for files over the size limit.
	ErrTooLarge = errors.New("document too large")

	// ErrNoPages is returned for PDFs without a readable page.
	ErrNoPages = errors.New("no readable pages")
)

// Document is the extracted text of a file.
type Document struct {
	Name  string
	Text  string
	Pages int
}

// Extractor turns files into Documents.
type Extractor struct {
	maxPages int
}

// NewExtractor creates an Extractor reading at most maxPages PDF pages.
// A non-positive maxPages uses DefaultMaxPages.
func NewExtractor(maxPages int) *Extractor {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Extractor{maxPages: maxPages}
}

// Supported reports whether name has an extension Extract understands.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt", ".md", ".markdown":
		return true
	default:
		return false
	}
}

// Extract reads the document at path.
func (e *Extractor) Extract(ctx context.Context, path string) (Document, error) {
	if !Supported(path) {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
	if err != nil {
		return Document{}, fmt.Errorf("reading document: %w", err)
	}

	return e.ExtractBytes(ctx, filepath.Base(path), data)
}

// ExtractBytes extracts an in-memory document. name selects the format.
func (e *Extractor) ExtractBytes(ctx context.Context, name string, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	if len(data) > maxFileBytes {
		return Document{}, ErrTooLarge
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		text, pages, err := e.pdfText(ctx, data)
		if err != nil {
			return Document{}, err
		}
		return Document{Name: name, Text: text, Pages: pages}, nil

	case ".txt", ".md", ".markdown":
		return Document{Name: name, Text: string(data), Pages: 1}, nil

	default:
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(name))
	}
}

// pdfText concatenates the plain text of the leading pages.
func (e *Extractor) pdfText(ctx context.Context, data []byte) (text string, pages int, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("parsing pdf: %w", err)
	}

	var sb strings.Builder
	total := r.NumPage()
	for i := 1; i <= total && pages < e.maxPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("reading pdf page %d: %w", i, err)
		}

		if pages > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(pageText)
		pages++
	}

	if pages == 0 {
		return "", 0, fmt.Errorf("parsing pdf: %w", ErrNoPages)
	}
	return sb.String(), pages, nil
}
