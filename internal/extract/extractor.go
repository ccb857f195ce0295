// Package extract provides text extraction from uploaded PDF documents.
package extract

import (
	"fmt"
	"os"
)

// ParseError reports content that could not be processed as a PDF document.
// It wraps the underlying parser error; the message is surfaced to API callers.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Error processing PDF file: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extractor extracts plain text from PDF content.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content)
}

// ExtractBytes extracts the text of all pages from PDF-encoded content.
// Every page that yields text contributes its text followed by a newline;
// pages with no extractable text contribute nothing. Malformed input is
// reported as a *ParseError.
func (e *Extractor) ExtractBytes(content []byte) (string, error) {
	return extractPDF(content)
}
