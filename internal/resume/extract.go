package resume

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aravind45/whynointerviews/internal/errors"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Content is the result of text extraction from an uploaded file.
type Content struct {
	Text      string
	PageCount int
}

// Extractor turns an uploaded file into plain text. Implementations fail
// with a content error when text is unextractable or the page count exceeds
// the configured maximum.
type Extractor interface {
	Extract(data []byte, fileType string) (*Content, error)
}

// FileExtractor extracts text from PDF, DOCX, and plain-text uploads.
type FileExtractor struct {
	MaxPageCount int
	MinTextChars int
}

var _ Extractor = (*FileExtractor)(nil)

// NewFileExtractor creates an extractor with the given page and text floors.
func NewFileExtractor(maxPageCount, minTextChars int) *FileExtractor {
	return &FileExtractor{
		MaxPageCount: maxPageCount,
		MinTextChars: minTextChars,
	}
}

// Extract implements Extractor.
func (e *FileExtractor) Extract(data []byte, fileType string) (*Content, error) {
	var content *Content
	var err error

	switch strings.ToLower(fileType) {
	case "pdf":
		content, err = e.extractPDF(data)
	case "docx":
		content, err = e.extractDocx(data)
	case "txt":
		content = &Content{Text: string(data), PageCount: 1}
	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported file type: %s", fileType), nil)
	}
	if err != nil {
		return nil, err
	}

	if e.MaxPageCount > 0 && content.PageCount > e.MaxPageCount {
		return nil, errors.NewContentError(errors.ErrCodeTooManyPages,
			fmt.Sprintf("document has %d pages, maximum is %d", content.PageCount, e.MaxPageCount), nil)
	}
	if len(strings.TrimSpace(content.Text)) < e.MinTextChars {
		return nil, errors.NewContentError(errors.ErrCodeInsufficientText,
			fmt.Sprintf("extracted only %d characters of text; the file may be image-only or corrupted, try a different file",
				len(strings.TrimSpace(content.Text))), nil)
	}

	return content, nil
}

func (e *FileExtractor) extractPDF(data []byte) (*Content, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewContentError(errors.ErrCodeExtractionFailed,
			"failed to read pdf", err)
	}

	var textBuilder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages, the text floor catches empty results
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return &Content{Text: textBuilder.String(), PageCount: numPages}, nil
}

func (e *FileExtractor) extractDocx(data []byte) (*Content, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewContentError(errors.ErrCodeExtractionFailed,
			"failed to read docx", err)
	}
	defer r.Close()

	doc := r.Editable()
	text := doc.GetContent()

	// DOCX has no fixed pagination; approximate a page per 3000 characters
	// so the page-count ceiling still bounds oversized documents.
	pageCount := len(text)/3000 + 1

	return &Content{Text: stripXMLTags(text), PageCount: pageCount}, nil
}

// stripXMLTags removes residual markup from docx content extraction.
func stripXMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
