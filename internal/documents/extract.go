package documents

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// Extracted is the plain text of a document.
type Extracted struct {
	Text  string
	Pages int
}

// Extractor turns an uploaded file into plain text.
type Extractor interface {
	Extract(data []byte) (Extracted, error)
}

// PDFExtractor extracts text page by page, separating pages with a blank line.
type PDFExtractor struct{}

func (PDFExtractor) Extract(data []byte) (ext Extracted, err error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return Extracted{}, ErrInvalidPDF
	}
	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			ext, err = Extracted{}, fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Extracted{}, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	pages := reader.NumPage()
	text, err := joinPages(pages, func(i int) (string, error) {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", nil
		}
		return page.GetPlainText(nil)
	})
	if err != nil {
		return Extracted{}, err
	}
	return Extracted{Text: text, Pages: pages}, nil
}

// joinPages collects the non-empty text of pages 1..n. A page that cannot be
// decoded makes the whole document invalid.
func joinPages(n int, pageText func(i int) (string, error)) (string, error) {
	texts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		text, err := pageText(i)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrInvalidPDF, i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}
