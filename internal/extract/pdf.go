// Package extract turns raw PDF byte streams into normalized plain text,
// one entry per page, for downstream chunking.
package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/sagelearn/sagefeed/internal/domain"
)

// Page holds the normalized text of a single PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// PDF parses raw PDF bytes and returns normalized plain text per page.
// Pages that carry no extractable text are returned with an empty Text so
// page numbering stays aligned with the original document.
func PDF(data []byte) (pages []Page, err error) {
	if len(data) == 0 {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnprocessable,
			"document could not be parsed as a PDF", fmt.Errorf("empty input"))
	}

	// The pdf package panics on some malformed inputs; treat that as a
	// parse failure rather than taking the ingestion worker down.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = domain.NewDomainErrorWithCause(domain.ErrCodeUnprocessable,
				"document could not be parsed as a PDF", fmt.Errorf("parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUnprocessable,
			"document could not be parsed as a PDF", err)
	}

	total := reader.NumPage()
	pages = make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not fail the whole document.
			pages = append(pages, Page{Number: i})
			continue
		}

		pages = append(pages, Page{Number: i, Text: NormalizeText(text)})
	}

	return pages, nil
}

// NormalizeText collapses whitespace runs to single spaces while preserving
// paragraph breaks, and strips control characters the PDF stream may carry.
func NormalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := false
	newlines := 0
	for _, r := range text {
		switch {
		case r == '\n':
			newlines++
		case unicode.IsSpace(r):
			lastSpace = true
		case unicode.IsControl(r):
			// drop
		default:
			if newlines >= 2 && b.Len() > 0 {
				b.WriteString("\n\n")
			} else if (lastSpace || newlines > 0) && b.Len() > 0 {
				b.WriteByte(' ')
			}
			lastSpace = false
			newlines = 0
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}
