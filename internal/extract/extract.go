// Package extract turns uploaded files into plain document text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MaxBytes is the default upload limit (5 MB).
const MaxBytes = 5 << 20

var (
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("file too large")

	// ErrUnsupported is returned for content that is neither a readable PDF
	// nor valid UTF-8 text.
	ErrUnsupported = errors.New("unsupported file format")
)

// ReadLimited reads r fully, failing with ErrTooLarge if it holds more than
// max bytes. Exactly max bytes is accepted.
func ReadLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Text extracts the text of a file. PDFs are parsed page by page; any other
// content type must be valid UTF-8.
func Text(data []byte, contentType string) (string, error) {
	if IsPDF(contentType) {
		return PDFText(data)
	}
	if !utf8.Valid(data) {
		return "", ErrUnsupported
	}
	return string(data), nil
}

// IsPDF reports whether a Content-Type header names a PDF.
func IsPDF(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
	}
	return strings.EqualFold(mt, "application/pdf")
}

// PDFText concatenates the plain text of every page. Pages without
// extractable text are skipped.
func PDFText(data []byte) (text string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: reading pdf: %v", ErrUnsupported, r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: reading pdf: %v", ErrUnsupported, err)
	}

	var b strings.Builder
	for i := 1; i <= rdr.NumPage(); i++ {
		pg := rdr.Page(i)
		if pg.V.IsNull() {
			continue
		}
		txt, err := pg.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(txt)
	}
	return b.String(), nil
}

// Truncate keeps the first n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
