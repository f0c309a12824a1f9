/*
Package extract converts raw artifact bytes (ZIP-of-XML, PDF or bare markup)
into a normalized UTF-8 text blob for matching.
*/
package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

var (
	// ErrCorruptArchive means the bytes are not a readable ZIP archive.
	ErrCorruptArchive = errors.New("extract: corrupt archive")

	// ErrCorruptDocument means the bytes are not a readable PDF.
	ErrCorruptDocument = errors.New("extract: corrupt document")

	// ErrUnsupportedFormat means no extractor exists for the artifact kind.
	ErrUnsupportedFormat = errors.New("extract: unsupported format")
)

// Text dispatches on the artifact kind.
func Text(kind types.ArtifactKind, data []byte) (string, error) {
	switch kind {
	case types.KindZip:
		return FromZip(data)
	case types.KindPDF:
		return FromPDF(data)
	case types.KindXML:
		return FromRaw(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind)
	}
}

// FromZip reads every markup entry of the archive, strips tags and joins the
// non-empty results with a blank line. Entries that are not XML/HTML are
// ignored; the DOU bundles ship one XML per published act.
func FromZip(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	var parts []string
	for _, entry := range zr.File {
		name := strings.ToLower(entry.Name)
		if !strings.HasSuffix(name, ".xml") && !strings.HasSuffix(name, ".html") && !strings.HasSuffix(name, ".htm") {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return "", fmt.Errorf("%w: entry %s: %v", ErrCorruptArchive, entry.Name, err)
		}

		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: entry %s: %v", ErrCorruptArchive, entry.Name, err)
		}

		if text := FromRaw(buf.Bytes()); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// FromPDF extracts the plain text of each page, joining non-empty pages with
// a blank line. Pages with no extractable text are skipped.
func FromPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs; treat that the same
	// as a parse error.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrCorruptDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	var parts []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(pageText); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// FromRaw treats the bytes as UTF-8 markup: invalid sequences are replaced,
// tags are stripped and whitespace runs collapse to single spaces.
func FromRaw(data []byte) string {
	return stripMarkup(strings.ToValidUTF8(string(data), "�"))
}

// stripMarkup drops every tag and keeps only text content.
func stripMarkup(markup string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))

	var sb strings.Builder
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.WriteString(tokenizer.Token().Data)
			sb.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(sb.String()), " ")
}
