package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestFromZipStripsMarkup(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ato1.xml": "<artigo><p>Portaria   da  ANTT</p></artigo>",
	})

	text, err := FromZip(data)
	if err != nil {
		t.Fatalf("FromZip: %v", err)
	}
	if text != "Portaria da ANTT" {
		t.Errorf("text = %q, want tags stripped and whitespace collapsed", text)
	}
}

func TestFromZipIgnoresNonMarkupEntries(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ato.xml":    "<p>conteúdo</p>",
		"imagem.jpg": "\xff\xd8\xff",
		"notas.txt":  "ignorado",
	})

	text, err := FromZip(data)
	if err != nil {
		t.Fatalf("FromZip: %v", err)
	}
	if text != "conteúdo" {
		t.Errorf("text = %q, want only the XML entry", text)
	}
}

func TestFromZipJoinsEntriesWithBlankLine(t *testing.T) {
	data := buildZip(t, map[string]string{
		"a.xml": "<p>primeiro</p>",
		"b.xml": "<p>segundo</p>",
	})

	text, err := FromZip(data)
	if err != nil {
		t.Fatalf("FromZip: %v", err)
	}

	parts := strings.Split(text, "\n\n")
	if len(parts) != 2 {
		t.Fatalf("expected 2 blank-line separated parts, got %d (%q)", len(parts), text)
	}
}

func TestFromZipCorruptArchive(t *testing.T) {
	_, err := FromZip([]byte("this is not a zip"))
	if !errors.Is(err, ErrCorruptArchive) {
		t.Errorf("err = %v, want ErrCorruptArchive", err)
	}
}

func TestFromPDFCorruptDocument(t *testing.T) {
	_, err := FromPDF([]byte("not a pdf"))
	if !errors.Is(err, ErrCorruptDocument) {
		t.Errorf("err = %v, want ErrCorruptDocument", err)
	}
}

func TestFromRaw(t *testing.T) {
	text := FromRaw([]byte("<xml><item>Resolução\n\tnº  123</item></xml>"))
	if text != "Resolução nº 123" {
		t.Errorf("text = %q", text)
	}
}

func TestFromRawReplacesInvalidUTF8(t *testing.T) {
	text := FromRaw([]byte("ok \xff\xfe depois"))
	if !strings.Contains(text, "ok") || !strings.Contains(text, "depois") {
		t.Errorf("text = %q, invalid bytes must not drop surrounding content", text)
	}
}

func TestTextDispatch(t *testing.T) {
	zipData := buildZip(t, map[string]string{"a.xml": "<p>zip ok</p>"})

	tests := []struct {
		name    string
		kind    types.ArtifactKind
		data    []byte
		want    string
		wantErr error
	}{
		{name: "zip", kind: types.KindZip, data: zipData, want: "zip ok"},
		{name: "raw xml", kind: types.KindXML, data: []byte("<p>xml ok</p>"), want: "xml ok"},
		{name: "unknown", kind: types.KindUnknown, data: []byte("x"), wantErr: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Text(tt.kind, tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Text: %v", err)
			}
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}
