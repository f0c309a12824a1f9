package notify

import (
	"strings"
	"testing"

	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

func TestRenderDigest(t *testing.T) {
	data := BuildDigest("2025-06-10", "[Clipping DOU]", []types.Match{
		{
			RunDate:    "2025-06-10",
			SourceURL:  "https://inlabs.in.gov.br/index.php?p=2025-06-10&dl=2025-06-10-DO1.zip",
			FilterName: "antt-sufer",
			Keyword:    "ferrovia",
			Snippet:    "a ANTT autoriza a ferrovia tal",
		},
	})

	msg, err := NewHTMLEmailRenderer().Render(data)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if msg.Subject != "[Clipping DOU] 2025-06-10 — 1 achado(s)" {
		t.Errorf("subject = %q", msg.Subject)
	}

	for _, want := range []string{"Achado #1", "ferrovia", "antt-sufer", "2025-06-10-DO1.zip", "a ANTT autoriza a ferrovia tal"} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("HTML body missing %q", want)
		}
	}

	if !strings.Contains(msg.Text, "ferrovia") || !strings.Contains(msg.Text, "Total de achados: 1") {
		t.Errorf("plain text fallback incomplete:\n%s", msg.Text)
	}
}

func TestRenderConfirmationDigest(t *testing.T) {
	msg, err := NewHTMLEmailRenderer().Render(BuildDigest("2025-06-10", "[Clipping DOU]", nil))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if msg.Subject != "[Clipping DOU] 2025-06-10 — 0 achado(s)" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "confirmação de funcionamento") {
		t.Errorf("zero-match digest must say it is a status email:\n%s", msg.HTML)
	}
}
