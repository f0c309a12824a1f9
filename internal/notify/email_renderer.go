package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

// HTMLEmailRenderer renders the digest as an HTML email with a plain text
// fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

// NewHTMLEmailRenderer creates a renderer with the default digest template.
func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	t := template.Must(template.New("digest").Parse(digestHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

type digestItem struct {
	Number     int
	Keyword    string
	FilterName string
	SourceURL  string
	Snippet    string
}

type digestView struct {
	RunDate string
	Total   int
	Items   []digestItem
}

// Render produces the digest message. A zero-match digest is still a valid
// message: it is the "we are alive" confirmation email.
func (r *HTMLEmailRenderer) Render(data DigestData) (*RenderedMessage, error) {
	subject := fmt.Sprintf("%s %s — %d achado(s)", data.SubjectPrefix, data.RunDate, len(data.Matches))

	view := digestView{
		RunDate: data.RunDate,
		Total:   len(data.Matches),
	}
	for i, m := range data.Matches {
		view.Items = append(view.Items, digestItem{
			Number:     i + 1,
			Keyword:    m.Keyword,
			FilterName: m.FilterName,
			SourceURL:  m.SourceURL,
			Snippet:    m.Snippet,
		})
	}

	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, view); err != nil {
		return nil, fmt.Errorf("render digest template: %w", err)
	}

	return &RenderedMessage{
		Subject: subject,
		Text:    renderPlainText(data),
		HTML:    htmlBuf.String(),
	}, nil
}

// BuildDigest assembles DigestData from a run's accumulated matches.
func BuildDigest(runDate, subjectPrefix string, matches []types.Match) DigestData {
	return DigestData{
		RunDate:       runDate,
		SubjectPrefix: subjectPrefix,
		Matches:       matches,
	}
}
