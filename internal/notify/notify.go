/*
Package notify handles reporting of clipping results via console output and
the digest email.
*/
package notify

import (
	"fmt"
	"strings"

	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

// DigestData is everything the renderer needs for one run's email.
type DigestData struct {
	RunDate       string
	SubjectPrefix string
	Matches       []types.Match
}

// RenderedMessage is a ready-to-send email.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// ReportRun prints a human summary of the run to the console.
func ReportRun(stats types.RunStats, dbPath string) {
	fmt.Println("\n-------------------------------------------")
	fmt.Printf("Clipping %s: %d arquivo(s) visto(s), %d novo(s), %d achado(s)\n",
		stats.Date.Format("2006-01-02"), stats.FilesSeen, stats.FilesNew, stats.MatchesFound)
	if stats.EmailSent {
		fmt.Println("Digest email sent.")
	}
	fmt.Printf("History stored in %s.\n", dbPath)
	fmt.Println("-------------------------------------------")
}

// renderPlainText produces the plain text alternative for clients that don't
// render HTML.
func renderPlainText(data DigestData) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("DOU clipping — %s\n", data.RunDate))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	sb.WriteString(fmt.Sprintf("Total de achados: %d\n\n", len(data.Matches)))

	if len(data.Matches) == 0 {
		sb.WriteString("Nenhum achado hoje. Este é um e-mail de confirmação de funcionamento.\n")
		return sb.String()
	}

	for i, m := range data.Matches {
		sb.WriteString(fmt.Sprintf("Achado #%d — keyword: %s\n", i+1, m.Keyword))
		if m.FilterName != "" {
			sb.WriteString(fmt.Sprintf("Filtro: %s\n", m.FilterName))
		}
		sb.WriteString(fmt.Sprintf("Fonte: %s\n", m.SourceURL))
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		sb.WriteString(m.Snippet + "\n\n")
	}

	return sb.String()
}
