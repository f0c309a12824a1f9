package types

import (
	"path"
	"strings"
	"time"
)

// ArtifactKind tells the extractor how to read an artifact's bytes.
type ArtifactKind int

const (
	KindUnknown ArtifactKind = iota
	KindZip
	KindPDF
	KindXML
)

func (k ArtifactKind) String() string {
	switch k {
	case KindZip:
		return "zip"
	case KindPDF:
		return "pdf"
	case KindXML:
		return "xml"
	default:
		return "unknown"
	}
}

// KindFromName infers the container kind from a filename suffix.
func KindFromName(name string) ArtifactKind {
	switch strings.ToLower(path.Ext(name)) {
	case ".zip":
		return KindZip
	case ".pdf":
		return KindPDF
	case ".xml", ".html", ".htm":
		return KindXML
	default:
		return KindUnknown
	}
}

// Artifact is one downloadable gazette file for a date and section.
// URL is the stable identifier used for deduplication.
type Artifact struct {
	Name string
	URL  string
	Kind ArtifactKind
}

// FilterConfig is a named (section, organization substring, keyword set) rule.
// Keywords are OR-combined behind the required organization gate.
type FilterConfig struct {
	Name          string   `yaml:"name"`
	Section       string   `yaml:"section"`
	OrgaoContains string   `yaml:"orgao_contains"`
	KeywordsAny   []string `yaml:"keywords_any"`
}

// Match is one keyword hit that passed the organization gate.
type Match struct {
	RunDate    string
	SourceURL  string
	FilterName string
	Keyword    string
	Snippet    string
}

// RunStats summarizes one orchestrator invocation for the audit log.
type RunStats struct {
	Date         time.Time
	FilesSeen    int
	FilesNew     int
	MatchesFound int
	EmailSent    bool
	Notes        string
}
