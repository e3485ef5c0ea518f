package boardreport

import (
	"errors"
	"time"

	"github.com/ArielSanroj/cfobot/internal/charts"
)

// Variant selects the flavour of the generated document.
type Variant string

const (
	VariantStandard Variant = "STANDARD"
	VariantAI       Variant = "AI"
)

// Artifact name prefixes of the rendered PDFs.
const (
	PrefixStandard = "informe_junta"
	PrefixAI       = "informe_junta_ai"
)

// KPIRow is one line of the document's indicator table.
type KPIRow struct {
	Name  string
	Value string
}

// Section is one titled block of the document: plain paragraphs, a bulleted
// or numbered list, and at most one KPI table.
type Section struct {
	Title      string
	Paragraphs []string
	Bullets    []string
	Numbered   []string
	Table      []KPIRow
}

// Document is the view model handed to the HTML template.
type Document struct {
	Variant     Variant
	Month       string
	Title       string
	Sections    []Section
	Figures     []charts.Figure
	Footer      []string
	Warnings    []string
	GeneratedAt time.Time
}

// Prefix returns the artifact prefix of the document's variant.
func (d Document) Prefix() string {
	if d.Variant == VariantAI {
		return PrefixAI
	}
	return PrefixStandard
}

// RenderResult captures the renderer output.
type RenderResult struct {
	HTML   string
	PDF    []byte
	Length int64
}

var (
	ErrIncompleteReport = errors.New("boardreport: report payload incomplete")
	ErrInsightsRequired = errors.New("boardreport: insights required")
)
