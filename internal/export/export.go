package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ArielSanroj/cfobot/internal/charts"
	"github.com/ArielSanroj/cfobot/internal/checks"
)

// Artifact prefixes of the exported tables and the board report.
const (
	PrefixConsolidated = "consolidated_balance"
	PrefixBudget       = "presupuesto_ejecutado"
	PrefixKPIs         = "kpis_financieros"
	PrefixBoardReport  = "informe_junta"
)

const svgProlog = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"

// Filename builds the artifact file name for a report month, for example
// "presupuesto_ejecutado_febrero_2025.xlsx". The month is sanitized before it
// becomes part of the name.
func Filename(prefix, month, ext string) string {
	safe := strings.ToLower(checks.SanitizeFilenameComponent(month))
	return fmt.Sprintf("%s_%s_2025%s", prefix, safe, ext)
}

// WriteSVG writes a rendered figure as a standalone SVG document.
func WriteSVG(w io.Writer, fig *charts.Figure) error {
	if _, err := io.WriteString(w, svgProlog); err != nil {
		return err
	}
	_, err := io.WriteString(w, string(fig.SVG))
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
