package months

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical month names as they appear in the source workbooks.
const (
	Enero      = "ENERO"
	Febrero    = "FEBRERO"
	Marzo      = "MARZO"
	Abril      = "ABRIL"
	Mayo       = "MAYO"
	Junio      = "JUNIO"
	Julio      = "JULIO"
	Agosto     = "AGOSTO"
	Septiembre = "SEPTIEMBRE"
	Octubre    = "OCTUBRE"
	Noviembre  = "NOVIEMBRE"
	Diciembre  = "DICIEMBRE"
)

var defaultOrder = []string{
	Enero, Febrero, Marzo, Abril, Mayo, Junio,
	Julio, Agosto, Septiembre, Octubre, Noviembre, Diciembre,
}

// defaultAliases maps every accepted spelling to its canonical month.
// Keys are compared after Normalize, so accented input folds onto these.
var defaultAliases = map[string]string{
	Enero: Enero, "ENE": Enero,
	Febrero: Febrero, "FEB": Febrero,
	Marzo: Marzo, "MAR": Marzo,
	Abril: Abril, "ABR": Abril,
	Mayo: Mayo, "MAY": Mayo,
	Junio: Junio, "JUN": Junio,
	Julio: Julio, "JUL": Julio,
	Agosto: Agosto, "AGO": Agosto,
	Septiembre: Septiembre, "SEP": Septiembre,
	Octubre: Octubre, "OCT": Octubre,
	Noviembre: Noviembre, "NOV": Noviembre,
	Diciembre: Diciembre, "DIC": Diciembre,
}

// englishToSpanish translates the system clock's English month name into the
// canonical Spanish form used across the workbooks.
var englishToSpanish = map[string]string{
	"JANUARY":   Enero,
	"FEBRUARY":  Febrero,
	"MARCH":     Marzo,
	"APRIL":     Abril,
	"MAY":       Mayo,
	"JUNE":      Junio,
	"JULY":      Julio,
	"AUGUST":    Agosto,
	"SEPTEMBER": Septiembre,
	"OCTOBER":   Octubre,
	"NOVEMBER":  Noviembre,
	"DECEMBER":  Diciembre,
}

// DefaultOrder returns the canonical January-to-December ordering.
func DefaultOrder() []string {
	out := make([]string, len(defaultOrder))
	copy(out, defaultOrder)
	return out
}

// DefaultAliases returns a copy of the accepted-spelling table.
func DefaultAliases() map[string]string {
	out := make(map[string]string, len(defaultAliases))
	for alias, month := range defaultAliases {
		out[alias] = month
	}
	return out
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize upper-cases value and strips combining accent marks, so that
// "Febrero" and "FEBRERO" compare equal.
func Normalize(value string) string {
	upper := strings.ToUpper(value)
	stripped, _, err := transform.String(accentStripper, upper)
	if err != nil {
		return upper
	}
	return stripped
}

// tokens normalizes text and splits it into candidate month words. The
// literal "DE" is blanked before splitting so headers like "FEBRERO DE 2025"
// yield the month as a standalone token. Only all-letter tokens survive.
func tokens(text string) []string {
	cleaned := strings.ReplaceAll(Normalize(text), "DE", " ")
	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, field := range fields {
		if isAlpha(field) {
			out = append(out, field)
		}
	}
	return out
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
