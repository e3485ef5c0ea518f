package months

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNotDetected is returned when no month can be read from the filename or
// the workbook contents.
var ErrNotDetected = errors.New("months: could not determine report month from filename or workbook")

// Resolver maps free-form month labels onto a configured month order. The
// zero value is not usable; construct with NewResolver.
type Resolver struct {
	order   []string
	index   map[string]int
	aliases map[string]string
	now     func() time.Time
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithOrder overrides the canonical month ordering.
func WithOrder(order []string) Option {
	return func(r *Resolver) {
		if len(order) > 0 {
			r.order = append([]string(nil), order...)
		}
	}
}

// WithAliases replaces the accepted-spelling table. Keys are normalized, so
// accented aliases fold onto the same entry as their plain form.
func WithAliases(aliases map[string]string) Option {
	return func(r *Resolver) {
		if len(aliases) == 0 {
			return
		}
		table := make(map[string]string, len(aliases))
		for alias, month := range aliases {
			table[Normalize(alias)] = month
		}
		r.aliases = table
	}
}

// WithNow fixes the clock used by the closed-period rule. Tests use this to
// keep detection deterministic.
func WithNow(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewResolver builds a Resolver with the default aliases and ordering.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		order:   DefaultOrder(),
		aliases: DefaultAliases(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.index = make(map[string]int, len(r.order))
	for i, month := range r.order {
		r.index[month] = i
	}
	return r
}

// Order returns a copy of the configured month ordering.
func (r *Resolver) Order() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Index reports the position of month within the configured order.
func (r *Resolver) Index(month string) (int, bool) {
	i, ok := r.index[month]
	return i, ok
}

// Resolve extracts month tokens from label and returns the canonical name of
// the first one matching a known alias.
func (r *Resolver) Resolve(label string) (string, bool) {
	for _, token := range tokens(label) {
		if month, ok := r.aliases[token]; ok {
			return month, true
		}
	}
	return "", false
}

// FromFilename resolves the report month from a file name.
func (r *Resolver) FromFilename(name string) (string, bool) {
	return r.Resolve(filepath.Base(name))
}

// FromSheetNames resolves a month from every sheet name and returns the
// chronologically latest one present in the configured order.
func (r *Resolver) FromSheetNames(names []string) (string, bool) {
	seen := make(map[string]bool)
	var detected []string
	for _, name := range names {
		month, ok := r.Resolve(name)
		if !ok {
			continue
		}
		if _, inOrder := r.index[month]; !inOrder || seen[month] {
			continue
		}
		seen[month] = true
		detected = append(detected, month)
	}
	if len(detected) == 0 {
		return "", false
	}
	sort.Slice(detected, func(i, j int) bool { return r.index[detected[i]] < r.index[detected[j]] })
	return detected[len(detected)-1], true
}

// FromCover scans cover-sheet cells column by column for a canonical month
// name. The first grid row is a header and is skipped. Matching is a plain
// upper-cased substring test, so "INFORME MARZO 2025" resolves to MARZO.
func (r *Resolver) FromCover(grid [][]string) (string, bool) {
	if len(grid) < 2 {
		return "", false
	}
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}
	for col := 0; col < width; col++ {
		for rowIdx := 1; rowIdx < len(grid); rowIdx++ {
			row := grid[rowIdx]
			if col >= len(row) || strings.TrimSpace(row[col]) == "" {
				continue
			}
			cell := strings.ToUpper(row[col])
			for _, month := range r.order {
				if strings.Contains(cell, month) {
					return month, true
				}
			}
		}
	}
	return "", false
}

// Previous returns the month preceding month in the configured order.
// January wraps around to December.
func (r *Resolver) Previous(month string) (string, error) {
	i, ok := r.index[month]
	if !ok {
		return "", fmt.Errorf("months: %q is not in configured month order", month)
	}
	if i == 0 {
		return r.order[len(r.order)-1], nil
	}
	return r.order[i-1], nil
}

// ReportMonth applies the closed-period rule to a detected month: when the
// workbook names the month still in progress on the system clock, the report
// covers the previous month instead.
func (r *Resolver) ReportMonth(detected string) (string, error) {
	system := strings.ToUpper(r.now().Format("January"))
	if spanish, ok := englishToSpanish[system]; ok {
		system = spanish
	}
	if detected == system {
		return r.Previous(detected)
	}
	return detected, nil
}

// Detect resolves the report month from the filename, the sheet names and
// the cover grid in that precedence, then applies the closed-period rule.
func (r *Resolver) Detect(fileName string, sheetNames []string, cover [][]string) (string, error) {
	detected, ok := r.FromFilename(fileName)
	if !ok {
		detected, ok = r.FromSheetNames(sheetNames)
	}
	if !ok {
		detected, ok = r.FromCover(cover)
	}
	if !ok {
		return "", ErrNotDetected
	}
	return r.ReportMonth(detected)
}
