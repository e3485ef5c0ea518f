package charts

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// set3Palette mirrors the pastel palette used for the distribution figures.
var set3Palette = []string{
	"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3", "#fdb462",
	"#b3de69", "#fccde5", "#d9d9d9", "#bc80bd", "#ccebc5", "#ffed6f",
}

// Pie renders a pie chart with a right-hand legend as a standalone SVG
// document. Slices start at twelve o'clock and run clockwise.
func Pie(width, height int, values []float64, labels []string, opts PieOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("charts: values required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("charts: labels length must match values")
	}
	total := 0.0
	for _, v := range values {
		if v < 0 {
			return "", fmt.Errorf("charts: negative value in pie series")
		}
		total += v
	}
	if total <= 0 {
		return "", fmt.Errorf("charts: pie total must be positive")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}

	axisColor := "#475569"
	textColor := fallback(opts.TextColor, "#ffffff")
	palette := opts.Colors
	if len(palette) == 0 {
		palette = set3Palette
	}

	title := strings.TrimSpace(opts.Title)
	chartTop := padding
	if title != "" {
		chartTop += 28
	}
	footerSpace := 0.0
	if opts.Footer != "" {
		footerSpace = 24
	}

	legendWidth := 260.0
	pieRegion := float64(width) - legendWidth - 2*padding
	pieHeight := float64(height) - chartTop - padding - footerSpace
	if pieRegion <= 0 || pieHeight <= 0 {
		return "", fmt.Errorf("charts: viewport too small")
	}
	radius := math.Min(pieRegion, pieHeight) / 2
	cx := padding + pieRegion/2
	cy := chartTop + pieHeight/2

	titleID := makeID(title, "pie-title")
	descID := makeID(title, "pie-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(title, "Pie chart"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Share breakdown"))))
	b.WriteString("<rect width=\"100%\" height=\"100%\" fill=\"#ffffff\"></rect>")

	if title != "" {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"32\" fill=\"%s\" font-size=\"16\" font-weight=\"bold\" text-anchor=\"middle\">%s</text>", float64(width)/2, axisColor, template.HTMLEscapeString(title)))
	}

	point := func(theta float64) (float64, float64) {
		return cx + radius*math.Sin(theta), cy - radius*math.Cos(theta)
	}

	cumulative := 0.0
	for i, v := range values {
		frac := v / total
		color := palette[i%len(palette)]
		pct := fmt.Sprintf("%.1f%%", frac*100)
		ariaLabel := template.HTMLEscapeString(fmt.Sprintf("%s %s", labels[i], pct))

		theta0 := cumulative * 2 * math.Pi
		cumulative += frac
		theta1 := cumulative * 2 * math.Pi

		switch {
		case frac <= 1e-12:
			// zero slice, legend entry only
		case frac >= 1-1e-9:
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" aria-label=\"%s\"></circle>", cx, cy, radius, color, ariaLabel))
		default:
			x0, y0 := point(theta0)
			x1, y1 := point(theta1)
			largeArc := 0
			if theta1-theta0 > math.Pi {
				largeArc = 1
			}
			b.WriteString(fmt.Sprintf("<path d=\"M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z\" fill=\"%s\" aria-label=\"%s\"></path>", cx, cy, x0, y0, radius, radius, largeArc, x1, y1, color, ariaLabel))
		}

		if frac > 1e-12 {
			mid := (theta0 + theta1) / 2
			lx := cx + radius*0.62*math.Sin(mid)
			ly := cy - radius*0.62*math.Cos(mid)
			b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" font-weight=\"bold\" text-anchor=\"middle\">%s</text>", lx, ly+3, textColor, pct))
		}
	}

	// Legend
	legendX := padding + pieRegion + 16
	legendY := chartTop + 4
	if opts.LegendTitle != "" {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"12\" font-weight=\"bold\" text-anchor=\"start\">%s</text>", legendX, legendY, axisColor, template.HTMLEscapeString(opts.LegendTitle)))
		legendY += 20
	}
	for i, label := range labels {
		color := palette[i%len(palette)]
		entry := fmt.Sprintf("%s: %.1f%%", label, values[i]/total*100)
		if i < len(opts.LegendValues) {
			entry = fmt.Sprintf("%s: %s", label, opts.LegendValues[i])
		}
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-8, color))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", legendX+14, legendY, axisColor, template.HTMLEscapeString(entry)))
		legendY += 18
	}

	if opts.Footer != "" {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"12\" font-weight=\"bold\" text-anchor=\"middle\">%s</text>", float64(width)/2, float64(height)-10, axisColor, template.HTMLEscapeString(opts.Footer)))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
