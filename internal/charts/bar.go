package charts

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders a bar chart for one series as a standalone SVG document.
func Bars(width, height int, series []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("charts: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("charts: labels length must match series")
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
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}

	axisColor := fallback(opts.AxisColor, "#475569")
	gridColor := fallback(opts.GridColor, "#cbd5f5")
	barColor := fallback(opts.BarColor, "#87ceeb")
	edgeColor := fallback(opts.EdgeColor, "#000080")

	title := strings.TrimSpace(opts.Title)
	chartTop := padding
	if title != "" {
		chartTop += 28
	}
	labelSpace := 16.0
	if opts.XLabel != "" {
		labelSpace += 20
	}
	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - chartTop - padding - labelSpace
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("charts: viewport too small")
	}

	minVal, maxVal := bounds(series)
	if minVal > 0 {
		minVal = 0
	}
	if maxVal < 0 {
		maxVal = 0
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	scale := chartHeight / (maxVal - minVal)
	zeroY := chartTop + chartHeight - (0-minVal)*scale
	chartBottom := chartTop + chartHeight

	titleID := makeID(title, "bar-title")
	descID := makeID(title, "bar-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(title, "Bar chart"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Bar series"))))
	b.WriteString("<rect width=\"100%\" height=\"100%\" fill=\"#ffffff\"></rect>")

	if title != "" {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"32\" fill=\"%s\" font-size=\"16\" font-weight=\"bold\" text-anchor=\"middle\">%s</text>", float64(width)/2, axisColor, template.HTMLEscapeString(title)))
	}

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		value := minVal + (maxVal-minVal)*ratio
		y := chartTop + chartHeight - ratio*chartHeight
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(formatTick(value))))
	}

	// Axes
	b.WriteString(fmt.Sprintf("<g stroke=\"%s\" aria-label=\"Ejes\">", axisColor))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, chartTop, padding, chartBottom))
	b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", padding, zeroY, padding+chartWidth, zeroY))
	b.WriteString("</g>")

	groupWidth := chartWidth / float64(len(series))
	barWidth := groupWidth * 0.6

	for i, value := range series {
		baseX := padding + float64(i)*groupWidth
		y, h := barPosition(value, scale, zeroY, chartTop, chartBottom)
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" stroke=\"%s\" stroke-width=\"1.2\" aria-label=\"%s\"></rect>", baseX+groupWidth*0.2, y, barWidth, h, barColor, edgeColor, template.HTMLEscapeString(labels[i])))

		center := baseX + groupWidth/2
		if opts.ValueFormatter != nil {
			labelY := y - 4
			if value < 0 {
				labelY = y + h + 12
			}
			b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"9\" font-weight=\"bold\" text-anchor=\"middle\">%s</text>", center, labelY, axisColor, template.HTMLEscapeString(opts.ValueFormatter(value))))
		}
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", center, chartBottom+14, axisColor, template.HTMLEscapeString(labels[i])))
	}

	if opts.XLabel != "" {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"12\" font-weight=\"bold\" text-anchor=\"middle\">%s</text>", padding+chartWidth/2, chartBottom+34, axisColor, template.HTMLEscapeString(opts.XLabel)))
	}
	if opts.YLabel != "" {
		b.WriteString(fmt.Sprintf("<text transform=\"translate(14,%.2f) rotate(-90)\" fill=\"%s\" font-size=\"12\" font-weight=\"bold\" text-anchor=\"middle\">%s</text>", chartTop+chartHeight/2, axisColor, template.HTMLEscapeString(opts.YLabel)))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barPosition(value, scale, zeroY, top, bottom float64) (float64, float64) {
	if value >= 0 {
		height := value * scale
		y := zeroY - height
		if y < top {
			height -= top - y
			y = top
		}
		if height < 0 {
			height = 0
		}
		return y, height
	}
	height := math.Abs(value * scale)
	y := zeroY
	if y+height > bottom {
		height = bottom - y
	}
	if height < 0 {
		height = 0
	}
	return y, height
}
