package charts

// LineOpts customises the trend line renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// BarOpts customises the bar chart renderer. ValueFormatter, when set, prints
// a label above each bar.
type BarOpts struct {
	Title          string
	Description    string
	XLabel         string
	YLabel         string
	BarColor       string
	EdgeColor      string
	AxisColor      string
	GridColor      string
	Padding        float64
	TickCount      int
	ValueFormatter func(float64) string
}

// PieOpts customises the pie chart renderer. Footer is printed centered under
// the chart; Colors cycle across slices. LegendValues, when set, replaces the
// computed per-slice percentage in the legend.
type PieOpts struct {
	Title        string
	Description  string
	LegendTitle  string
	LegendValues []string
	Footer       string
	TextColor    string
	Colors       []string
	Padding      float64
}

// Defaults for the report figures.
const (
	DefaultWidth   = 840
	DefaultHeight  = 480
	DefaultPadding = 48.0
	DefaultTicks   = 6
)
