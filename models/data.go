package models

// ChartData is a category-axis chart: one label per bucket and one or more
// named value series.
type ChartData struct {
	Title    string
	Subtitle string
	XAxis    []string
	Series   map[string][]float64
	// Highlight is the index of the bucket to emphasize, -1 for none.
	Highlight int
}
