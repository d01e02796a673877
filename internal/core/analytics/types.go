package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange represents a time period for filtering. A zero Start means
// "from the beginning".
type DateRange struct {
	Start time.Time
	End   time.Time
	Field string // Date field to filter on (e.g., "created_at")
}

// ChartData represents generic chart data format
type ChartData struct {
	Type   string        `json:"type"`   // "line" or "bar"
	Labels []string      `json:"labels"` // X-axis labels
	Data   []ChartSeries `json:"data"`   // Y-axis data series
}

// ChartSeries represents a data series in a chart
type ChartSeries struct {
	Name   string            `json:"name"`
	Values []decimal.Decimal `json:"values"`
	Color  string            `json:"color,omitempty"`
}

// Point is one dated amount fed into a daily series
type Point struct {
	At    time.Time
	Value decimal.Decimal
}

// NamedPoints is the raw input for one chart series
type NamedPoints struct {
	Name   string
	Color  string
	Points []Point
}
