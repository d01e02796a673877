package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayLabelLayout formats daily chart labels
const DayLabelLayout = "2006-01-02"

// DailyLineChart buckets every series by calendar day across r, filling
// days without points with zero. Points outside r are ignored.
func DailyLineChart(r DateRange, series []NamedPoints) ChartData {
	days := GetDailyRanges(r.Start, r.End)

	labels := make([]string, len(days))
	index := make(map[string]int, len(days))
	for i, d := range days {
		labels[i] = d.Start.Format(DayLabelLayout)
		index[labels[i]] = i
	}

	loc := r.Start.Location()
	data := make([]ChartSeries, 0, len(series))
	for _, s := range series {
		values := make([]decimal.Decimal, len(days))
		for i := range values {
			values[i] = decimal.Zero
		}
		for _, p := range s.Points {
			if i, ok := index[p.At.In(loc).Format(DayLabelLayout)]; ok {
				values[i] = values[i].Add(p.Value)
			}
		}
		data = append(data, ChartSeries{Name: s.Name, Values: values, Color: s.Color})
	}

	return ChartData{
		Type:   "line",
		Labels: labels,
		Data:   data,
	}
}

// BarChart builds a single-series bar chart
func BarChart(name string, labels []string, values []decimal.Decimal) ChartData {
	if labels == nil {
		labels = []string{}
	}
	if values == nil {
		values = []decimal.Decimal{}
	}
	return ChartData{
		Type:   "bar",
		Labels: labels,
		Data:   []ChartSeries{{Name: name, Values: values}},
	}
}

// EarliestStart narrows an open range to begin at the first point's day, so
// "all time" charts do not start at year one. Without points it falls back
// to the last 30 days.
func EarliestStart(r DateRange, points ...[]Point) DateRange {
	if !r.Start.IsZero() {
		return r
	}

	var earliest time.Time
	for _, ps := range points {
		for _, p := range ps {
			if earliest.IsZero() || p.At.Before(earliest) {
				earliest = p.At
			}
		}
	}
	if earliest.IsZero() {
		earliest = r.End.AddDate(0, 0, -29)
	}

	r.Start = startOfDay(earliest.In(r.End.Location()))
	return r
}
