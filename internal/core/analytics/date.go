package analytics

import (
	"fmt"
	"time"
)

// Report periods
const (
	PeriodToday      = "today"
	PeriodLast7Days  = "last_7_days"
	PeriodLast30Days = "last_30_days"
	PeriodThisMonth  = "this_month"
	PeriodThisYear   = "this_year"
	PeriodAll        = "all"
)

// GetDateRange returns the range covered by period as of now. PeriodAll
// leaves Start zero.
func GetDateRange(period string, now time.Time) (*DateRange, error) {
	var start time.Time
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch period {
	case PeriodToday:
		start = today
	case PeriodLast7Days:
		start = today.AddDate(0, 0, -6)
	case "", PeriodLast30Days:
		start = today.AddDate(0, 0, -29)
	case PeriodThisMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	case PeriodThisYear:
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)
	case PeriodAll:
	default:
		return nil, fmt.Errorf("unknown period %q", period)
	}

	return &DateRange{
		Start: start,
		End:   endOfDay(now),
		Field: "created_at",
	}, nil
}

// GetDailyRanges returns date ranges for each day in a period
func GetDailyRanges(start, end time.Time) []DateRange {
	ranges := []DateRange{}
	current := startOfDay(start)

	for !current.After(end) {
		dayEnd := endOfDay(current)
		if dayEnd.After(end) {
			dayEnd = end
		}

		ranges = append(ranges, DateRange{
			Start: current,
			End:   dayEnd,
			Field: "created_at",
		})

		current = current.AddDate(0, 0, 1)
	}

	return ranges
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}
