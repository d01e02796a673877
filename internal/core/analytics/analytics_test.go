package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestGetDateRange(t *testing.T) {
	now := day(2024, time.March, 15, 10)

	r, err := GetDateRange(PeriodLast30Days, now)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.February, 15, 0), r.Start)
	assert.Equal(t, 15, r.End.Day())
	assert.Equal(t, 23, r.End.Hour())

	r, err = GetDateRange(PeriodThisMonth, now)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.March, 1, 0), r.Start)

	r, err = GetDateRange(PeriodThisYear, now)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.January, 1, 0), r.Start)

	r, err = GetDateRange(PeriodAll, now)
	require.NoError(t, err)
	assert.True(t, r.Start.IsZero())

	_, err = GetDateRange("fortnight", now)
	assert.Error(t, err)
}

func TestDailyLineChartFillsGaps(t *testing.T) {
	r := DateRange{Start: day(2024, time.March, 1, 0), End: day(2024, time.March, 3, 23)}

	chart := DailyLineChart(r, []NamedPoints{
		{Name: "Income", Points: []Point{
			{At: day(2024, time.March, 1, 9), Value: decimal.NewFromInt(100)},
			{At: day(2024, time.March, 1, 15), Value: decimal.RequireFromString("50.25")},
			{At: day(2024, time.April, 1, 0), Value: decimal.NewFromInt(999)},
		}},
		{Name: "Expenses", Points: []Point{
			{At: day(2024, time.March, 3, 12), Value: decimal.NewFromInt(40)},
		}},
	})

	assert.Equal(t, "line", chart.Type)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, chart.Labels)
	require.Len(t, chart.Data, 2)

	income := chart.Data[0].Values
	assert.Equal(t, "150.25", income[0].String())
	assert.True(t, income[1].IsZero())
	assert.True(t, income[2].IsZero())

	expenses := chart.Data[1].Values
	assert.True(t, expenses[0].IsZero())
	assert.Equal(t, "40", expenses[2].String())
}

func TestEarliestStart(t *testing.T) {
	end := day(2024, time.March, 15, 23)

	r := EarliestStart(DateRange{End: end}, []Point{{At: day(2024, time.March, 10, 14)}})
	assert.Equal(t, day(2024, time.March, 10, 0), r.Start)

	r = EarliestStart(DateRange{End: end})
	assert.Equal(t, day(2024, time.February, 15, 0), r.Start)

	fixed := DateRange{Start: day(2024, time.March, 1, 0), End: end}
	assert.Equal(t, fixed, EarliestStart(fixed, []Point{{At: day(2023, time.January, 1, 0)}}))
}

type row struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Status string
}

func (row) TableName() string { return "samples" }

func TestCountAndCountBy(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}))
	for _, s := range []string{"Pending", "Pending", "Paid"} {
		require.NoError(t, db.Create(&row{ID: uuid.New(), Status: s}).Error)
	}

	agg := NewAggregator(db)

	total, err := agg.Count(ctx, "samples", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	paid, err := agg.Count(ctx, "samples", map[string]interface{}{"status": "Paid"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), paid)

	byStatus, err := agg.CountBy(ctx, "samples", "status", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Pending": 2, "Paid": 1}, byStatus)
}
