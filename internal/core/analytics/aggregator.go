package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Aggregator provides generic database aggregation helpers
type Aggregator struct {
	db *gorm.DB
}

// NewAggregator creates a new aggregator
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Count performs a simple COUNT query with filters
func (a *Aggregator) Count(ctx context.Context, table string, filters map[string]interface{}) (int64, error) {
	var count int64
	if err := applyFilters(a.db.WithContext(ctx).Table(table), filters).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return count, nil
}

// CountBy counts rows grouped by column
func (a *Aggregator) CountBy(ctx context.Context, table, column string, filters map[string]interface{}) (map[string]int64, error) {
	var rows []struct {
		Bucket string
		Total  int64
	}

	err := applyFilters(a.db.WithContext(ctx).Table(table), filters).
		Select(fmt.Sprintf("%s AS bucket, COUNT(*) AS total", column)).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by %s failed: %w", column, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Bucket] = r.Total
	}
	return counts, nil
}

func applyFilters(db *gorm.DB, filters map[string]interface{}) *gorm.DB {
	conditions := make([]string, 0, len(filters))
	for condition := range filters {
		conditions = append(conditions, condition)
	}
	sort.Strings(conditions)

	for _, condition := range conditions {
		value := filters[condition]
		if strings.Contains(condition, "?") {
			// Parameterized condition (e.g., "created_at >= ?")
			db = db.Where(condition, value)
		} else {
			// Simple equality (e.g., {"company_id": id})
			db = db.Where(fmt.Sprintf("%s = ?", condition), value)
		}
	}
	return db
}
