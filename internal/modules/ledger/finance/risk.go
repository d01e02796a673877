package finance

import (
	"bytes"
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultRiskThreshold is used until an admin saves a different value.
var DefaultRiskThreshold = decimal.NewFromInt(10000)

// RankedCompany is a balance with its risk flag.
type RankedCompany struct {
	Balance
	IsHighRisk bool `json:"is_high_risk"`
}

// RiskReport is the outstanding-balance leaderboard.
type RiskReport struct {
	HighRiskCount int             `json:"high_risk_count"`
	Threshold     decimal.Decimal `json:"threshold"`
	Ranked        []RankedCompany `json:"ranked"`
}

// Classify keeps balances with a positive outstanding amount, ranks them from
// largest to smallest (equal amounts by company id ascending) and flags those
// at or above threshold.
func Classify(balances []Balance, threshold decimal.Decimal) RiskReport {
	ranked := make([]RankedCompany, 0, len(balances))
	for _, b := range balances {
		if !b.Outstanding.IsPositive() {
			continue
		}
		ranked = append(ranked, RankedCompany{
			Balance:    b,
			IsHighRisk: b.Outstanding.GreaterThanOrEqual(threshold),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].Outstanding.Cmp(ranked[j].Outstanding); c != 0 {
			return c > 0
		}
		return bytes.Compare(ranked[i].CompanyID[:], ranked[j].CompanyID[:]) < 0
	})

	count := 0
	for _, r := range ranked {
		if r.IsHighRisk {
			count++
		}
	}

	return RiskReport{
		HighRiskCount: count,
		Threshold:     threshold,
		Ranked:        ranked,
	}
}

// IsHighRisk reports whether a single balance meets the threshold.
func IsHighRisk(b Balance, threshold decimal.Decimal) bool {
	return b.Outstanding.IsPositive() && b.Outstanding.GreaterThanOrEqual(threshold)
}

// CrossedThreshold reports whether applying delta moved the balance from
// below threshold to at-or-above it.
func CrossedThreshold(after, delta Balance, threshold decimal.Decimal) bool {
	before := after.Outstanding.Sub(delta.Outstanding)
	return before.LessThan(threshold) && after.Outstanding.GreaterThanOrEqual(threshold)
}
