package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/analytics"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/email"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/notification"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/finance"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/repositories"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

// Dashboard list sizes
const (
	TopCompaniesLimit       = 5
	RecentTransactionsLimit = 6
	LeaderboardLimit        = 5
	StatementRecentLimit    = 10
)

// Chart series names
const (
	SeriesIncome   = "Income"
	SeriesExpenses = "Expenses"
)

// CompanyVolume is the money a company moved in the period
type CompanyVolume struct {
	CompanyID   *uuid.UUID      `json:"company_id"`
	CompanyName string          `json:"company_name"`
	Volume      decimal.Decimal `json:"volume"`
}

// RiskEntry is a ranked balance with its company name
type RiskEntry struct {
	finance.RankedCompany
	CompanyName string `json:"company_name"`
}

// RiskReport is the classifier output with company names
type RiskReport struct {
	HighRiskCount int             `json:"high_risk_count"`
	Threshold     decimal.Decimal `json:"threshold"`
	Currency      string          `json:"currency"`
	Companies     []RiskEntry     `json:"companies"`
}

// Overview is the dashboard payload
type Overview struct {
	Period    string          `json:"period"`
	From      *time.Time      `json:"from"`
	To        time.Time       `json:"to"`
	Currency  string          `json:"currency"`
	Portfolio finance.Balance `json:"portfolio"`

	TotalReceived decimal.Decimal `json:"total_received"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Net           decimal.Decimal `json:"net"`

	OrderCounts  map[models.OrderStatus]int64 `json:"order_counts"`
	CompanyCount int64                        `json:"company_count"`

	Chart              analytics.ChartData  `json:"chart"`
	TopCompanies       []CompanyVolume      `json:"top_companies"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`

	HighRiskCount int         `json:"high_risk_count"`
	Leaderboard   []RiskEntry `json:"leaderboard"`
}

// CompanyStatement is the company detail page payload
type CompanyStatement struct {
	Company            *models.Company              `json:"company"`
	Balance            finance.Balance              `json:"balance"`
	IsHighRisk         bool                         `json:"is_high_risk"`
	Currency           string                       `json:"currency"`
	OrderCounts        map[models.OrderStatus]int64 `json:"order_counts"`
	RecentOrders       []models.Order               `json:"recent_orders"`
	RecentTransactions []models.Transaction         `json:"recent_transactions"`
}

// ReportService builds every aggregate view through the finance package
type ReportService struct {
	companies    repositories.CompanyRepo
	orders       repositories.OrderRepo
	transactions repositories.TransactionRepo
	settings     repositories.SettingsRepo
	aggregator   *analytics.Aggregator
	notifier     *notification.Service
	now          func() time.Time
	log          zerolog.Logger
}

func NewReportService(
	companies repositories.CompanyRepo,
	orders repositories.OrderRepo,
	transactions repositories.TransactionRepo,
	settings repositories.SettingsRepo,
	aggregator *analytics.Aggregator,
	notifier *notification.Service,
) *ReportService {
	return &ReportService{
		companies:    companies,
		orders:       orders,
		transactions: transactions,
		settings:     settings,
		aggregator:   aggregator,
		notifier:     notifier,
		now:          time.Now,
		log:          utils.Logger("reports"),
	}
}

// Overview builds the dashboard for a report period
func (s *ReportService) Overview(ctx context.Context, period string) (*Overview, error) {
	const op = "report.overview"

	if period == "" {
		period = analytics.PeriodLast30Days
	}
	dateRange, err := analytics.GetDateRange(period, s.now())
	if err != nil {
		return nil, apperror.Validation(op, err.Error(), err)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, storeError(op, "settings", err)
	}

	allOrders, err := s.orders.ListAll(ctx, nil)
	if err != nil {
		return nil, storeError(op, "order", err)
	}
	allTxs, err := s.transactions.ListAll(ctx, nil)
	if err != nil {
		return nil, storeError(op, "transaction", err)
	}

	periodTxs := allTxs
	if !dateRange.Start.IsZero() {
		periodTxs, err = s.transactions.ListBetween(ctx, dateRange.Start, dateRange.End)
		if err != nil {
			return nil, storeError(op, "transaction", err)
		}
	}

	orderCounts, err := s.orderCounts(ctx, nil)
	if err != nil {
		return nil, apperror.Dependency(op, "database error", err)
	}
	companyCount, err := s.aggregator.Count(ctx, "companies", nil)
	if err != nil {
		return nil, apperror.Dependency(op, "database error", err)
	}

	names, err := s.companyNames(ctx)
	if err != nil {
		return nil, storeError(op, "company", err)
	}

	received, paid := decimal.Zero, decimal.Zero
	var income, expenses []analytics.Point
	for i := range periodTxs {
		tx := &periodTxs[i]
		point := analytics.Point{At: tx.CreatedAt, Value: tx.Amount}
		switch tx.Type {
		case models.TransactionReceived:
			received = received.Add(tx.Amount)
			income = append(income, point)
		case models.TransactionPaid:
			paid = paid.Add(tx.Amount)
			expenses = append(expenses, point)
		}
	}

	chartRange := analytics.EarliestStart(*dateRange, income, expenses)
	chart := analytics.DailyLineChart(chartRange, []analytics.NamedPoints{
		{Name: SeriesIncome, Color: "#16a34a", Points: income},
		{Name: SeriesExpenses, Color: "#dc2626", Points: expenses},
	})

	risk := finance.Classify(finance.GroupByCompany(allOrders, allTxs), settings.HighRiskThreshold)
	leaderboard := withNames(risk.Ranked, names)
	if len(leaderboard) > LeaderboardLimit {
		leaderboard = leaderboard[:LeaderboardLimit]
	}

	recent := allTxs
	if len(recent) > RecentTransactionsLimit {
		recent = recent[:RecentTransactionsLimit]
	}

	overview := &Overview{
		Period:             period,
		To:                 dateRange.End,
		Currency:           settings.CurrencyCode,
		Portfolio:          finance.ComputeBalance(allOrders, allTxs),
		TotalReceived:      received,
		TotalPaid:          paid,
		Net:                received.Sub(paid),
		OrderCounts:        orderCounts,
		CompanyCount:       companyCount,
		Chart:              chart,
		TopCompanies:       topCompanies(periodTxs, TopCompaniesLimit),
		RecentTransactions: recent,
		HighRiskCount:      risk.HighRiskCount,
		Leaderboard:        leaderboard,
	}
	if !dateRange.Start.IsZero() {
		from := dateRange.Start
		overview.From = &from
	}
	return overview, nil
}

// Risk returns the full outstanding leaderboard
func (s *ReportService) Risk(ctx context.Context) (*RiskReport, error) {
	const op = "report.risk"

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, storeError(op, "settings", err)
	}
	allOrders, err := s.orders.ListAll(ctx, nil)
	if err != nil {
		return nil, storeError(op, "order", err)
	}
	allTxs, err := s.transactions.ListAll(ctx, nil)
	if err != nil {
		return nil, storeError(op, "transaction", err)
	}
	names, err := s.companyNames(ctx)
	if err != nil {
		return nil, storeError(op, "company", err)
	}

	report := finance.Classify(finance.GroupByCompany(allOrders, allTxs), settings.HighRiskThreshold)
	return &RiskReport{
		HighRiskCount: report.HighRiskCount,
		Threshold:     report.Threshold,
		Currency:      settings.CurrencyCode,
		Companies:     withNames(report.Ranked, names),
	}, nil
}

// Statement returns one company's balance with its latest activity
func (s *ReportService) Statement(ctx context.Context, companyID uuid.UUID) (*CompanyStatement, error) {
	const op = "report.statement"

	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, storeError(op, "company", err)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, storeError(op, "settings", err)
	}

	balance, err := companyBalance(ctx, s.orders, s.transactions, companyID)
	if err != nil {
		return nil, storeError(op, "order", err)
	}
	counts, err := s.orderCounts(ctx, &companyID)
	if err != nil {
		return nil, apperror.Dependency(op, "database error", err)
	}
	recentOrders, err := s.orders.Recent(ctx, companyID, StatementRecentLimit)
	if err != nil {
		return nil, storeError(op, "order", err)
	}
	recentTxs, err := s.transactions.Recent(ctx, &companyID, StatementRecentLimit)
	if err != nil {
		return nil, storeError(op, "transaction", err)
	}

	return &CompanyStatement{
		Company:            company,
		Balance:            balance,
		IsHighRisk:         finance.IsHighRisk(balance, settings.HighRiskThreshold),
		Currency:           settings.CurrencyCode,
		OrderCounts:        counts,
		RecentOrders:       recentOrders,
		RecentTransactions: recentTxs,
	}, nil
}

// SendDailySummary emails today's overview when the setting is on. It is
// the body of the daily cron job.
func (s *ReportService) SendDailySummary(ctx context.Context) error {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.DailySummaryEmail || !settings.HasAlertRecipient() {
		s.log.Debug().Msg("Daily summary disabled")
		return nil
	}
	if s.notifier == nil {
		return email.ErrNotConfigured
	}

	overview, err := s.Overview(ctx, analytics.PeriodToday)
	if err != nil {
		return err
	}

	date := s.now().Format(settings.GoDateLayout())
	rows := []email.Row{
		{Label: "Received today", Value: settings.FormatMoney(overview.TotalReceived)},
		{Label: "Paid today", Value: settings.FormatMoney(overview.TotalPaid)},
		{Label: "Net today", Value: settings.FormatMoney(overview.Net)},
		{Label: "Portfolio outstanding", Value: settings.FormatMoney(overview.Portfolio.Outstanding)},
		{Label: "High-risk companies", Value: fmt.Sprintf("%d", overview.HighRiskCount)},
	}
	for _, status := range models.OrderStatuses {
		rows = append(rows, email.Row{Label: string(status) + " orders", Value: fmt.Sprintf("%d", overview.OrderCounts[status])})
	}

	return s.notifier.SendAlert(ctx, *settings.AlertEmail, notification.Alert{
		Subject: "Daily Summary - " + date,
		Title:   "Daily Summary",
		Message: fmt.Sprintf("Activity for %s.", date),
		Rows:    rows,
	})
}

// orderCounts returns a count for every status, zeros included
func (s *ReportService) orderCounts(ctx context.Context, companyID *uuid.UUID) (map[models.OrderStatus]int64, error) {
	var filters map[string]interface{}
	if companyID != nil {
		filters = map[string]interface{}{"company_id": *companyID}
	}

	raw, err := s.aggregator.CountBy(ctx, "orders", "status", filters)
	if err != nil {
		return nil, err
	}

	counts := make(map[models.OrderStatus]int64, len(models.OrderStatuses))
	for _, status := range models.OrderStatuses {
		counts[status] = raw[string(status)]
	}
	return counts, nil
}

func (s *ReportService) companyNames(ctx context.Context) (map[uuid.UUID]string, error) {
	companies, err := s.companies.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(companies))
	for _, c := range companies {
		names[c.ID] = c.Name
	}
	return names, nil
}

func withNames(ranked []finance.RankedCompany, names map[uuid.UUID]string) []RiskEntry {
	entries := make([]RiskEntry, 0, len(ranked))
	for _, r := range ranked {
		entries = append(entries, RiskEntry{RankedCompany: r, CompanyName: names[r.CompanyID]})
	}
	return entries
}

// topCompanies ranks companies by the sum of their transaction amounts in
// either direction. Independent transactions are grouped as one entry.
func topCompanies(txs []models.Transaction, limit int) []CompanyVolume {
	byKey := make(map[string]*CompanyVolume)
	for i := range txs {
		tx := &txs[i]
		key := models.IndependentLabel
		if tx.CompanyID != nil {
			key = tx.CompanyID.String()
		}
		v, ok := byKey[key]
		if !ok {
			v = &CompanyVolume{CompanyID: tx.CompanyID, CompanyName: tx.CompanyName(), Volume: decimal.Zero}
			byKey[key] = v
		}
		v.Volume = v.Volume.Add(tx.Amount)
	}

	out := make([]CompanyVolume, 0, len(byKey))
	for _, v := range byKey {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Volume.Cmp(out[j].Volume); c != 0 {
			return c > 0
		}
		return out[i].CompanyName < out[j].CompanyName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
