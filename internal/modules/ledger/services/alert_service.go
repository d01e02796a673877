package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/email"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/notification"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/finance"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/repositories"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

// Alert subjects
const (
	SubjectHighDebt     = "High Debt Alert"
	SubjectLargePayment = "Large Payment Received"
)

// AlertService emails staff when a write pushes a company over the risk
// threshold or records a large payment. Failures are only logged.
type AlertService struct {
	notifier     *notification.Service
	orders       repositories.OrderRepo
	transactions repositories.TransactionRepo
	log          zerolog.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(notifier *notification.Service, orders repositories.OrderRepo, transactions repositories.TransactionRepo) *AlertService {
	return &AlertService{
		notifier:     notifier,
		orders:       orders,
		transactions: transactions,
		log:          utils.Logger("alerts"),
	}
}

// CompanyBalance computes the current balance of one company
func (a *AlertService) CompanyBalance(ctx context.Context, companyID uuid.UUID) (finance.Balance, error) {
	return companyBalance(ctx, a.orders, a.transactions, companyID)
}

// CheckHighDebt alerts when delta moved company's outstanding from below the
// threshold to at or above it.
func (a *AlertService) CheckHighDebt(ctx context.Context, settings *models.Settings, company *models.Company, delta finance.Balance) {
	if a == nil || company == nil || !settings.NotifyHighDebt || !settings.HasAlertRecipient() {
		return
	}

	after, err := a.CompanyBalance(ctx, company.ID)
	if err != nil {
		a.log.Error().Err(err).Str("company_id", company.ID.String()).Msg("Failed to load balance for alert")
		return
	}
	if !finance.CrossedThreshold(after, delta, settings.HighRiskThreshold) {
		return
	}

	a.send(ctx, settings, notification.Alert{
		Subject: SubjectHighDebt,
		Title:   SubjectHighDebt,
		Message: company.Name + " has reached the high-risk outstanding threshold.",
		Rows: []email.Row{
			{Label: "Company", Value: company.Name},
			{Label: "Outstanding", Value: settings.FormatMoney(after.Outstanding)},
			{Label: "Threshold", Value: settings.FormatMoney(settings.HighRiskThreshold)},
		},
	})
}

// CheckLargePayment alerts on a Received transaction at or above the
// configured large-payment threshold.
func (a *AlertService) CheckLargePayment(ctx context.Context, settings *models.Settings, tx *models.Transaction) {
	if a == nil || !settings.NotifyLargePayment || !settings.HasAlertRecipient() {
		return
	}
	if tx.Type != models.TransactionReceived || tx.Amount.LessThan(settings.LargePaymentThreshold) {
		return
	}

	a.send(ctx, settings, notification.Alert{
		Subject: SubjectLargePayment,
		Title:   SubjectLargePayment,
		Message: "A large payment was recorded.",
		Rows: []email.Row{
			{Label: "From", Value: tx.CompanyName()},
			{Label: "Amount", Value: settings.FormatMoney(tx.Amount)},
			{Label: "Sender", Value: strOrEmpty(tx.SenderName)},
			{Label: "Date", Value: tx.CreatedAt.Format(settings.GoDateLayout())},
		},
	})
}

func (a *AlertService) send(ctx context.Context, settings *models.Settings, alert notification.Alert) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.SendAlert(ctx, *settings.AlertEmail, alert); err != nil {
		a.log.Warn().Err(err).Str("subject", alert.Subject).Msg("Alert not delivered")
	}
}

func companyBalance(ctx context.Context, orders repositories.OrderRepo, transactions repositories.TransactionRepo, companyID uuid.UUID) (finance.Balance, error) {
	companyOrders, err := orders.ListAll(ctx, &companyID)
	if err != nil {
		return finance.Balance{}, err
	}
	txs, err := transactions.ListAll(ctx, &companyID)
	if err != nil {
		return finance.Balance{}, err
	}

	b := finance.ComputeBalance(companyOrders, txs)
	b.CompanyID = companyID
	return b, nil
}
