package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/repositories"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
)

// ExportService turns order and transaction lists into downloadable files
type ExportService struct {
	orders       repositories.OrderRepo
	transactions repositories.TransactionRepo
	settings     repositories.SettingsRepo
	exporter     *export.Service
	audit        *audit.Service
	now          func() time.Time
}

func NewExportService(
	orders repositories.OrderRepo,
	transactions repositories.TransactionRepo,
	settings repositories.SettingsRepo,
	exporter *export.Service,
	auditSvc *audit.Service,
) *ExportService {
	return &ExportService{
		orders:       orders,
		transactions: transactions,
		settings:     settings,
		exporter:     exporter,
		audit:        auditSvc,
		now:          time.Now,
	}
}

// ExportOrders renders every order matching filter
func (s *ExportService) ExportOrders(ctx context.Context, actor audit.Actor, filter models.OrderFilter, format string) (*export.Result, error) {
	const op = "order.export"

	exportFormat, err := export.ParseFormat(format)
	if err != nil {
		return nil, apperror.Validation(op, err.Error(), err)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, storeError(op, "settings", err)
	}
	orders, err := s.orders.ListMatching(ctx, filter)
	if err != nil {
		return nil, storeError(op, "order", err)
	}

	layout := settings.GoDateLayout()
	total := decimal.Zero
	cards := 0
	rows := make([][]interface{}, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		companyName := ""
		if o.Company != nil {
			companyName = o.Company.Name
		}
		rows = append(rows, []interface{}{
			o.Reference(),
			o.CreatedAt.Format(layout),
			companyName,
			o.CardsCount,
			o.Amount,
			string(o.Status),
			formatOptionalDate(o.DateSent, layout),
			formatOptionalDate(o.DatePaid, layout),
		})
		total = total.Add(o.Amount)
		cards += o.CardsCount
	}

	data := &export.ExportData{
		Title:       "Orders",
		Description: fmt.Sprintf("%d orders, amounts in %s", len(orders), settings.CurrencyCode),
		CreatedAt:   s.now(),
		Headers:     []string{"Order", "Date", "Company", "Cards", "Amount", "Status", "Sent", "Paid"},
		Rows:        rows,
		Totals:      []interface{}{"Total", "", "", cards, total, "", "", ""},
		Style:       export.DefaultStyle(),
	}
	data.Style.Orientation = "landscape"

	return s.render(ctx, actor, op, audit.EntityOrder, data, exportFormat, "orders")
}

// ExportTransactions renders every transaction matching filter
func (s *ExportService) ExportTransactions(ctx context.Context, actor audit.Actor, filter models.TransactionFilter, format string) (*export.Result, error) {
	const op = "transaction.export"

	exportFormat, err := export.ParseFormat(format)
	if err != nil {
		return nil, apperror.Validation(op, err.Error(), err)
	}
	if err := validateTransactionFilter(op, filter); err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, storeError(op, "settings", err)
	}
	txs, err := s.transactions.ListMatching(ctx, filter)
	if err != nil {
		return nil, storeError(op, "transaction", err)
	}

	layout := settings.GoDateLayout()
	received, paid := decimal.Zero, decimal.Zero
	rows := make([][]interface{}, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		rows = append(rows, []interface{}{
			tx.CreatedAt.Format(layout),
			tx.CompanyName(),
			string(tx.Type),
			tx.Amount,
			strOrEmpty(tx.SenderName),
			strOrEmpty(tx.ReceiverName),
			strOrEmpty(tx.Notes),
		})
		if tx.Type == models.TransactionReceived {
			received = received.Add(tx.Amount)
		} else {
			paid = paid.Add(tx.Amount)
		}
	}

	data := &export.ExportData{
		Title: "Transactions",
		Description: fmt.Sprintf("Received %s, paid %s, net %s",
			settings.FormatMoney(received), settings.FormatMoney(paid), settings.FormatMoney(received.Sub(paid))),
		CreatedAt: s.now(),
		Headers:   []string{"Date", "Company", "Type", "Amount", "Sender", "Receiver", "Notes"},
		Rows:      rows,
		Totals:    []interface{}{"Net", "", "", received.Sub(paid), "", "", ""},
		Style:     export.DefaultStyle(),
	}
	data.Style.Orientation = "landscape"

	return s.render(ctx, actor, op, audit.EntityTransaction, data, exportFormat, "transactions")
}

func (s *ExportService) render(ctx context.Context, actor audit.Actor, op, entity string, data *export.ExportData, format export.ExportFormat, baseName string) (*export.Result, error) {
	result, err := s.exporter.Export(data, format, baseName, s.now())
	if err != nil {
		return nil, apperror.Dependency(op, "failed to render export", err)
	}

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionExport,
		Entity:      entity,
		Description: fmt.Sprintf("Exported %d %s as %s", len(data.Rows), baseName, format),
	})
	return result, nil
}

func formatOptionalDate(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}
