package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
)

func readCSV(t *testing.T, content []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportOrdersCSV(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.exports.now = func() time.Time { return time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC) }
	acme := env.company(t, "Acme", nil)
	bolt := env.company(t, "Bolt", nil)
	env.order(t, acme.ID, "100.5")
	env.order(t, acme.ID, "20")
	env.order(t, bolt.ID, "999")

	res, err := env.exports.ExportOrders(ctx, testActor, models.OrderFilter{CompanyID: &acme.ID}, "")
	require.NoError(t, err)

	assert.Equal(t, "orders_2026-04-01.csv", res.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", res.ContentType)

	records := readCSV(t, res.Content)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Order", "Date", "Company", "Cards", "Amount", "Status", "Sent", "Paid"}, records[0])
	assert.Equal(t, "Acme", records[1][2])
	assert.Equal(t, "Pending", records[1][5])
	assert.Equal(t, []string{"Total", "", "", "10", "120.50", "", "", ""}, records[3])

	logs, err := env.audit.GetLogs(ctx, audit.AuditFilter{Search: audit.ActionExport})
	require.NoError(t, err)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, "Exported 2 orders as csv", logs.Logs[0].Description)
}

func TestExportOrdersRejectsUnknownFormat(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.exports.ExportOrders(context.Background(), testActor, models.OrderFilter{}, "docx")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestExportTransactionsExcel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.company(t, "Acme", nil)
	at := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	env.transaction(t, &c.ID, models.TransactionReceived, "300", &at)
	env.transaction(t, nil, models.TransactionPaid, "50", &at)

	res, err := env.exports.ExportTransactions(ctx, testActor, models.TransactionFilter{}, "excel")
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", res.Filename[len(res.Filename)-5:])

	f, err := excelize.OpenReader(bytes.NewReader(res.Content))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Transactions", rows[0][0])
	last := rows[len(rows)-1]
	assert.Equal(t, "Net", last[0])
}

func TestExportTransactionsIndependentOnly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.company(t, "Acme", nil)
	env.transaction(t, &c.ID, models.TransactionReceived, "300", nil)
	env.transaction(t, nil, models.TransactionPaid, "50", nil)

	res, err := env.exports.ExportTransactions(ctx, testActor, models.TransactionFilter{IndependentOnly: true}, "csv")
	require.NoError(t, err)

	records := readCSV(t, res.Content)
	require.Len(t, records, 3)
	assert.Equal(t, models.IndependentLabel, records[1][1])
	assert.Equal(t, "Paid", records[1][2])
	assert.Equal(t, "-50.00", records[2][3])
}

func TestExportTransactionsPDF(t *testing.T) {
	env := newTestEnv(t)
	env.transaction(t, nil, models.TransactionReceived, "10", nil)

	res, err := env.exports.ExportTransactions(context.Background(), testActor, models.TransactionFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.True(t, bytes.HasPrefix(res.Content, []byte("%PDF")))
}
