package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func order(companyID uuid.UUID, amount string) models.Order {
	return models.Order{ID: uuid.New(), CompanyID: companyID, Amount: dec(amount), CardsCount: 1, Status: models.OrderStatusPending}
}

func txn(companyID *uuid.UUID, typ models.TransactionType, amount string) models.Transaction {
	return models.Transaction{ID: uuid.New(), CompanyID: companyID, Type: typ, Amount: dec(amount)}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestComputeBalanceZeroCase(t *testing.T) {
	b := ComputeBalance(nil, nil)

	assertDecimal(t, "0", b.TotalIssued)
	assertDecimal(t, "0", b.TotalCollected)
	assertDecimal(t, "0", b.Outstanding)
}

func TestComputeBalanceOrderAndReceipt(t *testing.T) {
	c := uuid.New()

	b := ComputeBalance(
		[]models.Order{order(c, "1000")},
		[]models.Transaction{txn(&c, models.TransactionReceived, "400")},
	)

	assertDecimal(t, "1000", b.TotalIssued)
	assertDecimal(t, "400", b.TotalCollected)
	assertDecimal(t, "600", b.Outstanding)
}

func TestComputeBalanceCompanyInCredit(t *testing.T) {
	c := uuid.New()

	b := ComputeBalance(nil, []models.Transaction{
		txn(&c, models.TransactionReceived, "500"),
		txn(&c, models.TransactionPaid, "200"),
	})

	assertDecimal(t, "0", b.TotalIssued)
	assertDecimal(t, "300", b.TotalCollected)
	assertDecimal(t, "-300", b.Outstanding)
}

func TestComputeBalanceCountsEveryOrderStatus(t *testing.T) {
	c := uuid.New()
	orders := []models.Order{order(c, "100"), order(c, "200"), order(c, "300"), order(c, "400")}
	for i, s := range models.OrderStatuses {
		orders[i].Status = s
	}

	assertDecimal(t, "1000", ComputeBalance(orders, nil).TotalIssued)
}

func TestComputeBalanceAdditive(t *testing.T) {
	c := uuid.New()
	ordersA := []models.Order{order(c, "1000.10"), order(c, "250.05")}
	ordersB := []models.Order{order(c, "0.20")}
	txA := []models.Transaction{txn(&c, models.TransactionReceived, "99.99")}
	txB := []models.Transaction{txn(&c, models.TransactionPaid, "10.01"), txn(&c, models.TransactionReceived, "0.1")}

	whole := ComputeBalance(append(append([]models.Order{}, ordersA...), ordersB...), append(append([]models.Transaction{}, txA...), txB...))
	parts := ComputeBalance(ordersA, txA).Add(ComputeBalance(ordersB, txB))

	assert.True(t, whole.Equal(parts), "whole %+v parts %+v", whole, parts)
	assertDecimal(t, "1160.27", whole.Outstanding)
}

func TestComputeBalanceNoFloatDrift(t *testing.T) {
	c := uuid.New()
	var orders []models.Order
	for i := 0; i < 10; i++ {
		orders = append(orders, order(c, "0.1"))
	}

	assertDecimal(t, "1", ComputeBalance(orders, nil).TotalIssued)
}

func TestComputeBalanceIdempotent(t *testing.T) {
	c := uuid.New()
	orders := []models.Order{order(c, "10"), order(c, "20")}
	txs := []models.Transaction{txn(&c, models.TransactionReceived, "5")}

	first := ComputeBalance(orders, txs)
	second := ComputeBalance(orders, txs)

	assert.True(t, first.Equal(second))
}

func TestGroupByCompany(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	balances := GroupByCompany(
		[]models.Order{order(b, "300"), order(a, "100")},
		[]models.Transaction{
			txn(&a, models.TransactionReceived, "40"),
			txn(nil, models.TransactionReceived, "9999"),
			txn(&b, models.TransactionPaid, "50"),
		},
	)

	require.Len(t, balances, 2)
	assert.Equal(t, a, balances[0].CompanyID)
	assertDecimal(t, "60", balances[0].Outstanding)
	assert.Equal(t, b, balances[1].CompanyID)
	assertDecimal(t, "350", balances[1].Outstanding)
}

func TestContributionsSumToBalance(t *testing.T) {
	c := uuid.New()
	o := order(c, "700")
	tx := txn(&c, models.TransactionReceived, "200")

	sum := OrderContribution(&o).Add(TransactionContribution(&tx))

	assert.True(t, sum.Equal(ComputeBalance([]models.Order{o}, []models.Transaction{tx})))
}

func TestComputeInvoiceTotals(t *testing.T) {
	totals := ComputeInvoiceTotals(dec("1000"), dec("2.5"))

	assertDecimal(t, "25", totals.Tax)
	assertDecimal(t, "1025", totals.Total)

	totals = ComputeInvoiceTotals(dec("10.01"), dec("15"))
	assertDecimal(t, "1.5", totals.Tax)
}

func TestBalanceNegReversesContribution(t *testing.T) {
	companyID := uuid.New()
	tx := txn(&companyID, models.TransactionReceived, "250")

	c := TransactionContribution(&tx)
	sum := c.Add(c.Neg())

	assert.Equal(t, companyID, c.Neg().CompanyID)
	assert.True(t, sum.Equal(EmptyBalance(companyID)))
}
