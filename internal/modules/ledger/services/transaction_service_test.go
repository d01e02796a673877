package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
)

func TestTransactionCreateIndependent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	tx, err := env.transactions.Create(ctx, testActor, &models.CreateTransactionRequest{
		Type:       models.TransactionPaid,
		Amount:     dec("40"),
		SenderName: strPtr("  "),
		Notes:      strPtr(" office rent "),
	})
	require.NoError(t, err)

	assert.Nil(t, tx.CompanyID)
	assert.Equal(t, models.IndependentLabel, tx.CompanyName())
	assert.Nil(t, tx.SenderName)
	require.NotNil(t, tx.Notes)
	assert.Equal(t, "office rent", *tx.Notes)
}

func TestTransactionCreateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.transactions.Create(ctx, testActor, &models.CreateTransactionRequest{Type: "Refund", Amount: dec("1")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = env.transactions.Create(ctx, testActor, &models.CreateTransactionRequest{Type: models.TransactionPaid, Amount: dec("0")})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	for _, raw := range []string{"0.004", "1.005", "1000000000000"} {
		_, err = env.transactions.Create(ctx, testActor, &models.CreateTransactionRequest{Type: models.TransactionPaid, Amount: dec(raw)})
		assert.True(t, apperror.Is(err, apperror.KindValidation), raw)
	}

	missing := uuid.New()
	_, err = env.transactions.Create(ctx, testActor, &models.CreateTransactionRequest{CompanyID: &missing, Type: models.TransactionPaid, Amount: dec("1")})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestTransactionListFilters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.company(t, "Acme", nil)
	jan := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	env.transaction(t, &c.ID, models.TransactionReceived, "100", &jan)
	env.transaction(t, &c.ID, models.TransactionPaid, "30", &feb)
	env.transaction(t, nil, models.TransactionPaid, "12", &feb)

	independent, err := env.transactions.List(ctx, models.TransactionFilter{IndependentOnly: true})
	require.NoError(t, err)
	require.Len(t, independent.Items, 1)
	assert.Nil(t, independent.Items[0].CompanyID)

	received, err := env.transactions.List(ctx, models.TransactionFilter{CompanyID: &c.ID, Type: models.TransactionReceived})
	require.NoError(t, err)
	require.Len(t, received.Items, 1)
	assert.True(t, dec("100").Equal(received.Items[0].Amount))

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	inFeb, err := env.transactions.List(ctx, models.TransactionFilter{From: &from})
	require.NoError(t, err)
	assert.EqualValues(t, 2, inFeb.Total)

	_, err = env.transactions.List(ctx, models.TransactionFilter{From: &feb, To: &jan})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = env.transactions.List(ctx, models.TransactionFilter{Type: "Refund"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestTransactionUpdateClearsCompany(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := env.company(t, "Acme", nil)
	tx := env.transaction(t, &c.ID, models.TransactionReceived, "100", nil)

	updated, err := env.transactions.Update(ctx, testActor, tx.ID, &models.UpdateTransactionRequest{ClearCompany: true, Notes: strPtr("moved")})
	require.NoError(t, err)
	assert.Nil(t, updated.CompanyID)

	stored, err := env.transactions.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CompanyID)
	assert.Equal(t, models.IndependentLabel, stored.CompanyName())
	require.NotNil(t, stored.Notes)
	assert.Equal(t, "moved", *stored.Notes)

	_, err = env.transactions.Update(ctx, testActor, tx.ID, &models.UpdateTransactionRequest{ClearCompany: true, CompanyID: &c.ID})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestTransactionUpdateEmptyStringClearsField(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tx, err := env.transactions.Create(ctx, testActor, &models.CreateTransactionRequest{
		Type:       models.TransactionReceived,
		Amount:     dec("10"),
		SenderName: strPtr("Omar"),
	})
	require.NoError(t, err)

	_, err = env.transactions.Update(ctx, testActor, tx.ID, &models.UpdateTransactionRequest{SenderName: strPtr("")})
	require.NoError(t, err)

	stored, err := env.transactions.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.SenderName)
}

func TestLargePaymentAlert(t *testing.T) {
	env := newTestEnv(t)
	env.updateSettings(t, &models.UpdateSettingsRequest{
		LargePaymentThreshold: decPtr("5000"),
		AlertEmail:            strPtr("alerts@cards.test"),
	})
	c := env.company(t, "Acme", nil)

	env.transaction(t, &c.ID, models.TransactionReceived, "4999.99", nil)
	env.transaction(t, &c.ID, models.TransactionPaid, "9000", nil)
	assert.Empty(t, env.mailer.subjects())

	big := env.transaction(t, &c.ID, models.TransactionReceived, "5000", nil)
	assert.Equal(t, []string{SubjectLargePayment}, env.mailer.subjects())

	// Editing notes on an already-large payment does not alert again
	_, err := env.transactions.Update(context.Background(), testActor, big.ID, &models.UpdateTransactionRequest{Notes: strPtr("checked")})
	require.NoError(t, err)
	assert.Equal(t, []string{SubjectLargePayment}, env.mailer.subjects())
}

func TestLargePaymentAlertWithoutRecipient(t *testing.T) {
	env := newTestEnv(t)

	env.transaction(t, nil, models.TransactionReceived, "100000", nil)
	assert.Empty(t, env.mailer.subjects())
}

func TestDeletingPaymentCanCrossDebtThreshold(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.updateSettings(t, &models.UpdateSettingsRequest{
		HighRiskThreshold:     decPtr("1000"),
		LargePaymentThreshold: decPtr("100000"),
		AlertEmail:            strPtr("alerts@cards.test"),
	})
	c := env.company(t, "Acme", nil)
	payment := env.transaction(t, &c.ID, models.TransactionReceived, "500", nil)
	env.order(t, c.ID, "1200")
	assert.Empty(t, env.mailer.subjects())

	require.NoError(t, env.transactions.Delete(ctx, testActor, payment.ID))

	assert.Equal(t, []string{SubjectHighDebt}, env.mailer.subjects())
}

func TestMovingPaymentChecksPreviousCompanyDebt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.updateSettings(t, &models.UpdateSettingsRequest{
		HighRiskThreshold:     decPtr("1000"),
		LargePaymentThreshold: decPtr("100000"),
		AlertEmail:            strPtr("alerts@cards.test"),
	})
	acme := env.company(t, "Acme", nil)
	globex := env.company(t, "Globex", nil)
	payment := env.transaction(t, &acme.ID, models.TransactionReceived, "500", nil)
	env.order(t, acme.ID, "1200")
	assert.Empty(t, env.mailer.subjects())

	_, err := env.transactions.Update(ctx, testActor, payment.ID, &models.UpdateTransactionRequest{CompanyID: &globex.ID})
	require.NoError(t, err)

	require.Equal(t, []string{SubjectHighDebt}, env.mailer.subjects())
	assert.Contains(t, env.mailer.sent[0].Data.Message, "Acme")
}

func TestTransactionReceipt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tx := env.transaction(t, nil, models.TransactionPaid, "12", nil)

	_, err := env.transactions.ReceiptURL(ctx, tx.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	updated, err := env.transactions.UploadReceipt(ctx, testActor, tx.ID, uploadFile("slip.png", "image/png", "png"))
	require.NoError(t, err)
	require.NotNil(t, updated.ReceiptPath)
	assert.True(t, strings.HasPrefix(*updated.ReceiptPath, "company_independent/transactions/"))

	url, err := env.transactions.ReceiptURL(ctx, tx.ID)
	require.NoError(t, err)
	assert.Contains(t, url, *updated.ReceiptPath)

	require.NoError(t, env.transactions.Delete(ctx, testActor, tx.ID))
	assert.False(t, env.files.has(*updated.ReceiptPath))
}
