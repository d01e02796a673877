package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
)

func TestSettingsDefaultsOnFirstRead(t *testing.T) {
	env := newTestEnv(t)

	s, err := env.settings.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "LYD", s.CurrencyCode)
	assert.Equal(t, models.DateFormatDMY, s.DateFormat)
	assertMoney(t, "10000", s.HighRiskThreshold)
	assertMoney(t, "5000", s.LargePaymentThreshold)
	assert.True(t, s.NotifyHighDebt)
	assert.False(t, s.DailySummaryEmail)
	assert.Nil(t, s.AlertEmail)
}

func TestSettingsUpdatePartial(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	updated, err := env.settings.Update(ctx, testActor, &models.UpdateSettingsRequest{
		CurrencyCode: strPtr("USD"),
		DateFormat:   strPtr(models.DateFormatISO),
		AlertEmail:   strPtr(" alerts@cards.test "),
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", updated.CurrencyCode)

	stored, err := env.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", stored.CurrencyCode)
	assert.Equal(t, "2006-01-02", stored.GoDateLayout())
	assertMoney(t, "10000", stored.HighRiskThreshold)
	require.NotNil(t, stored.AlertEmail)
	assert.Equal(t, "alerts@cards.test", *stored.AlertEmail)
	require.NotNil(t, stored.UpdatedBy)
	assert.Equal(t, testActor.Email, *stored.UpdatedBy)

	logs, err := env.audit.GetLogs(ctx, audit.AuditFilter{Entity: audit.EntitySettings})
	require.NoError(t, err)
	assert.Len(t, logs.Logs, 1)
}

func TestSettingsEmptyAlertEmailClears(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.updateSettings(t, &models.UpdateSettingsRequest{AlertEmail: strPtr("alerts@cards.test")})

	_, err := env.settings.Update(ctx, testActor, &models.UpdateSettingsRequest{AlertEmail: strPtr("")})
	require.NoError(t, err)

	stored, err := env.settings.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored.AlertEmail)
	assert.False(t, stored.HasAlertRecipient())
}

func TestSettingsValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	cases := map[string]*models.UpdateSettingsRequest{
		"currency":    {CurrencyCode: strPtr("GBP")},
		"date format": {DateFormat: strPtr("YYYY/DD/MM")},
		"threshold":   {HighRiskThreshold: decPtr("-1")},
		"tax rate":    {DefaultTaxRate: decPtr("101")},
		"alert email": {AlertEmail: strPtr("not-an-email")},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.settings.Update(ctx, testActor, req)
			assert.True(t, apperror.Is(err, apperror.KindValidation))
		})
	}

	stored, err := env.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "LYD", stored.CurrencyCode)
}
