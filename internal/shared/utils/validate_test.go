package utils

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
)

type sampleRequest struct {
	Name    string           `json:"name" validate:"required"`
	Amount  decimal.Decimal  `json:"amount" validate:"required,gt=0,money"`
	Percent *decimal.Decimal `json:"percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Email   *string          `json:"email,omitempty" validate:"omitempty,email"`
}

func userMessage(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	return appErr.UserMessage()
}

func TestValidateStructPasses(t *testing.T) {
	pct := decimal.NewFromInt(15)
	err := ValidateStruct("sample.create", sampleRequest{Name: "Acme", Amount: decimal.RequireFromString("0.01"), Percent: &pct})
	assert.NoError(t, err)
}

func TestValidateStructComparesDecimals(t *testing.T) {
	pct := decimal.NewFromInt(120)
	bad := "not-an-email"
	err := ValidateStruct("sample.create", sampleRequest{Name: "Acme", Amount: decimal.NewFromInt(-5), Percent: &pct, Email: &bad})
	require.Error(t, err)

	assert.True(t, apperror.Is(err, apperror.KindValidation))
	msg := userMessage(t, err)
	assert.Contains(t, msg, "amount must be greater than 0")
	assert.Contains(t, msg, "percent must be at most 100")
	assert.Contains(t, msg, "email must be a valid email")
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := ValidateStruct("sample.create", sampleRequest{Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.Equal(t, "name is required", userMessage(t, err))
}

func TestValidateStructChecksMoneyScaleAndSize(t *testing.T) {
	for _, raw := range []string{"0.004", "1.005", "1000000000000"} {
		err := ValidateStruct("sample.create", sampleRequest{Name: "Acme", Amount: decimal.RequireFromString(raw)})
		require.Error(t, err, raw)
		assert.True(t, apperror.Is(err, apperror.KindValidation), raw)
		assert.Contains(t, userMessage(t, err), "amount must have at most 2 decimal places", raw)
	}

	for _, raw := range []string{"0.01", "1.50", "1.000", "999999999999.99"} {
		err := ValidateStruct("sample.create", sampleRequest{Name: "Acme", Amount: decimal.RequireFromString(raw)})
		assert.NoError(t, err, raw)
	}
}
