package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsID is the primary key of the single settings row.
const SettingsID = 1

// Date format options shown in the settings screen
const (
	DateFormatDMY = "DD/MM/YYYY"
	DateFormatMDY = "MM/DD/YYYY"
	DateFormatISO = "YYYY-MM-DD"
)

// Settings is the system-wide configuration record
type Settings struct {
	ID                    int             `gorm:"primaryKey" json:"-"`
	CurrencyCode          string          `gorm:"type:text;not null" json:"currency_code"`
	DateFormat            string          `gorm:"type:text;not null" json:"date_format"`
	HighRiskThreshold     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"high_risk_threshold"`
	DefaultTaxRate        decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"default_tax_rate"`
	NotifyHighDebt        bool            `gorm:"not null" json:"notify_high_debt"`
	NotifyLargePayment    bool            `gorm:"not null" json:"notify_large_payment"`
	LargePaymentThreshold decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"large_payment_threshold"`
	DailySummaryEmail     bool            `gorm:"not null" json:"daily_summary_email"`
	AlertEmail            *string         `gorm:"type:text" json:"alert_email"`
	UpdatedBy             *string         `gorm:"type:text" json:"updated_by"`
	UpdatedAt             time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Settings) TableName() string {
	return "system_settings"
}

// DefaultSettings returns the values used before an admin saves settings.
func DefaultSettings() *Settings {
	return &Settings{
		ID:                    SettingsID,
		CurrencyCode:          "LYD",
		DateFormat:            DateFormatDMY,
		HighRiskThreshold:     decimal.NewFromInt(10000),
		DefaultTaxRate:        decimal.Zero,
		NotifyHighDebt:        true,
		NotifyLargePayment:    true,
		LargePaymentThreshold: decimal.NewFromInt(5000),
		DailySummaryEmail:     false,
	}
}

// GoDateLayout maps the configured date format to a Go time layout.
func (s *Settings) GoDateLayout() string {
	switch s.DateFormat {
	case DateFormatMDY:
		return "01/02/2006"
	case DateFormatISO:
		return "2006-01-02"
	default:
		return "02/01/2006"
	}
}

// FormatMoney renders an amount with two decimals and the currency code.
func (s *Settings) FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " " + s.CurrencyCode
}

// HasAlertRecipient reports whether alert emails have somewhere to go.
func (s *Settings) HasAlertRecipient() bool {
	return s.AlertEmail != nil && *s.AlertEmail != ""
}

// UpdateSettingsRequest represents settings update request; nil fields are left unchanged
type UpdateSettingsRequest struct {
	CurrencyCode          *string          `json:"currency_code,omitempty" validate:"omitempty,oneof=LYD USD EUR"`
	DateFormat            *string          `json:"date_format,omitempty" validate:"omitempty,oneof=DD/MM/YYYY MM/DD/YYYY YYYY-MM-DD"`
	HighRiskThreshold     *decimal.Decimal `json:"high_risk_threshold,omitempty" validate:"omitempty,gte=0,money"`
	DefaultTaxRate        *decimal.Decimal `json:"default_tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
	NotifyHighDebt        *bool            `json:"notify_high_debt,omitempty"`
	NotifyLargePayment    *bool            `json:"notify_large_payment,omitempty"`
	LargePaymentThreshold *decimal.Decimal `json:"large_payment_threshold,omitempty" validate:"omitempty,gte=0,money"`
	DailySummaryEmail     *bool            `json:"daily_summary_email,omitempty"`
	AlertEmail            *string          `json:"alert_email,omitempty" validate:"omitempty,email"`
}
