package services

import (
	"context"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/repositories"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

type SettingsService struct {
	settings repositories.SettingsRepo
	audit    *audit.Service
}

func NewSettingsService(settings repositories.SettingsRepo, auditSvc *audit.Service) *SettingsService {
	return &SettingsService{
		settings: settings,
		audit:    auditSvc,
	}
}

// Get returns the current settings, defaults on first use
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, storeError("settings.get", "settings", err)
	}
	return settings, nil
}

// Update applies the non-nil fields of req. An empty alert_email clears it.
func (s *SettingsService) Update(ctx context.Context, actor audit.Actor, req *models.UpdateSettingsRequest) (*models.Settings, error) {
	const op = "settings.update"

	req.AlertEmail = trimOptional(req.AlertEmail)
	check := *req
	check.AlertEmail = nilIfEmpty(req.AlertEmail)
	if err := utils.ValidateStruct(op, &check); err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, storeError(op, "settings", err)
	}
	before := *settings

	if req.CurrencyCode != nil {
		settings.CurrencyCode = *req.CurrencyCode
	}
	if req.DateFormat != nil {
		settings.DateFormat = *req.DateFormat
	}
	if req.HighRiskThreshold != nil {
		settings.HighRiskThreshold = *req.HighRiskThreshold
	}
	if req.DefaultTaxRate != nil {
		settings.DefaultTaxRate = *req.DefaultTaxRate
	}
	if req.NotifyHighDebt != nil {
		settings.NotifyHighDebt = *req.NotifyHighDebt
	}
	if req.NotifyLargePayment != nil {
		settings.NotifyLargePayment = *req.NotifyLargePayment
	}
	if req.LargePaymentThreshold != nil {
		settings.LargePaymentThreshold = *req.LargePaymentThreshold
	}
	if req.DailySummaryEmail != nil {
		settings.DailySummaryEmail = *req.DailySummaryEmail
	}
	if req.AlertEmail != nil {
		settings.AlertEmail = nilIfEmpty(req.AlertEmail)
	}
	if actor.Email != "" {
		settings.UpdatedBy = &actor.Email
	}

	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, storeError(op, "settings", err)
	}

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionUpdate,
		Entity:      audit.EntitySettings,
		EntityID:    "1",
		Description: "Updated system settings",
		OldValue:    before,
		NewValue:    settings,
	})

	utils.LogInfo("Settings updated", map[string]interface{}{"by": actor.Email})
	return settings, nil
}
