package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/upload"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/finance"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/repositories"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

type TransactionService struct {
	transactions repositories.TransactionRepo
	companies    repositories.CompanyRepo
	settings     repositories.SettingsRepo
	files        FileStore
	cleaner      *ReceiptCleaner
	alerts       *AlertService
	audit        *audit.Service
	now          func() time.Time
	log          zerolog.Logger
}

func NewTransactionService(
	transactions repositories.TransactionRepo,
	companies repositories.CompanyRepo,
	settings repositories.SettingsRepo,
	files FileStore,
	cleaner *ReceiptCleaner,
	alerts *AlertService,
	auditSvc *audit.Service,
) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		companies:    companies,
		settings:     settings,
		files:        files,
		cleaner:      cleaner,
		alerts:       alerts,
		audit:        auditSvc,
		now:          time.Now,
		log:          utils.Logger("transactions"),
	}
}

// Create records a money movement, optionally tied to a company
func (s *TransactionService) Create(ctx context.Context, actor audit.Actor, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	const op = "transaction.create"

	req.SenderName = nilIfEmpty(trimOptional(req.SenderName))
	req.ReceiverName = nilIfEmpty(trimOptional(req.ReceiverName))
	req.Notes = nilIfEmpty(trimOptional(req.Notes))
	if err := utils.ValidateStruct(op, req); err != nil {
		return nil, err
	}

	company, err := s.lookupCompany(ctx, op, req.CompanyID)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		CompanyID:    req.CompanyID,
		Amount:       req.Amount,
		Type:         req.Type,
		SenderName:   req.SenderName,
		ReceiverName: req.ReceiverName,
		Notes:        req.Notes,
		CreatedAt:    s.now(),
	}
	if req.Date != nil {
		tx.CreatedAt = *req.Date
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, storeError(op, "transaction", err)
	}
	tx.Company = company

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionCreate,
		Entity:      audit.EntityTransaction,
		EntityID:    tx.ID.String(),
		Description: fmt.Sprintf("Recorded %s %s (%s)", tx.Type, tx.Amount.StringFixed(2), tx.CompanyName()),
		NewValue:    tx,
	})

	s.runAlerts(ctx, tx, nil)
	return tx, nil
}

// Get returns a transaction with its company
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("transaction.get", "transaction", err)
	}
	return tx, nil
}

// List returns a page of transactions
func (s *TransactionService) List(ctx context.Context, filter models.TransactionFilter) (*models.ListResponse[models.Transaction], error) {
	const op = "transaction.list"

	if err := validateTransactionFilter(op, filter); err != nil {
		return nil, err
	}

	txs, total, err := s.transactions.List(ctx, filter)
	if err != nil {
		return nil, storeError(op, "transaction", err)
	}
	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	return models.NewListResponse(txs, total, page, pageSize), nil
}

// Update edits a transaction. ClearCompany makes it independent.
func (s *TransactionService) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, req *models.UpdateTransactionRequest) (*models.Transaction, error) {
	const op = "transaction.update"

	req.SenderName = trimOptional(req.SenderName)
	req.ReceiverName = trimOptional(req.ReceiverName)
	req.Notes = trimOptional(req.Notes)
	if err := utils.ValidateStruct(op, req); err != nil {
		return nil, err
	}
	if req.ClearCompany && req.CompanyID != nil {
		return nil, apperror.Validation(op, "company_id and clear_company cannot be combined", nil)
	}

	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(op, "transaction", err)
	}
	before := *tx
	before.Company = nil
	previousCompany := tx.Company

	switch {
	case req.ClearCompany:
		tx.CompanyID = nil
		tx.Company = nil
	case req.CompanyID != nil:
		company, err := s.lookupCompany(ctx, op, req.CompanyID)
		if err != nil {
			return nil, err
		}
		tx.CompanyID = req.CompanyID
		tx.Company = company
	}
	if req.Amount != nil {
		tx.Amount = *req.Amount
	}
	if req.Type != nil {
		tx.Type = *req.Type
	}
	if req.SenderName != nil {
		tx.SenderName = nilIfEmpty(req.SenderName)
	}
	if req.ReceiverName != nil {
		tx.ReceiverName = nilIfEmpty(req.ReceiverName)
	}
	if req.Notes != nil {
		tx.Notes = nilIfEmpty(req.Notes)
	}
	if req.Date != nil {
		tx.CreatedAt = *req.Date
	}

	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, storeError(op, "transaction", err)
	}

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionUpdate,
		Entity:      audit.EntityTransaction,
		EntityID:    tx.ID.String(),
		Description: fmt.Sprintf("Updated %s transaction of %s", tx.CompanyName(), tx.Amount.StringFixed(2)),
		OldValue:    before,
		NewValue:    tx,
	})

	s.runAlerts(ctx, tx, &before)
	if previousCompany != nil && (tx.CompanyID == nil || *tx.CompanyID != previousCompany.ID) {
		// Moving a payment out can push the previous company over the threshold
		s.checkHighDebt(ctx, previousCompany, finance.TransactionContribution(&before).Neg())
	}
	return tx, nil
}

// Delete removes a transaction and its receipt file
func (s *TransactionService) Delete(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	const op = "transaction.delete"

	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return storeError(op, "transaction", err)
	}

	if err := s.transactions.Delete(ctx, id); err != nil {
		return storeError(op, "transaction", err)
	}
	s.cleaner.Remove(ctx, strOrEmpty(tx.ReceiptPath))

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionDelete,
		Entity:      audit.EntityTransaction,
		EntityID:    id.String(),
		Description: fmt.Sprintf("Deleted %s transaction of %s", tx.CompanyName(), tx.Amount.StringFixed(2)),
		OldValue:    tx,
	})

	// Removing a payment can push the company back over the threshold
	if tx.Company != nil {
		s.checkHighDebt(ctx, tx.Company, finance.TransactionContribution(tx).Neg())
	}
	return nil
}

// UploadReceipt stores a receipt for the transaction and replaces the previous one
func (s *TransactionService) UploadReceipt(ctx context.Context, actor audit.Actor, id uuid.UUID, file upload.File) (*models.Transaction, error) {
	const op = "transaction.upload_receipt"

	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(op, "transaction", err)
	}

	result, err := s.files.UploadReceipt(ctx, file, upload.ReceiptTarget{
		CompanyID: tx.CompanyID,
		Kind:      upload.KindTransactions,
		EntityID:  tx.ID,
	})
	if err != nil {
		return nil, uploadError(op, err)
	}

	if err := s.transactions.SetReceipt(ctx, id, result.Path); err != nil {
		s.cleaner.Remove(ctx, result.Path)
		return nil, storeError(op, "transaction", err)
	}

	previous := strOrEmpty(tx.ReceiptPath)
	if previous != "" && previous != result.Path {
		s.cleaner.Remove(ctx, previous)
	}

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionUpdate,
		Entity:      audit.EntityTransaction,
		EntityID:    tx.ID.String(),
		Description: fmt.Sprintf("Attached receipt %s to transaction", result.FileName),
		OldValue:    map[string]interface{}{"receipt_path": tx.ReceiptPath},
		NewValue:    map[string]interface{}{"receipt_path": result.Path},
	})

	tx.ReceiptPath = &result.Path
	return tx, nil
}

// ReceiptURL returns a short-lived link to the transaction receipt
func (s *TransactionService) ReceiptURL(ctx context.Context, id uuid.UUID) (string, error) {
	const op = "transaction.receipt_url"

	tx, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return "", storeError(op, "transaction", err)
	}
	if !tx.HasReceipt() {
		return "", apperror.NotFound(op, "receipt")
	}

	link, err := s.files.SignedURL(ctx, *tx.ReceiptPath)
	if err != nil {
		return "", apperror.Dependency(op, "file store error", err)
	}
	return link, nil
}

func (s *TransactionService) lookupCompany(ctx context.Context, op string, id *uuid.UUID) (*models.Company, error) {
	if id == nil {
		return nil, nil
	}
	company, err := s.companies.GetByID(ctx, *id)
	if err != nil {
		return nil, storeError(op, "company", err)
	}
	return company, nil
}

// runAlerts checks both alert kinds after a create (before == nil) or update
func (s *TransactionService) runAlerts(ctx context.Context, tx *models.Transaction, before *models.Transaction) {
	if s.alerts == nil {
		return
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Skipping alerts, settings unavailable")
		return
	}

	wasLarge := before != nil &&
		before.Type == models.TransactionReceived &&
		before.Amount.GreaterThanOrEqual(settings.LargePaymentThreshold)
	if !wasLarge {
		s.alerts.CheckLargePayment(ctx, settings, tx)
	}

	if tx.Company == nil {
		return
	}
	delta := finance.TransactionContribution(tx)
	if before != nil && before.CompanyID != nil && *before.CompanyID == *tx.CompanyID {
		delta = delta.Add(finance.TransactionContribution(before).Neg())
	}
	s.alerts.CheckHighDebt(ctx, settings, tx.Company, delta)
}

func (s *TransactionService) checkHighDebt(ctx context.Context, company *models.Company, delta finance.Balance) {
	if s.alerts == nil {
		return
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Skipping debt alert, settings unavailable")
		return
	}
	s.alerts.CheckHighDebt(ctx, settings, company, delta)
}

func validateTransactionFilter(op string, filter models.TransactionFilter) error {
	if filter.Type != "" && filter.Type != models.TransactionReceived && filter.Type != models.TransactionPaid {
		return apperror.Validation(op, "type must be one of [Received Paid]", nil)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return apperror.Validation(op, "from must not be after to", nil)
	}
	return nil
}
