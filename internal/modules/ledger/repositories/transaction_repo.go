package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
)

type TransactionRepo interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int64, error)
	ListAll(ctx context.Context, companyID *uuid.UUID) ([]models.Transaction, error)
	// ListMatching returns every transaction matching filter, ignoring paging.
	ListMatching(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error)
	Recent(ctx context.Context, companyID *uuid.UUID, limit int) ([]models.Transaction, error)
	Update(ctx context.Context, tx *models.Transaction) error
	SetReceipt(ctx context.Context, id uuid.UUID, path string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepo {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Omit("Company").Create(tx).Error
}

func (r *transactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Preload("Company").First(&tx, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepo) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int64, error) {
	var txs []models.Transaction
	var total int64

	query := filterTransactions(r.db.WithContext(ctx).Model(&models.Transaction{}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	err := query.Preload("Company").
		Order("created_at DESC").Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txs).Error

	return txs, total, err
}

func (r *transactionRepo) ListAll(ctx context.Context, companyID *uuid.UUID) ([]models.Transaction, error) {
	var txs []models.Transaction
	query := r.db.WithContext(ctx).Preload("Company")
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}
	err := query.Order("created_at DESC").Order("id").Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) ListMatching(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := filterTransactions(r.db.WithContext(ctx).Model(&models.Transaction{}), filter).
		Preload("Company").
		Order("created_at DESC").Order("id").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) ListBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).Preload("Company").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at ASC").Order("id").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) Recent(ctx context.Context, companyID *uuid.UUID, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	query := r.db.WithContext(ctx).Preload("Company")
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}
	err := query.Order("created_at DESC").Order("id").Limit(limit).Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) Update(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", tx.ID).
		Updates(map[string]interface{}{
			"company_id":    tx.CompanyID,
			"amount":        tx.Amount,
			"type":          tx.Type,
			"sender_name":   tx.SenderName,
			"receiver_name": tx.ReceiverName,
			"notes":         tx.Notes,
			"created_at":    tx.CreatedAt,
			"updated_at":    time.Now(),
		}).Error
}

func (r *transactionRepo) SetReceipt(ctx context.Context, id uuid.UUID, path string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"receipt_path": path, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *transactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func filterTransactions(query *gorm.DB, filter models.TransactionFilter) *gorm.DB {
	switch {
	case filter.IndependentOnly:
		query = query.Where("company_id IS NULL")
	case filter.CompanyID != nil:
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	return query
}
