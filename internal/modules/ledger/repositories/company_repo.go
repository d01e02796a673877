package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
)

type CompanyRepo interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, int64, error)
	ListAll(ctx context.Context) ([]models.Company, error)
	Update(ctx context.Context, company *models.Company) error
	// DeleteCascade removes the company with its orders and transactions and
	// returns the receipt paths those rows referenced.
	DeleteCascade(ctx context.Context, id uuid.UUID) ([]string, error)
}

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) CompanyRepo {
	return &companyRepo{db: db}
}

func (r *companyRepo) Create(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepo) List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, int64, error) {
	var companies []models.Company
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Company{})

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR LOWER(COALESCE(phone, '')) LIKE ?",
			pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count companies: %w", err)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	err := query.Order("created_at DESC").Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&companies).Error

	return companies, total, err
}

func (r *companyRepo) ListAll(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	err := r.db.WithContext(ctx).Order("name").Find(&companies).Error
	return companies, err
}

func (r *companyRepo) Update(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

func (r *companyRepo) DeleteCascade(ctx context.Context, id uuid.UUID) ([]string, error) {
	var paths []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderPaths, txPaths []string
		if err := tx.Model(&models.Order{}).
			Where("company_id = ? AND receipt_path IS NOT NULL AND receipt_path <> ''", id).
			Pluck("receipt_path", &orderPaths).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).
			Where("company_id = ? AND receipt_path IS NOT NULL AND receipt_path <> ''", id).
			Pluck("receipt_path", &txPaths).Error; err != nil {
			return err
		}

		if err := tx.Where("company_id = ?", id).Delete(&models.Order{}).Error; err != nil {
			return fmt.Errorf("failed to delete orders: %w", err)
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}

		result := tx.Delete(&models.Company{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete company: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		paths = append(orderPaths, txPaths...)
		return nil
	})

	return paths, err
}
