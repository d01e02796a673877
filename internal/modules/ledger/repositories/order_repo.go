package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/finance"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
)

// ErrStatusConflict is returned by UpdateStatus when the stored status no
// longer matches the expected one.
var ErrStatusConflict = errors.New("order status was changed by someone else")

type OrderRepo interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	ListAll(ctx context.Context, companyID *uuid.UUID) ([]models.Order, error)
	// ListMatching returns every order matching filter, ignoring paging.
	ListMatching(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	Recent(ctx context.Context, companyID uuid.UUID, limit int) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	// UpdateStatus moves the order from expected to next only if the stored
	// status still equals expected, stamping the matching date column.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next models.OrderStatus, at time.Time) error
	SetReceipt(ctx context.Context, id uuid.UUID, path string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepo {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Company").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := filterOrders(r.db.WithContext(ctx).Model(&models.Order{}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	err := query.Preload("Company").
		Order("created_at DESC").Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}

func (r *orderRepo) ListAll(ctx context.Context, companyID *uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.WithContext(ctx).Preload("Company")
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}
	err := query.Order("created_at DESC").Order("id").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListMatching(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	err := filterOrders(r.db.WithContext(ctx).Model(&models.Order{}), filter).
		Preload("Company").
		Order("created_at DESC").Order("id").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) Recent(ctx context.Context, companyID uuid.UUID, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").Order("id").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"amount":      order.Amount,
			"cards_count": order.CardsCount,
			"created_at":  order.CreatedAt,
			"updated_at":  time.Now(),
		}).Error
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next models.OrderStatus, at time.Time) error {
	updates := map[string]interface{}{
		"status":     next,
		"updated_at": at,
	}
	if col := finance.TimestampColumn(next); col != "" {
		updates[col] = at
	}

	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return ErrStatusConflict
}

func (r *orderRepo) SetReceipt(ctx context.Context, id uuid.UUID, path string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
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

func (r *orderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func filterOrders(query *gorm.DB, filter models.OrderFilter) *gorm.DB {
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}
