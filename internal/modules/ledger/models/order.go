package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the delivery/payment state of a card order
type OrderStatus string

// Order status constants, in lifecycle order
const (
	OrderStatusPending  OrderStatus = "Pending"
	OrderStatusSent     OrderStatus = "Sent"
	OrderStatusReceived OrderStatus = "Received"
	OrderStatusPaid     OrderStatus = "Paid"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusSent,
	OrderStatusReceived,
	OrderStatusPaid,
}

// Order represents cards issued to a company for an amount of money
type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	CardsCount  int             `gorm:"not null" json:"cards_count"`
	Status      OrderStatus     `gorm:"type:text;not null;index" json:"status"`
	ReceiptPath *string         `gorm:"type:text" json:"receipt_path"`

	// Transition timestamps
	DateSent     *time.Time `json:"date_sent"`
	DateReceived *time.Time `json:"date_received"`
	DatePaid     *time.Time `json:"date_paid"`

	// CreatedAt is the order date and can be edited by staff
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate sets UUID and defaults before creating
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	return nil
}

// HasReceipt reports whether a receipt file is attached.
func (o *Order) HasReceipt() bool {
	return o.ReceiptPath != nil && *o.ReceiptPath != ""
}

// Reference returns the short human-readable order number.
func (o *Order) Reference() string {
	return o.ID.String()[:8]
}

// CreateOrderRequest represents order creation request
type CreateOrderRequest struct {
	CompanyID  uuid.UUID       `json:"company_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required,gt=0,money"`
	CardsCount int             `json:"cards_count" validate:"required,gt=0"`
	OrderDate  *time.Time      `json:"order_date,omitempty"`
}

// UpdateOrderRequest represents order edit request; status changes go through the status endpoint
type UpdateOrderRequest struct {
	Amount     *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gt=0,money"`
	CardsCount *int             `json:"cards_count,omitempty" validate:"omitempty,gt=0"`
	OrderDate  *time.Time       `json:"order_date,omitempty"`
}

// TransitionRequest moves an order to a new status. ExpectedStatus guards
// against concurrent edits.
type TransitionRequest struct {
	Status         OrderStatus  `json:"status" validate:"required"`
	ExpectedStatus *OrderStatus `json:"expected_status,omitempty"`
}

// OrderFilter represents order list options
type OrderFilter struct {
	CompanyID *uuid.UUID
	Status    OrderStatus
	Page      int
	PageSize  int
}
