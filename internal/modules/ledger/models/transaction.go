package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType is the direction of a money movement
type TransactionType string

const (
	// TransactionReceived is money into the business from a company
	TransactionReceived TransactionType = "Received"
	// TransactionPaid is money out of the business to a company
	TransactionPaid TransactionType = "Paid"
)

// IndependentLabel names transactions that belong to no company.
const IndependentLabel = "Independent"

// Transaction represents a real money movement, optionally tied to a company
type Transaction struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID    *uuid.UUID      `gorm:"type:uuid;index" json:"company_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Type         TransactionType `gorm:"type:text;not null;index" json:"type"`
	SenderName   *string         `gorm:"type:text" json:"sender_name"`
	ReceiverName *string         `gorm:"type:text" json:"receiver_name"`
	Notes        *string         `gorm:"type:text" json:"notes"`
	ReceiptPath  *string         `gorm:"type:text" json:"receipt_path"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

// TableName specifies the table name
func (Transaction) TableName() string {
	return "transactions"
}

// BeforeCreate sets UUID before creating
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	return nil
}

// CompanyName returns the company name or "Independent".
func (t *Transaction) CompanyName() string {
	if t.Company != nil {
		return t.Company.Name
	}
	return IndependentLabel
}

// HasReceipt reports whether a receipt file is attached.
func (t *Transaction) HasReceipt() bool {
	return t.ReceiptPath != nil && *t.ReceiptPath != ""
}

// CreateTransactionRequest represents transaction creation request
type CreateTransactionRequest struct {
	CompanyID    *uuid.UUID      `json:"company_id,omitempty"`
	Amount       decimal.Decimal `json:"amount" validate:"required,gt=0,money"`
	Type         TransactionType `json:"type" validate:"required,oneof=Received Paid"`
	SenderName   *string         `json:"sender_name,omitempty" validate:"omitempty,max=200"`
	ReceiverName *string         `json:"receiver_name,omitempty" validate:"omitempty,max=200"`
	Notes        *string         `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Date         *time.Time      `json:"date,omitempty"`
}

// UpdateTransactionRequest represents transaction edit request; nil fields are left unchanged
type UpdateTransactionRequest struct {
	CompanyID    *uuid.UUID       `json:"company_id,omitempty"`
	ClearCompany bool             `json:"clear_company,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gt=0,money"`
	Type         *TransactionType `json:"type,omitempty" validate:"omitempty,oneof=Received Paid"`
	SenderName   *string          `json:"sender_name,omitempty" validate:"omitempty,max=200"`
	ReceiverName *string          `json:"receiver_name,omitempty" validate:"omitempty,max=200"`
	Notes        *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Date         *time.Time       `json:"date,omitempty"`
}

// TransactionFilter represents transaction list options
type TransactionFilter struct {
	CompanyID       *uuid.UUID
	IndependentOnly bool
	Type            TransactionType
	From            *time.Time
	To              *time.Time
	Page            int
	PageSize        int
}
