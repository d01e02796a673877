package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Company is a partner company that receives card orders
type Company struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string           `gorm:"type:text;not null" json:"name"`
	Email      *string          `gorm:"type:text" json:"email"`
	Phone      *string          `gorm:"type:text" json:"phone"`
	PercentCut *decimal.Decimal `gorm:"type:decimal(5,2)" json:"percent_cut"`
	Address    *string          `gorm:"type:text" json:"address"`
	MapsURL    *string          `gorm:"type:text;column:maps_url" json:"maps_url"`
	Latitude   *float64         `json:"latitude"`
	Longitude  *float64         `json:"longitude"`
	Notes      *string          `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Company) TableName() string {
	return "companies"
}

// BeforeCreate sets UUID before creating
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// HasEmail reports whether the company can receive order emails.
func (c *Company) HasEmail() bool {
	return c != nil && c.Email != nil && *c.Email != ""
}

// CreateCompanyRequest represents company creation request
type CreateCompanyRequest struct {
	Name       string           `json:"name" validate:"required,max=200"`
	Email      *string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string          `json:"phone,omitempty" validate:"omitempty,max=40"`
	PercentCut *decimal.Decimal `json:"percent_cut,omitempty" validate:"omitempty,gte=0,lte=100"`
	Address    *string          `json:"address,omitempty" validate:"omitempty,max=500"`
	MapsURL    *string          `json:"maps_url,omitempty" validate:"omitempty,url"`
	Notes      *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateCompanyRequest represents company update request; nil fields are left unchanged
type UpdateCompanyRequest struct {
	Name       *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email      *string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string          `json:"phone,omitempty" validate:"omitempty,max=40"`
	PercentCut *decimal.Decimal `json:"percent_cut,omitempty" validate:"omitempty,gte=0,lte=100"`
	Address    *string          `json:"address,omitempty" validate:"omitempty,max=500"`
	MapsURL    *string          `json:"maps_url,omitempty" validate:"omitempty,url"`
	Notes      *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CompanyFilter represents company list options
type CompanyFilter struct {
	Search   string
	Page     int
	PageSize int
}
