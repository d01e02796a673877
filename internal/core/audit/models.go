package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actions recorded in the activity log
const (
	ActionCreate       = "create"
	ActionUpdate       = "update"
	ActionDelete       = "delete"
	ActionStatusChange = "status_change"
	ActionEmailSent    = "email_sent"
	ActionExport       = "export"
)

// Entities recorded in the activity log
const (
	EntityCompany     = "company"
	EntityOrder       = "order"
	EntityTransaction = "transaction"
	EntitySettings    = "settings"
)

// Outcome of the logged action
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Actor identifies who performed an action
type Actor struct {
	ID    string
	Email string
}

// AuditLog represents a system audit log entry
type AuditLog struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`

	ActorID    string `json:"actor_id" gorm:"type:text;index"`
	ActorEmail string `json:"actor_email" gorm:"type:text"`

	// Action details
	Action   string `json:"action" gorm:"type:text;not null;index"`
	Entity   string `json:"entity" gorm:"type:text;not null;index"`
	EntityID string `json:"entity_id" gorm:"type:text;index"`

	// Change tracking
	OldValue datatypes.JSON `json:"old_value,omitempty" gorm:"type:jsonb"`
	NewValue datatypes.JSON `json:"new_value,omitempty" gorm:"type:jsonb"`

	Description string `json:"description" gorm:"type:text"`
	Status      string `json:"status" gorm:"type:text;not null"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName specifies the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate sets UUID and defaults before creating
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusSuccess
	}
	return nil
}

// AuditFilter represents filters for querying audit logs
type AuditFilter struct {
	Search   string // matches action, description and actor email
	Entity   string
	EntityID string
	Page     int
	PageSize int
}

// AuditLogResponse represents paginated audit log response
type AuditLogResponse struct {
	Logs       []AuditLog `json:"items"`
	TotalCount int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}
