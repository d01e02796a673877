package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

// Service provides audit logging functionality
type Service struct {
	db *gorm.DB
}

// NewService creates a new audit service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Log creates a new audit log entry
func (s *Service) Log(ctx context.Context, entry *AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// Entry describes one activity-log record
type Entry struct {
	Action      string
	Entity      string
	EntityID    string
	Description string
	OldValue    interface{}
	NewValue    interface{}
	Failed      bool
}

// Record writes an entry for actor. The business write it describes has
// already happened, so failures are logged rather than returned.
func (s *Service) Record(ctx context.Context, actor Actor, e Entry) {
	oldJSON, err := toJSON(e.OldValue)
	if err != nil {
		utils.LogWarn("Failed to serialize audit old value", map[string]interface{}{"error": err.Error()})
	}
	newJSON, err := toJSON(e.NewValue)
	if err != nil {
		utils.LogWarn("Failed to serialize audit new value", map[string]interface{}{"error": err.Error()})
	}

	status := StatusSuccess
	if e.Failed {
		status = StatusError
	}

	if err := s.Log(ctx, &AuditLog{
		ActorID:     actor.ID,
		ActorEmail:  actor.Email,
		Action:      e.Action,
		Entity:      e.Entity,
		EntityID:    e.EntityID,
		OldValue:    oldJSON,
		NewValue:    newJSON,
		Description: e.Description,
		Status:      status,
	}); err != nil {
		utils.LogError("Failed to write audit log", err, map[string]interface{}{
			"action": e.Action,
			"entity": e.Entity,
			"id":     e.EntityID,
		})
	}
}

// GetLogs retrieves audit logs newest first
func (s *Service) GetLogs(ctx context.Context, filter AuditFilter) (*AuditLogResponse, error) {
	query := s.db.WithContext(ctx).Model(&AuditLog{})

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(action) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ? OR LOWER(COALESCE(actor_email, '')) LIKE ?",
			pattern, pattern, pattern)
	}
	if filter.Entity != "" {
		query = query.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}

	offset := (filter.Page - 1) * filter.PageSize

	logs := []AuditLog{}
	if err := query.
		Order("created_at DESC").Order("id").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %w", err)
	}

	totalPages := int(totalCount) / filter.PageSize
	if int(totalCount)%filter.PageSize > 0 {
		totalPages++
	}

	return &AuditLogResponse{
		Logs:       logs,
		TotalCount: totalCount,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Helper function to convert value to JSON
func toJSON(value interface{}) (datatypes.JSON, error) {
	if value == nil {
		return nil, nil
	}

	bytes, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	return datatypes.JSON(bytes), nil
}
