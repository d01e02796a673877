package notification

import (
	"context"
	"fmt"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/email"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

// EmailService is the part of the email service used for alerts
type EmailService interface {
	SendTemplate(ctx context.Context, to, subject string, data email.TemplateData, attachments ...email.Attachment) error
	Enabled() bool
}

// Alert is an operational notification for back-office staff
type Alert struct {
	Subject string
	Title   string
	Message string
	Rows    []email.Row
}

// Service delivers alerts by email
type Service struct {
	emailService EmailService
}

// NewService creates a new notification service
func NewService(emailSvc EmailService) *Service {
	return &Service{emailService: emailSvc}
}

// SendAlert emails alert to recipient
func (s *Service) SendAlert(ctx context.Context, recipient string, alert Alert) error {
	if recipient == "" {
		return fmt.Errorf("no alert recipient configured")
	}
	if s.emailService == nil || !s.emailService.Enabled() {
		return email.ErrNotConfigured
	}

	err := s.emailService.SendTemplate(ctx, recipient, alert.Subject, email.TemplateData{
		Title:   alert.Title,
		Message: alert.Message,
		Rows:    alert.Rows,
	})
	if err != nil {
		utils.LogError("Failed to send alert", err, map[string]interface{}{
			"subject": alert.Subject,
			"to":      recipient,
		})
		return err
	}

	utils.LogInfo("Alert sent", map[string]interface{}{
		"subject": alert.Subject,
		"to":      recipient,
	})
	return nil
}
