package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/email"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/upload"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
)

// FileStore is the part of upload.Service the ledger uses for receipts
type FileStore interface {
	UploadReceipt(ctx context.Context, file upload.File, target upload.ReceiptTarget) (*upload.UploadResult, error)
	Download(ctx context.Context, key string) ([]byte, error)
	SignedURL(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, keys ...string) error
}

// Mailer is the part of email.Service used for order emails
type Mailer interface {
	SendTemplate(ctx context.Context, to, subject string, data email.TemplateData, attachments ...email.Attachment) error
	Enabled() bool
}

// storeError maps a repository error to not-found or dependency.
func storeError(op, entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(op, entity)
	}
	return apperror.Dependency(op, "database error", err)
}

// uploadError maps an upload failure to validation or dependency.
func uploadError(op string, err error) error {
	switch {
	case errors.Is(err, upload.ErrFileTypeNotAllowed),
		errors.Is(err, upload.ErrFileTooLarge),
		errors.Is(err, upload.ErrInvalidPath):
		return apperror.Validation(op, err.Error(), err)
	default:
		return apperror.Dependency(op, "file store error", err)
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
