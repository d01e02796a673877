package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSignedURLTTL is used when the service is built with a zero TTL
const DefaultSignedURLTTL = 60 * time.Second

// Receipt kinds, used as the second path segment of receipt keys
const (
	KindOrders       = "orders"
	KindTransactions = "transactions"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// File is an incoming upload
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ReceiptTarget identifies the row a receipt belongs to. A nil CompanyID
// files it under the independent folder.
type ReceiptTarget struct {
	CompanyID *uuid.UUID
	Kind      string
	EntityID  uuid.UUID
}

// Service provides receipt storage on top of the configured provider
type Service struct {
	provider     Provider
	ttl          time.Duration
	maxSize      int64
	allowedTypes []string
	now          func() time.Time
}

// NewService creates a new upload service
func NewService(provider Provider, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	defaults := DefaultUploadOptions()
	return &Service{
		provider:     provider,
		ttl:          ttl,
		maxSize:      defaults.MaxSize,
		allowedTypes: defaults.AllowedTypes,
		now:          time.Now,
	}
}

// UploadReceipt validates the file and stores it under the receipt key
// company_<id>/<kind>/<entityID>_<unix>_<filename>.
func (s *Service) UploadReceipt(ctx context.Context, file File, target ReceiptTarget) (*UploadResult, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("upload provider not configured")
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(file.ContentType, ";")[0]))
	if !s.isAllowed(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, file.ContentType)
	}
	if file.Size > s.maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, s.maxSize)
	}

	folder, name := ReceiptKey(target, file.Name, s.now())
	return s.provider.Upload(ctx, file.Body, name, &UploadOptions{
		Folder:       folder,
		ContentType:  contentType,
		AllowedTypes: s.allowedTypes,
		MaxSize:      s.maxSize,
	})
}

// Download returns the stored bytes
func (s *Service) Download(ctx context.Context, key string) ([]byte, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("upload provider not configured")
	}
	return s.provider.Download(ctx, key)
}

// SignedURL returns a short-lived read URL for key
func (s *Service) SignedURL(ctx context.Context, key string) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("upload provider not configured")
	}
	return s.provider.SignedURL(ctx, key, s.ttl)
}

// Remove deletes the given keys, ignoring empty ones
func (s *Service) Remove(ctx context.Context, keys ...string) error {
	if s.provider == nil {
		return fmt.Errorf("upload provider not configured")
	}

	filtered := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			filtered = append(filtered, k)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return s.provider.Remove(ctx, filtered)
}

// GetProviderName returns the current provider name
func (s *Service) GetProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.GetProviderName()
}

func (s *Service) isAllowed(contentType string) bool {
	for _, t := range s.allowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// ReceiptKey returns the folder and object name for a receipt upload
func ReceiptKey(target ReceiptTarget, filename string, at time.Time) (string, string) {
	owner := "company_independent"
	if target.CompanyID != nil {
		owner = "company_" + target.CompanyID.String()
	}
	return path.Join(owner, target.Kind), fmt.Sprintf("%s_%d_%s", target.EntityID, at.Unix(), SanitizeFilename(filename))
}

// SanitizeFilename keeps letters, digits, dots, dashes and underscores
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}
