package upload

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Download when the stored object does not exist
	ErrNotFound = errors.New("file not found")
	// ErrFileTypeNotAllowed is returned for uploads outside the allowed MIME types
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	// ErrFileTooLarge is returned for uploads above the size limit
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrInvalidPath is returned for keys that escape the storage root
	ErrInvalidPath = errors.New("invalid file path")
)

// UploadResult represents the result of a file upload
type UploadResult struct {
	Path        string `json:"path"`         // Provider key, stored on the owning row
	FileName    string `json:"file_name"`    // Original filename
	Size        int64  `json:"size"`         // File size in bytes
	ContentType string `json:"content_type"` // MIME type
}

// UploadOptions represents upload configuration options
type UploadOptions struct {
	Folder       string   `json:"folder"`        // Folder/prefix to upload to
	ContentType  string   `json:"content_type"`  // Stored MIME type
	AllowedTypes []string `json:"allowed_types"` // Allowed MIME types
	MaxSize      int64    `json:"max_size"`      // Max file size in bytes
}

// Provider defines the interface for file storage providers
type Provider interface {
	// Upload stores the file under folder/filename and returns its key
	Upload(ctx context.Context, file io.Reader, filename string, options *UploadOptions) (*UploadResult, error)

	// Download returns the stored bytes
	Download(ctx context.Context, path string) ([]byte, error)

	// SignedURL returns a URL that grants read access until ttl elapses
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)

	// Remove deletes the given keys; missing keys are not an error
	Remove(ctx context.Context, paths []string) error

	// GetProviderName returns the provider name
	GetProviderName() string
}

// ReceiptTypes are the MIME types accepted for receipts
var ReceiptTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/webp",
	"application/pdf",
}

// DefaultUploadOptions returns default upload options
func DefaultUploadOptions() *UploadOptions {
	return &UploadOptions{
		Folder:       "uploads",
		AllowedTypes: ReceiptTypes,
		MaxSize:      10 * 1024 * 1024, // 10MB
	}
}

// MergeOptions merges custom options with defaults
func MergeOptions(custom *UploadOptions) *UploadOptions {
	defaults := DefaultUploadOptions()

	if custom == nil {
		return defaults
	}

	if custom.Folder != "" {
		defaults.Folder = custom.Folder
	}
	if custom.ContentType != "" {
		defaults.ContentType = custom.ContentType
	}
	if len(custom.AllowedTypes) > 0 {
		defaults.AllowedTypes = custom.AllowedTypes
	}
	if custom.MaxSize > 0 {
		defaults.MaxSize = custom.MaxSize
	}

	return defaults
}

// objectKey joins folder and filename with forward slashes and rejects keys
// that would leave the storage root.
func objectKey(folder, filename string) (string, error) {
	key := path.Clean(strings.ReplaceAll(path.Join(folder, filename), "\\", "/"))
	if key == "." || strings.HasPrefix(key, "../") || key == ".." || strings.HasPrefix(key, "/") {
		return "", ErrInvalidPath
	}
	return key, nil
}

// detectContentType detects the content type based on file extension
func detectContentType(filename string) string {
	contentTypes := map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".pdf":  "application/pdf",
		".csv":  "text/csv",
		".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}

	if contentType, ok := contentTypes[strings.ToLower(path.Ext(filename))]; ok {
		return contentType
	}
	return "application/octet-stream"
}
