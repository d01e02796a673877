package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/auth"
)

// SignedPath is the route that serves files behind LocalProvider signed URLs
const SignedPath = "/files/signed"

// LocalProvider implements file storage on the local filesystem. Signed URLs
// are short-lived HS256 tokens naming the file key.
type LocalProvider struct {
	basePath string // Base directory for uploads
	baseURL  string // Public base URL of this service
	secret   []byte // Token signing key
}

// NewLocalProvider creates a new local file storage provider
func NewLocalProvider(basePath, baseURL, secret string) (*LocalProvider, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalProvider{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		secret:   []byte(secret),
	}, nil
}

// Upload writes the file under basePath/folder/filename
func (p *LocalProvider) Upload(ctx context.Context, file io.Reader, filename string, options *UploadOptions) (*UploadResult, error) {
	options = MergeOptions(options)

	key, err := objectKey(options.Folder, filename)
	if err != nil {
		return nil, err
	}
	filePath := filepath.Join(p.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	out, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	var reader io.Reader = file
	if options.MaxSize > 0 {
		reader = io.LimitReader(file, options.MaxSize+1)
	}

	size, err := io.Copy(out, reader)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if options.MaxSize > 0 && size > options.MaxSize {
		os.Remove(filePath)
		return nil, ErrFileTooLarge
	}

	contentType := options.ContentType
	if contentType == "" {
		contentType = detectContentType(filename)
	}

	return &UploadResult{
		Path:        key,
		FileName:    filename,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// Download reads a stored file
func (p *LocalProvider) Download(ctx context.Context, key string) ([]byte, error) {
	filePath, err := p.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// SignedURL returns baseURL/files/signed?token=... valid for ttl
func (p *LocalProvider) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if _, err := p.resolve(key); err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   key,
		Audience:  jwt.ClaimStrings{auth.FileAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign file token: %w", err)
	}

	return p.baseURL + SignedPath + "?token=" + url.QueryEscape(token), nil
}

// VerifyToken checks a signed-URL token and returns the file key it grants
func (p *LocalProvider) VerifyToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithAudience(auth.FileAudience))
	if err != nil {
		return "", fmt.Errorf("failed to parse file token: %w", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid file token")
	}
	return claims.Subject, nil
}

// Remove deletes files; keys that are already gone are skipped
func (p *LocalProvider) Remove(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		filePath, err := p.resolve(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// GetProviderName returns the provider name
func (p *LocalProvider) GetProviderName() string {
	return "local"
}

func (p *LocalProvider) resolve(key string) (string, error) {
	clean, err := objectKey("", key)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.basePath, filepath.FromSlash(clean)), nil
}

// ContentTypeOf returns the MIME type served for a stored key
func ContentTypeOf(key string) string {
	return detectContentType(key)
}
