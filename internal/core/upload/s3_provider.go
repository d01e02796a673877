package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Provider implements file storage on a private AWS S3 bucket
type S3Provider struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucketName string
}

// NewS3Provider creates a new AWS S3 provider
func NewS3Provider(ctx context.Context, accessKeyID, secretAccessKey, region, bucketName string) (*S3Provider, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3ProviderFromConfig(cfg, bucketName), nil
}

// NewS3ProviderFromConfig builds a provider from an existing AWS config
func NewS3ProviderFromConfig(cfg aws.Config, bucketName string, optFns ...func(*s3.Options)) *S3Provider {
	client := s3.NewFromConfig(cfg, optFns...)
	return &S3Provider{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucketName: bucketName,
	}
}

// Upload puts the object at folder/filename
func (p *S3Provider) Upload(ctx context.Context, file io.Reader, filename string, options *UploadOptions) (*UploadResult, error) {
	options = MergeOptions(options)

	key, err := objectKey(options.Folder, filename)
	if err != nil {
		return nil, err
	}

	// Buffer so the SDK gets a seekable body with a known length
	data, err := readAllLimited(file, options.MaxSize)
	if err != nil {
		return nil, err
	}

	contentType := options.ContentType
	if contentType == "" {
		contentType = detectContentType(filename)
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Path:        key,
		FileName:    filename,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// Download fetches the object body
func (p *S3Provider) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object: %w", err)
	}
	return data, nil
}

// SignedURL returns a presigned GetObject URL
func (p *S3Provider) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign S3 object: %w", err)
	}
	return req.URL, nil
}

// Remove deletes the objects in one batch request
func (p *S3Provider) Remove(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	out, err := p.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(p.bucketName),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	if len(out.Errors) > 0 {
		errs := make([]error, 0, len(out.Errors))
		for _, e := range out.Errors {
			errs = append(errs, fmt.Errorf("failed to delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
		return errors.Join(errs...)
	}
	return nil
}

// GetProviderName returns the provider name
func (p *S3Provider) GetProviderName() string {
	return "s3"
}

// readAllLimited reads r fully, failing once it exceeds max bytes
func readAllLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if n > max {
		return nil, ErrFileTooLarge
	}
	return buf.Bytes(), nil
}
