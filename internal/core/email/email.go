package email

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured is returned by every send when no provider is set up
var ErrNotConfigured = errors.New("no email provider configured")

// Attachment is a file sent with a message; providers base64-encode Content
type Attachment struct {
	Filename string
	Content  []byte
}

// Message represents a structured email message
type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Provider defines the interface for email providers
type Provider interface {
	Send(ctx context.Context, msg *Message) error
	GetProviderName() string
}

// Service wraps the email provider
type Service struct {
	provider Provider
}

// NewService creates a new email service with the specified provider.
// A nil provider yields a service whose sends fail with ErrNotConfigured.
func NewService(provider Provider) *Service {
	return &Service{
		provider: provider,
	}
}

// NewProvider picks the provider named by EMAIL_PROVIDER. It returns nil
// when the name is unknown or its API key is missing.
func NewProvider(name, resendAPIKey, brevoAPIKey, fromEmail, fromName string) Provider {
	switch strings.ToLower(name) {
	case "resend":
		if resendAPIKey != "" {
			return NewResendProvider(resendAPIKey, fromEmail, fromName)
		}
	case "brevo":
		if brevoAPIKey != "" {
			return NewBrevoProvider(brevoAPIKey, fromEmail, fromName)
		}
	}
	return nil
}

// Send delivers msg through the configured provider
func (s *Service) Send(ctx context.Context, msg *Message) error {
	if s.provider == nil {
		return ErrNotConfigured
	}
	return s.provider.Send(ctx, msg)
}

// SendTemplate renders the standard layout and sends it
func (s *Service) SendTemplate(ctx context.Context, to, subject string, data TemplateData, attachments ...Attachment) error {
	if s.provider == nil {
		return ErrNotConfigured
	}

	html, err := RenderTemplate(data)
	if err != nil {
		return err
	}

	return s.provider.Send(ctx, &Message{
		To:          to,
		Subject:     subject,
		HTML:        html,
		Attachments: attachments,
	})
}

// Enabled reports whether a provider is configured
func (s *Service) Enabled() bool {
	return s.provider != nil
}

// GetProviderName returns the name of the current provider
func (s *Service) GetProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.GetProviderName()
}
