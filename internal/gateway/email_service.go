package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/taskmaster-platform/auth-service/config"
)

// EmailSender dispatches transactional email through the notification
// gateway. Implementations must never receive plaintext passwords.
type EmailSender interface {
	SendRegistrationEmail(ctx context.Context, recipientEmail, token, name string) error
}

var _ EmailSender = (*EmailService)(nil)

// sendEmailRequest is the notification gateway's dispatch payload.
type sendEmailRequest struct {
	RecipientEmail string            `json:"recipientEmail"`
	Subject        string            `json:"subject"`
	EmailType      string            `json:"emailType"`
	TemplateData   emailTemplateData `json:"templateData"`
	ScheduledFor   string            `json:"scheduledFor"`
}

type emailTemplateData struct {
	Name       string `json:"name"`
	VerifyLink string `json:"verifyLink"`
}

// EmailService is the resty client for the notification gateway.
type EmailService struct {
	client     *resty.Client
	logger     *slog.Logger
	gatewayURL string
	subject    string
	emailType  string
}

// NewEmailService builds the gateway client from configuration.
func NewEmailService(cfg *config.Config, logger *slog.Logger) *EmailService {
	client := resty.New().
		SetBaseURL(cfg.Gateway.URL).
		SetTimeout(cfg.Gateway.Timeout).
		SetHeader("x-system-token", cfg.Gateway.SystemToken)
	if cfg.Gateway.InsecureSkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	subject := cfg.Gateway.Email.Subject
	if subject == "" {
		subject = "Welcome to TaskMaster"
	}
	emailType := cfg.Gateway.Email.Type
	if emailType == "" {
		emailType = "registration"
	}

	return &EmailService{
		client:     client,
		logger:     logger,
		gatewayURL: cfg.Gateway.URL,
		subject:    subject,
		emailType:  emailType,
	}
}

// SendRegistrationEmail schedules a verification email carrying the signed
// token as a verify link.
func (s *EmailService) SendRegistrationEmail(ctx context.Context, recipientEmail, token, name string) error {
	l := s.logger.With(slog.String("method", "SendRegistrationEmail"), slog.String("correlation_id", uuid.NewString()))

	body := sendEmailRequest{
		RecipientEmail: recipientEmail,
		Subject:        s.subject,
		EmailType:      s.emailType,
		TemplateData: emailTemplateData{
			Name:       name,
			VerifyLink: fmt.Sprintf("%s/api/auth/verify?token=%s", s.gatewayURL, token),
		},
		ScheduledFor: time.Now().UTC().Format("2006-01-02 15:04:05.000"),
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/api/emails/send")
	if err != nil {
		l.ErrorContext(ctx, "Error scheduling registration email", slog.Any("error", err))
		return fmt.Errorf("notification gateway request failed: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		l.ErrorContext(ctx, "Notification gateway rejected email dispatch", slog.Int("status", resp.StatusCode()))
		return fmt.Errorf("notification gateway returned status %d", resp.StatusCode())
	}

	l.InfoContext(ctx, "Registration email scheduled")
	return nil
}
