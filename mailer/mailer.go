// Package mailer sends transactional account email through Resend. Dispatch
// outcomes are reported as data so a mail outage never fails the operation
// that triggered the send.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"net/http"

	"github.com/gofiber/template/django/v3"
	hireqa "github.com/ms-hireqa/hireqa-backend"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config holds the outbound mail settings.
type Config struct {
	APIKey      string
	FromEmail   string
	FrontendURL string
	AppName     string
	DevMode     bool
}

// Service is the resend-backed EmailDispatcher.
type Service struct {
	client *resend.Client
	engine *django.Engine
	cfg    Config
	logger hireqa.Logger
}

// New builds the mail service. In dev mode, or without an API key, no
// client is created and sends are logged instead.
func New(cfg Config, logger hireqa.Logger) (*Service, error) {
	if logger == nil {
		logger = hireqa.NewDefaultLogger()
	}

	if cfg.AppName == "" {
		cfg.AppName = "HireQA"
	}

	engine := django.NewFileSystem(http.FS(templateFS), ".html")
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("mailer: failed to load templates: %w", err)
	}

	var client *resend.Client
	if cfg.APIKey != "" && !cfg.DevMode {
		client = resend.NewClient(cfg.APIKey)
	}

	return &Service{
		client: client,
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// SendVerificationEmail emails the verification link for the given token.
func (s *Service) SendVerificationEmail(ctx context.Context, recipient, firstName, token string) hireqa.Delivery {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.FrontendURL, token)
	subject := fmt.Sprintf("Verify your %s account", s.cfg.AppName)

	html, err := s.renderVerification(firstName, verifyURL)
	if err != nil {
		// plain text below still carries the link
		s.logger.Warn("verification template render failed: %v", err)
	}
	text := fmt.Sprintf(
		"Hi %s,\n\nWelcome to %s. Confirm your email address by opening the link below:\n\n%s\n\nThe link expires in 24 hours. If you did not sign up, ignore this message.\n",
		firstName, s.cfg.AppName, verifyURL,
	)

	if s.cfg.DevMode {
		s.logger.Info("email sent (dev mode) to=%s subject=%q url=%s", recipient, subject, verifyURL)
		return hireqa.Delivery{Delivered: true, Detail: "dev mode: email logged, not sent"}
	}

	if s.client == nil {
		s.logger.Warn("email service not configured, skipping send to %s", recipient)
		return hireqa.Delivery{Delivered: false, Detail: "email service not configured"}
	}

	params := &resend.SendEmailRequest{
		From:    s.cfg.FromEmail,
		To:      []string{recipient},
		Subject: subject,
		Html:    html,
		Text:    text,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		s.logger.Warn("verification email send failed for %s: %v", recipient, err)
		return hireqa.Delivery{Delivered: false, Detail: "verification email could not be sent"}
	}

	s.logger.Info("verification email sent to %s", recipient)
	return hireqa.Delivery{Delivered: true}
}

func (s *Service) renderVerification(firstName, verifyURL string) (string, error) {
	var buf bytes.Buffer
	err := s.engine.Render(&buf, "templates/verification", map[string]any{
		"first_name": firstName,
		"app_name":   s.cfg.AppName,
		"verify_url": verifyURL,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

var _ hireqa.EmailDispatcher = (*Service)(nil)
