// Package mail sends transactional email through Resend.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/frontdesk/internal/config"
)

// Message is one outbound email.
type Message struct {
	To       []string
	Subject  string
	HTML     string
	Text     string
	Template string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns a Resend backed mailer, or a logging mailer when no API key is set.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.APIKey == "" {
		logger.Warn("MAIL_API_KEY not provided; emails will only be logged")
		return &logMailer{logger: logger}
	}
	return &resendMailer{client: resend.NewClient(cfg.APIKey), from: cfg.From}
}

type resendMailer struct {
	client *resend.Client
	from   string
}

func (m *resendMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.Template != "" {
		req.Tags = []resend.Tag{{Name: "template", Value: msg.Template}}
	}
	if _, err := m.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend send %q: %w", msg.Template, err)
	}
	return nil
}

type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email suppressed",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.Template),
	)
	return nil
}
