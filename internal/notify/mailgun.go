package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

const mailSendTimeout = 30 * time.Second

// MailSender delivers a plain-text email to the clinic inbox.
type MailSender interface {
	SendMail(ctx context.Context, subject, text string) (string, error)
}

// MailgunSender sends staff email through the Mailgun API.
type MailgunSender struct {
	client *mailgun.MailgunImpl
	from   string
	to     []string
}

// MailgunConfig holds the Mailgun account and addressing.
type MailgunConfig struct {
	Domain  string
	APIKey  string
	APIBase string
	From    string
	To      []string
}

// NewMailgunSender returns nil when Mailgun is not configured.
func NewMailgunSender(cfg MailgunConfig) *MailgunSender {
	if cfg.Domain == "" || cfg.APIKey == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil
	}
	client := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if base := strings.TrimSpace(cfg.APIBase); base != "" {
		client.SetAPIBase(base)
	}
	return &MailgunSender{client: client, from: cfg.From, to: cfg.To}
}

func (s *MailgunSender) SendMail(ctx context.Context, subject, text string) (string, error) {
	if s == nil {
		return "", errors.New("mailgun is not configured")
	}
	message := s.client.NewMessage(s.from, subject, text, s.to...)

	sendCtx, cancel := context.WithTimeout(ctx, mailSendTimeout)
	defer cancel()

	_, messageID, err := s.client.Send(sendCtx, message)
	if err != nil {
		return "", fmt.Errorf("mailgun send: %w", err)
	}
	return messageID, nil
}
