// Package mailer delivers submission summaries through the Mailgun
// messages API.
package mailer

import (
	"context"
	"os"

	"github.com/mailgun/mailgun-go/v4"
	"go.uber.org/zap"

	"github.com/formworks/intake-api/internal/models"
	"github.com/formworks/intake-api/pkg/config"
)

// Message is one outbound notification. From and To are fixed by
// configuration; everything else comes from the submission.
type Message struct {
	Subject     string
	Text        string
	HTML        string
	ReplyTo     string
	CC          []string
	Attachments []models.Attachment
}

// Mailgun sends messages through a configured Mailgun domain. Each send is
// bounded by a timeout so a stalled provider call cannot hold a request
// open indefinitely.
type Mailgun struct {
	client *mailgun.MailgunImpl
	cfg    config.MailConfig
	logger *zap.Logger
}

func NewMailgun(cfg config.MailConfig, logger *zap.Logger) *Mailgun {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailgun{
		client: mailgun.NewMailgun(cfg.Domain, cfg.APIKey),
		cfg:    cfg,
		logger: logger,
	}
}

// Send transmits one message. Attachments that can no longer be opened on
// disk are logged and skipped rather than failing the whole delivery.
func (m *Mailgun) Send(ctx context.Context, msg *Message) error {
	message := m.client.NewMessage(m.cfg.From, msg.Subject, msg.Text, m.cfg.Recipient)
	message.SetHtml(msg.HTML)
	if msg.ReplyTo != "" {
		message.SetReplyTo(msg.ReplyTo)
	}
	for _, cc := range msg.CC {
		message.AddCC(cc)
	}
	for _, attachment := range msg.Attachments {
		file, err := os.Open(attachment.Path)
		if err != nil {
			m.logger.Warn("skipping unreadable attachment",
				zap.String("filename", attachment.Filename),
				zap.Error(err))
			continue
		}
		message.AddReaderAttachment(attachment.Filename, file)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.SendTimeout)
	defer cancel()

	resp, id, err := m.client.Send(ctx, message)
	if err != nil {
		return err
	}
	m.logger.Info("email sent", zap.String("message_id", id), zap.String("response", resp))
	return nil
}
