package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/relaylabs/leadrelay/pkg/logging"
)

// GmailSender sends emails through the Gmail API on behalf of the
// authenticated Google account.
type GmailSender struct {
	svc       *gmail.Service
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// GmailConfig holds configuration for the Gmail sender.
type GmailConfig struct {
	// FromEmail is optional. When empty Gmail fills in the address of the
	// authenticated account.
	FromEmail string
	FromName  string
}

// NewGmailSender creates a Gmail email sender backed by the given token
// source.
func NewGmailSender(ctx context.Context, ts oauth2.TokenSource, cfg GmailConfig, logger *logging.Logger) (*GmailSender, error) {
	if ts == nil {
		return nil, fmt.Errorf("notify: gmail sender requires a token source")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "LeadRelay"
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("notify: creating gmail service: %w", err)
	}

	return &GmailSender{
		svc:       svc,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}, nil
}

// Send sends an email via the Gmail API. The message is built as RFC 2822
// text and submitted base64url-encoded, as the API requires.
func (s *GmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.svc == nil {
		return fmt.Errorf("notify: gmail client not configured")
	}

	raw := buildRFC2822(s.fromEmail, s.fromName, msg)
	req := &gmail.Message{Raw: base64.URLEncoding.EncodeToString([]byte(raw))}

	out, err := s.svc.Users.Messages.Send("me", req).Context(ctx).Do()
	if err != nil {
		s.logger.Error("gmail send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: gmail send failed: %w", err)
	}

	s.logger.Info("email sent via gmail", "to", msg.To, "subject", msg.Subject, "message_id", out.Id)
	return nil
}

// buildRFC2822 assembles the raw message. The From header is omitted when no
// address is configured so Gmail substitutes the authenticated sender.
func buildRFC2822(fromEmail, fromName string, msg EmailMessage) string {
	var b strings.Builder

	if fromEmail != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", fromName), fromEmail)
	}
	if msg.ToName != "" {
		fmt.Fprintf(&b, "To: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", msg.ToName), msg.To)
	} else {
		fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTML != "" {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.HTML)
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.Body)
	}

	return b.String()
}

// Ensure interface compliance
var _ EmailSender = (*GmailSender)(nil)
