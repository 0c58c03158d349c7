package notify

import (
	"context"
	"fmt"
	"html"
	"sync"

	"github.com/relaylabs/leadrelay/internal/leads"
	"github.com/relaylabs/leadrelay/internal/observability/metrics"
	"github.com/relaylabs/leadrelay/pkg/logging"
)

// Config holds dispatcher settings.
type Config struct {
	// AppName signs the notification emails.
	AppName string
	// OrganizationName appears in alert headings.
	OrganizationName string
	// ToEmail receives lead notification emails.
	ToEmail string
	// ToName is the display name for ToEmail.
	ToName string
	// EmailMethod labels the configured email provider in logs and metrics
	// (gmail, sendgrid, ses).
	EmailMethod string
}

// Dispatcher fans a stored lead out to the configured notification channels.
// Delivery is best effort: failures are logged and counted, never returned,
// so a notification outage cannot fail a submission that already reached the
// sheet.
type Dispatcher struct {
	cfg     Config
	email   EmailSender
	webhook *WebhookSender
	metrics *metrics.LeadMetrics
	logger  *logging.Logger
}

// NewDispatcher creates a notification dispatcher. email may be nil and
// webhook may be unconfigured; with neither channel available the lead is
// logged instead.
func NewDispatcher(cfg Config, email EmailSender, webhook *WebhookSender, m *metrics.LeadMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.AppName == "" {
		cfg.AppName = "LeadRelay"
	}
	if cfg.EmailMethod == "" {
		cfg.EmailMethod = "email"
	}
	return &Dispatcher{
		cfg:     cfg,
		email:   email,
		webhook: webhook,
		metrics: m,
		logger:  logger,
	}
}

var _ leads.Notifier = (*Dispatcher)(nil)

// Notify sends the lead to every configured channel concurrently and waits
// for them to finish. It never returns an error.
func (d *Dispatcher) Notify(ctx context.Context, sub leads.Submission, spreadsheetID string) {
	emailReady := d.email != nil && d.cfg.ToEmail != ""
	webhookReady := d.webhook.Configured()

	if !emailReady && !webhookReady {
		d.logger.Info("no notification channels configured, logging lead instead",
			"method", "console-only",
			"lead_name", sub.Name,
			"lead_email", sub.Email,
			"lead_phone", sub.Phone,
		)
		d.metrics.ObserveNotification("console", "logged")
		return
	}

	var wg sync.WaitGroup
	if emailReady {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.sendEmail(ctx, sub, spreadsheetID)
		}()
	}
	if webhookReady {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.sendWebhook(ctx, sub, spreadsheetID)
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) sendEmail(ctx context.Context, sub leads.Submission, spreadsheetID string) {
	msg := EmailMessage{
		To:      d.cfg.ToEmail,
		ToName:  d.cfg.ToName,
		Subject: fmt.Sprintf("New Lead: %s", sub.Name),
		Body:    leadEmailText(sub, d.cfg.AppName, sheetURL(spreadsheetID)),
		HTML:    leadEmailHTML(sub, d.cfg.AppName, sheetURL(spreadsheetID)),
	}

	if err := d.email.Send(ctx, msg); err != nil {
		d.logger.Warn("lead notification email failed",
			"error", err,
			"method", d.cfg.EmailMethod,
			"lead_name", sub.Name,
		)
		d.metrics.ObserveNotification(d.cfg.EmailMethod, "failed")
		return
	}
	d.metrics.ObserveNotification(d.cfg.EmailMethod, "sent")
}

func (d *Dispatcher) sendWebhook(ctx context.Context, sub leads.Submission, spreadsheetID string) {
	alert := LeadAlert{
		Organization: d.cfg.OrganizationName,
		Name:         sub.Name,
		Email:        sub.Email,
		Phone:        sub.Phone,
		Message:      sub.Message,
		SheetURL:     sheetURL(spreadsheetID),
	}

	if err := d.webhook.SendLeadAlert(ctx, alert); err != nil {
		d.logger.Warn("lead notification webhook failed",
			"error", err,
			"method", "webhook",
			"lead_name", sub.Name,
		)
		d.metrics.ObserveNotification("webhook", "failed")
		return
	}
	d.metrics.ObserveNotification("webhook", "sent")
}

func sheetURL(spreadsheetID string) string {
	if spreadsheetID == "" {
		return ""
	}
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID
}

func leadEmailText(sub leads.Submission, appName, url string) string {
	phone := sub.Phone
	if phone == "" {
		phone = "(not provided)"
	}
	body := fmt.Sprintf(`A new lead has come in!

Name: %s
Email: %s
Phone: %s
Message: %s
`, sub.Name, sub.Email, phone, sub.Message)
	if url != "" {
		body += fmt.Sprintf("\nSheet: %s\n", url)
	}
	body += fmt.Sprintf("\n— %s", appName)
	return body
}

func leadEmailHTML(sub leads.Submission, appName, url string) string {
	phone := sub.Phone
	if phone == "" {
		phone = "(not provided)"
	}
	link := ""
	if url != "" {
		link = fmt.Sprintf(`<p><a href="%s">Open the lead sheet</a></p>`, url)
	}
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>New Lead</h2>
<table style="border-collapse: collapse; margin: 20px 0;">
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Name:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Email:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><a href="mailto:%s">%s</a></td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Phone:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>Message:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>
</table>
%s<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— %s</p>
</div>`,
		html.EscapeString(sub.Name),
		html.EscapeString(sub.Email), html.EscapeString(sub.Email),
		html.EscapeString(phone),
		html.EscapeString(sub.Message),
		link, html.EscapeString(appName))
}
