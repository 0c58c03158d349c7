package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/relaylabs/leadrelay/pkg/logging"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookConfig holds configuration for the chat webhook sender.
type WebhookConfig struct {
	// URL is the incoming-webhook endpoint (Slack-compatible). Empty means
	// the sender is disabled.
	URL string
	// Timeout for webhook requests. Defaults to 10 seconds.
	Timeout time.Duration
	// HTTPClient allows injecting a custom client, mainly for tests.
	HTTPClient *http.Client
	// UserAgent overrides the User-Agent header.
	UserAgent string
}

// WebhookSender posts lead alerts to a Slack-compatible incoming webhook.
type WebhookSender struct {
	url        string
	httpClient *http.Client
	userAgent  string
	logger     *logging.Logger
}

// NewWebhookSender creates a webhook sender from config, applying defaults.
func NewWebhookSender(cfg WebhookConfig, logger *logging.Logger) *WebhookSender {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "leadrelay/1.0"
	}
	return &WebhookSender{
		url:        cfg.URL,
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Configured reports whether a webhook URL is set.
func (s *WebhookSender) Configured() bool {
	return s != nil && s.url != ""
}

// LeadAlert is the chat notification for a captured lead.
type LeadAlert struct {
	Organization string
	Name         string
	Email        string
	Phone        string
	Message      string
	SheetURL     string
}

// block is the subset of the Slack Block Kit layout the alert uses.
type block struct {
	Type   string      `json:"type"`
	Text   *blockText  `json:"text,omitempty"`
	Fields []blockText `json:"fields,omitempty"`
}

type blockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type webhookPayload struct {
	Text   string  `json:"text"`
	Blocks []block `json:"blocks,omitempty"`
}

// SendLeadAlert posts the alert to the configured webhook. A non-2xx response
// is returned as an error.
func (s *WebhookSender) SendLeadAlert(ctx context.Context, alert LeadAlert) error {
	if !s.Configured() {
		return fmt.Errorf("notify: webhook sender not configured")
	}

	body, err := json.Marshal(buildWebhookPayload(alert))
	if err != nil {
		return fmt.Errorf("notify: encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("webhook post failed", "error", err)
		return fmt.Errorf("notify: posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Error("webhook returned error status", "status", resp.StatusCode, "body", string(respBody))
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}

	s.logger.Info("lead alert posted to webhook", "lead_name", alert.Name)
	return nil
}

func buildWebhookPayload(alert LeadAlert) webhookPayload {
	fields := []blockText{
		{Type: "mrkdwn", Text: fmt.Sprintf("*Name:*\n%s", alert.Name)},
		{Type: "mrkdwn", Text: fmt.Sprintf("*Email:*\n%s", alert.Email)},
	}
	if alert.Phone != "" {
		fields = append(fields, blockText{Type: "mrkdwn", Text: fmt.Sprintf("*Phone:*\n%s", alert.Phone)})
	}

	blocks := []block{
		{
			Type: "header",
			Text: &blockText{Type: "plain_text", Text: fmt.Sprintf("New lead for %s", alert.Organization)},
		},
		{Type: "section", Fields: fields},
		{
			Type: "section",
			Text: &blockText{Type: "mrkdwn", Text: fmt.Sprintf("*Message:*\n%s", alert.Message)},
		},
	}
	if alert.SheetURL != "" {
		blocks = append(blocks, block{
			Type: "section",
			Text: &blockText{Type: "mrkdwn", Text: fmt.Sprintf("<%s|Open the lead sheet>", alert.SheetURL)},
		})
	}

	return webhookPayload{
		Text:   fmt.Sprintf("New lead: %s (%s)", alert.Name, alert.Email),
		Blocks: blocks,
	}
}
