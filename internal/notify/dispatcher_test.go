package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/relaylabs/leadrelay/internal/leads"
)

type fakeEmailSender struct {
	calls []EmailMessage
	err   error
}

func (f *fakeEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	f.calls = append(f.calls, msg)
	return f.err
}

func testSubmission() leads.Submission {
	return leads.Submission{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Phone:   "555-123-4567",
		Message: "Interested in a demo",
	}
}

func TestDispatcherNotify_BothChannels(t *testing.T) {
	var webhookHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookHits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	email := &fakeEmailSender{}
	webhook := NewWebhookSender(WebhookConfig{URL: srv.URL}, nil)
	d := NewDispatcher(Config{
		AppName:          "LeadRelay",
		OrganizationName: "Acme Co",
		ToEmail:          "leads@acme.example",
		EmailMethod:      "gmail",
	}, email, webhook, nil, nil)

	d.Notify(context.Background(), testSubmission(), "sheet-123")

	if len(email.calls) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.calls))
	}
	if webhookHits.Load() != 1 {
		t.Fatalf("expected 1 webhook post, got %d", webhookHits.Load())
	}

	msg := email.calls[0]
	if msg.To != "leads@acme.example" {
		t.Errorf("unexpected recipient: %q", msg.To)
	}
	if msg.Subject != "New Lead: Jane Doe" {
		t.Errorf("unexpected subject: %q", msg.Subject)
	}
	for _, want := range []string{"Jane Doe", "jane@example.com", "555-123-4567", "Interested in a demo", "https://docs.google.com/spreadsheets/d/sheet-123"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("expected body to contain %q, got:\n%s", want, msg.Body)
		}
	}
	if msg.HTML == "" {
		t.Error("expected an HTML body")
	}
}

func TestDispatcherNotify_EmailFailureDoesNotStopWebhook(t *testing.T) {
	var webhookHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookHits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	email := &fakeEmailSender{err: errors.New("smtp down")}
	webhook := NewWebhookSender(WebhookConfig{URL: srv.URL}, nil)
	d := NewDispatcher(Config{ToEmail: "leads@acme.example"}, email, webhook, nil, nil)

	d.Notify(context.Background(), testSubmission(), "sheet-123")

	if len(email.calls) != 1 {
		t.Fatalf("expected 1 email attempt, got %d", len(email.calls))
	}
	if webhookHits.Load() != 1 {
		t.Fatalf("expected webhook to still fire, got %d posts", webhookHits.Load())
	}
}

func TestDispatcherNotify_WebhookFailureAbsorbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	webhook := NewWebhookSender(WebhookConfig{URL: srv.URL}, nil)
	d := NewDispatcher(Config{}, nil, webhook, nil, nil)

	// Must return normally despite the 500.
	d.Notify(context.Background(), testSubmission(), "sheet-123")
}

func TestDispatcherNotify_ConsoleOnlyWhenUnconfigured(t *testing.T) {
	d := NewDispatcher(Config{}, nil, NewWebhookSender(WebhookConfig{}, nil), nil, nil)

	// No channels configured: the lead is logged and Notify returns.
	d.Notify(context.Background(), testSubmission(), "sheet-123")
}

func TestDispatcherNotify_SkipsEmailWithoutRecipient(t *testing.T) {
	email := &fakeEmailSender{}
	d := NewDispatcher(Config{ToEmail: ""}, email, NewWebhookSender(WebhookConfig{}, nil), nil, nil)

	d.Notify(context.Background(), testSubmission(), "sheet-123")

	if len(email.calls) != 0 {
		t.Fatalf("expected no email without a recipient, got %d", len(email.calls))
	}
}

func TestLeadEmailText_OmitsMissingPhone(t *testing.T) {
	sub := testSubmission()
	sub.Phone = ""

	body := leadEmailText(sub, "LeadRelay", "")

	if !strings.Contains(body, "Phone: (not provided)") {
		t.Errorf("expected placeholder for missing phone, got:\n%s", body)
	}
	if strings.Contains(body, "Sheet:") {
		t.Errorf("expected no sheet line without a URL, got:\n%s", body)
	}
}

func TestLeadEmailHTML_EscapesContent(t *testing.T) {
	sub := testSubmission()
	sub.Name = `<script>alert("x")</script>`

	html := leadEmailHTML(sub, "LeadRelay", "")

	if strings.Contains(html, "<script>") {
		t.Error("expected submitted content to be escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("expected escaped entities in HTML body")
	}
}

func TestSheetURL(t *testing.T) {
	if got := sheetURL(""); got != "" {
		t.Errorf("expected empty URL for empty id, got %q", got)
	}
	if got := sheetURL("abc123"); got != "https://docs.google.com/spreadsheets/d/abc123" {
		t.Errorf("unexpected sheet URL: %q", got)
	}
}
