package leads

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	req := SubmissionRequest{
		Name:    "  Jane Doe  ",
		Email:   " Jane.Doe@Example.COM ",
		Phone:   " (555) 123-4567 ",
		Message: "  Interested in a quote  ",
	}

	sub := req.Normalize()

	if sub.Name != "Jane Doe" {
		t.Errorf("expected trimmed name, got %q", sub.Name)
	}
	if sub.Email != "jane.doe@example.com" {
		t.Errorf("expected lowercased email, got %q", sub.Email)
	}
	if sub.Phone != "(555) 123-4567" {
		t.Errorf("expected trimmed phone, got %q", sub.Phone)
	}
	if sub.Message != "Interested in a quote" {
		t.Errorf("expected trimmed message, got %q", sub.Message)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first := SubmissionRequest{
		Name:    "  Jane  ",
		Email:   " JANE@EXAMPLE.COM ",
		Phone:   " 555-123-4567 ",
		Message: " hi ",
	}.Normalize()

	second := SubmissionRequest{
		Name:    first.Name,
		Email:   first.Email,
		Phone:   first.Phone,
		Message: first.Message,
	}.Normalize()

	if first != second {
		t.Fatalf("normalization not idempotent: %+v vs %+v", first, second)
	}
}

func TestValidate(t *testing.T) {
	valid := Submission{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Message: "Hello",
	}

	tests := []struct {
		name    string
		mutate  func(s *Submission)
		wantErr string
	}{
		{"valid without phone", func(s *Submission) {}, ""},
		{"valid local phone", func(s *Submission) { s.Phone = "5551234567" }, ""},
		{"valid dashed phone", func(s *Submission) { s.Phone = "555-123-4567" }, ""},
		{"valid dotted phone", func(s *Submission) { s.Phone = "555.123.4567" }, ""},
		{"valid parenthesized phone", func(s *Submission) { s.Phone = "(555) 123-4567" }, ""},
		{"valid international phone", func(s *Submission) { s.Phone = "+1 555 123 4567" }, ""},
		{"name at limit", func(s *Submission) { s.Name = strings.Repeat("a", 100) }, ""},
		{"message at limit", func(s *Submission) { s.Message = strings.Repeat("m", 1000) }, ""},
		{"missing name", func(s *Submission) { s.Name = "" }, "Name is required"},
		{"name too long", func(s *Submission) { s.Name = strings.Repeat("a", 101) }, "Name must be 100 characters or fewer"},
		{"missing email", func(s *Submission) { s.Email = "" }, "Email is required"},
		{"malformed email", func(s *Submission) { s.Email = "not-an-email" }, "A valid email address is required"},
		{"email too long", func(s *Submission) { s.Email = strings.Repeat("a", 250) + "@example.com" }, "A valid email address is required"},
		{"phone too short", func(s *Submission) { s.Phone = "123" }, "Phone number format is invalid"},
		{"phone with letters", func(s *Submission) { s.Phone = "call me maybe" }, "Phone number format is invalid"},
		{"phone too long", func(s *Submission) { s.Phone = "12345678901234567890" }, "Phone number format is invalid"},
		{"missing message", func(s *Submission) { s.Message = "" }, "Message is required"},
		{"message too long", func(s *Submission) { s.Message = strings.Repeat("m", 1001) }, "Message must be 1000 characters or fewer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			tt.mutate(&sub)
			err := sub.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid submission, got %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if !strings.Contains(verr.Message(), tt.wantErr) {
				t.Errorf("expected message containing %q, got %q", tt.wantErr, verr.Message())
			}
		})
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	err := Submission{}.Validate()

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	want := "Name is required, Email is required, Message is required"
	if verr.Message() != want {
		t.Errorf("expected %q, got %q", want, verr.Message())
	}
}
