package leads

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength    = 100
	maxEmailLength   = 254
	maxMessageLength = 1000
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	// Matched against the phone with whitespace stripped: optional +,
	// optional parens around the first digit group, then 3-3-4..6 digits.
	phonePattern      = regexp.MustCompile(`^\+?\(?[0-9]{3}\)?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SubmissionRequest is the inbound JSON body for POST /api/submit-lead.
// Honeypot carries the hidden form field real visitors never fill in.
type SubmissionRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
	Honeypot string `json:"_honeypot"`
}

// Submission is a normalized lead ready for the spreadsheet.
type Submission struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// AppendResult reports where a stored lead landed.
type AppendResult struct {
	SpreadsheetID string
	RowsAppended  int64
}

// Result is the outcome handed back to the HTTP layer on success.
type Result struct {
	Message   string
	RowNumber *int64
}

// Normalize trims surrounding whitespace and lowercases the email.
// Normalizing an already-normalized submission is a no-op.
func (r SubmissionRequest) Normalize() Submission {
	return Submission{
		Name:    strings.TrimSpace(r.Name),
		Email:   strings.ToLower(strings.TrimSpace(r.Email)),
		Phone:   strings.TrimSpace(r.Phone),
		Message: strings.TrimSpace(r.Message),
	}
}

// Validate checks a normalized submission and collects every field failure
// so the caller sees all problems in one response.
func (s Submission) Validate() error {
	var fields []string

	if s.Name == "" {
		fields = append(fields, "Name is required")
	} else if utf8.RuneCountInString(s.Name) > maxNameLength {
		fields = append(fields, "Name must be 100 characters or fewer")
	}

	switch {
	case s.Email == "":
		fields = append(fields, "Email is required")
	case len(s.Email) > maxEmailLength || !emailPattern.MatchString(s.Email):
		fields = append(fields, "A valid email address is required")
	}

	if s.Phone != "" {
		stripped := whitespacePattern.ReplaceAllString(s.Phone, "")
		if !phonePattern.MatchString(stripped) {
			fields = append(fields, "Phone number format is invalid")
		}
	}

	if s.Message == "" {
		fields = append(fields, "Message is required")
	} else if utf8.RuneCountInString(s.Message) > maxMessageLength {
		fields = append(fields, "Message must be 1000 characters or fewer")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
