package leads

import (
	"errors"
	"strings"
)

// ErrSheetsNotConfigured is returned when no spreadsheet backend is wired,
// which means the Google credential triple is absent. It is a configuration
// problem, not a transient failure.
var ErrSheetsNotConfigured = errors.New("leads: google sheets backend is not configured")

// ValidationError reports the rejected fields of a single submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "leads: validation failed: " + strings.Join(e.Fields, ", ")
}

// Message returns the user-facing joined field list.
func (e *ValidationError) Message() string {
	return strings.Join(e.Fields, ", ")
}
