package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/relaylabs/leadrelay/internal/leads"
	"github.com/relaylabs/leadrelay/internal/observability/metrics"
	"github.com/relaylabs/leadrelay/pkg/logging"
)

// AppendError wraps a failed row append.
type AppendError struct {
	Err error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("sheets: appending lead row: %v", e.Err)
}

func (e *AppendError) Unwrap() error { return e.Err }

// timestampLayout renders like an en-US locale string, matching the format
// the sheet's Timestamp column was built around.
const timestampLayout = "1/2/2006, 3:04:05 PM"

// RowAppender is the slice of the Sheets client the appender uses.
type RowAppender interface {
	Append(ctx context.Context, spreadsheetID, worksheet string, row []interface{}) (int64, error)
}

// Resolver yields the target spreadsheet handle.
type Resolver interface {
	Resolve(ctx context.Context) (Handle, error)
	Worksheet() string
}

// Appender writes lead rows into the provisioned spreadsheet.
type Appender struct {
	api      RowAppender
	resolver Resolver
	metrics  *metrics.LeadMetrics
	logger   *logging.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewAppender creates an appender stamping rows with wall-clock time in loc.
func NewAppender(api RowAppender, resolver Resolver, loc *time.Location, m *metrics.LeadMetrics, logger *logging.Logger) *Appender {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Appender{
		api:      api,
		resolver: resolver,
		metrics:  m,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
}

var _ leads.Appender = (*Appender)(nil)

// Append resolves the spreadsheet and appends one row. RowsAppended is the
// number of rows the call touched, not a position in the sheet.
func (a *Appender) Append(ctx context.Context, sub leads.Submission) (leads.AppendResult, error) {
	handle, err := a.resolver.Resolve(ctx)
	if err != nil {
		return leads.AppendResult{}, err
	}

	row := []interface{}{
		a.now().In(a.loc).Format(timestampLayout),
		sub.Name,
		sub.Email,
		sub.Phone,
		sub.Message,
	}

	start := time.Now()
	rows, err := a.api.Append(ctx, handle.ID, a.resolver.Worksheet(), row)
	if err != nil {
		a.metrics.ObserveAppendLatency("error", time.Since(start).Seconds())
		return leads.AppendResult{}, &AppendError{Err: err}
	}
	a.metrics.ObserveAppendLatency("ok", time.Since(start).Seconds())
	a.logger.Debug("lead row appended", "spreadsheet_id", handle.ID, "rows", rows)

	return leads.AppendResult{SpreadsheetID: handle.ID, RowsAppended: rows}, nil
}
