package sheets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/relaylabs/leadrelay/internal/leads"
)

type fakeRowAppender struct {
	mu         sync.Mutex
	rows       [][]interface{}
	ids        []string
	worksheets []string
	count      int64
	err        error
}

func (f *fakeRowAppender) Append(ctx context.Context, spreadsheetID, worksheet string, row []interface{}) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, spreadsheetID)
	f.worksheets = append(f.worksheets, worksheet)
	f.rows = append(f.rows, row)
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

type staticResolver struct {
	handle Handle
	err    error
	ws     string
}

func (r *staticResolver) Resolve(ctx context.Context) (Handle, error) {
	if r.err != nil {
		return Handle{}, r.err
	}
	return r.handle, nil
}

func (r *staticResolver) Worksheet() string { return r.ws }

func fixedClock() time.Time {
	return time.Date(2026, 3, 5, 14, 30, 9, 0, time.UTC)
}

func newTestAppender(api *fakeRowAppender, resolver *staticResolver) *Appender {
	a := NewAppender(api, resolver, time.UTC, nil, nil)
	a.now = fixedClock
	return a
}

func TestAppendRowShape(t *testing.T) {
	api := &fakeRowAppender{count: 1}
	resolver := &staticResolver{handle: Handle{ID: "sheet-1"}, ws: "Leads"}
	a := newTestAppender(api, resolver)

	sub := leads.Submission{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Phone:   "555-123-4567",
		Message: "Interested in pricing",
	}
	res, err := a.Append(context.Background(), sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.SpreadsheetID != "sheet-1" {
		t.Errorf("expected spreadsheet id, got %s", res.SpreadsheetID)
	}
	if res.RowsAppended != 1 {
		t.Errorf("expected affected row count 1, got %d", res.RowsAppended)
	}
	if len(api.rows) != 1 {
		t.Fatalf("expected one append call, got %d", len(api.rows))
	}
	if api.worksheets[0] != "Leads" {
		t.Errorf("expected worksheet Leads, got %s", api.worksheets[0])
	}

	want := []interface{}{"3/5/2026, 2:30:09 PM", "Jane Doe", "jane@example.com", "555-123-4567", "Interested in pricing"}
	row := api.rows[0]
	if len(row) != len(want) {
		t.Fatalf("expected %d columns, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d: expected %v, got %v", i, want[i], row[i])
		}
	}
}

func TestAppendEmptyPhoneRendersBlank(t *testing.T) {
	api := &fakeRowAppender{count: 1}
	resolver := &staticResolver{handle: Handle{ID: "sheet-1"}, ws: "Leads"}
	a := newTestAppender(api, resolver)

	_, err := a.Append(context.Background(), leads.Submission{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Message: "No phone supplied",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := api.rows[0][3]; got != "" {
		t.Errorf("expected blank phone column, got %v", got)
	}
}

func TestAppendWrapsFailure(t *testing.T) {
	api := &fakeRowAppender{err: errors.New("backend write rejected")}
	resolver := &staticResolver{handle: Handle{ID: "sheet-1"}, ws: "Leads"}
	a := newTestAppender(api, resolver)

	_, err := a.Append(context.Background(), leads.Submission{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Message: "hello",
	})
	var aerr *AppendError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *AppendError, got %v", err)
	}
	if aerr.Unwrap() == nil {
		t.Error("expected wrapped cause")
	}
}

func TestAppendResolverFailurePropagates(t *testing.T) {
	api := &fakeRowAppender{}
	cause := &ProvisionError{Op: "create", Err: errors.New("quota exceeded")}
	resolver := &staticResolver{err: cause, ws: "Leads"}
	a := newTestAppender(api, resolver)

	_, err := a.Append(context.Background(), leads.Submission{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Message: "hello",
	})
	var perr *ProvisionError
	if !errors.As(err, &perr) {
		t.Fatalf("expected provisioning error to pass through, got %v", err)
	}
	if len(api.rows) != 0 {
		t.Error("append must not run when provisioning fails")
	}
}
