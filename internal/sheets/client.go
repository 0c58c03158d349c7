// Package sheets provisions the per-organization Google Sheet and appends
// lead rows to it. One spreadsheet is resolved per process and reused for
// every submission.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/relaylabs/leadrelay/pkg/logging"
)

// ErrNotFound is returned by SearchByTitle when no matching spreadsheet exists.
var ErrNotFound = errors.New("sheets: spreadsheet not found")

// headerRow is written to freshly provisioned worksheets, in column order.
var headerRow = []string{"Timestamp", "Name", "Email", "Phone", "Message"}

const defaultCallTimeout = 30 * time.Second

// GoogleClient talks to the Sheets and Drive APIs with a shared token source.
type GoogleClient struct {
	sheets  *gsheets.Service
	drive   *drive.Service
	timeout time.Duration
	logger  *logging.Logger
}

// NewGoogleClient builds Sheets and Drive service clients backed by ts.
// timeout bounds each individual API call.
func NewGoogleClient(ctx context.Context, ts oauth2.TokenSource, timeout time.Duration, logger *logging.Logger) (*GoogleClient, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	sheetsSvc, err := gsheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("sheets: creating sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("sheets: creating drive service: %w", err)
	}
	return &GoogleClient{
		sheets:  sheetsSvc,
		drive:   driveSvc,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (c *GoogleClient) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// Create makes a spreadsheet whose first worksheet is named worksheet and
// returns the new spreadsheet id.
func (c *GoogleClient) Create(ctx context.Context, title, worksheet string) (string, error) {
	tctx, cancel := c.callCtx(ctx)
	defer cancel()

	ss := &gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: title},
		Sheets: []*gsheets.Sheet{{
			Properties: &gsheets.SheetProperties{Title: worksheet},
		}},
	}
	resp, err := c.sheets.Spreadsheets.Create(ss).Context(tctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets: create call failed: %w", err)
	}
	return resp.SpreadsheetId, nil
}

// WriteHeader writes the fixed header row into A1:E1 of worksheet.
func (c *GoogleClient) WriteHeader(ctx context.Context, spreadsheetID, worksheet string) error {
	tctx, cancel := c.callCtx(ctx)
	defer cancel()

	row := make([]interface{}, len(headerRow))
	for i, h := range headerRow {
		row[i] = h
	}
	vr := &gsheets.ValueRange{Values: [][]interface{}{row}}
	_, err := c.sheets.Spreadsheets.Values.
		Update(spreadsheetID, fmt.Sprintf("%s!A1:E1", worksheet), vr).
		ValueInputOption("RAW").
		Context(tctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: header write failed: %w", err)
	}
	return nil
}

// Append appends one row after the current table and returns how many rows
// the call affected.
func (c *GoogleClient) Append(ctx context.Context, spreadsheetID, worksheet string, row []interface{}) (int64, error) {
	tctx, cancel := c.callCtx(ctx)
	defer cancel()

	vr := &gsheets.ValueRange{Values: [][]interface{}{row}}
	resp, err := c.sheets.Spreadsheets.Values.
		Append(spreadsheetID, fmt.Sprintf("%s!A:E", worksheet), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(tctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: append call failed: %w", err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return resp.Updates.UpdatedRows, nil
}

// TitleOf fetches the spreadsheet title, verifying the id is reachable with
// the current credentials.
func (c *GoogleClient) TitleOf(ctx context.Context, spreadsheetID string) (string, error) {
	tctx, cancel := c.callCtx(ctx)
	defer cancel()

	resp, err := c.sheets.Spreadsheets.Get(spreadsheetID).
		Fields("properties.title").
		Context(tctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("sheets: spreadsheet lookup failed: %w", err)
	}
	if resp.Properties == nil {
		return "", nil
	}
	return resp.Properties.Title, nil
}

// SearchByTitle finds the most recently modified non-trashed spreadsheet
// with exactly this title.
func (c *GoogleClient) SearchByTitle(ctx context.Context, title string) (string, error) {
	tctx, cancel := c.callCtx(ctx)
	defer cancel()

	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false", escapeQuery(title))
	resp, err := c.drive.Files.List().
		Q(query).
		OrderBy("modifiedTime desc").
		PageSize(1).
		Fields("files(id, name)").
		Context(tctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("sheets: drive search failed: %w", err)
	}
	if len(resp.Files) == 0 {
		return "", ErrNotFound
	}
	return resp.Files[0].Id, nil
}

// escapeQuery escapes backslashes and single quotes for a Drive query literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
