package sheets

import (
	"context"
	"errors"

	"github.com/relaylabs/leadrelay/pkg/logging"
)

// LookupStatus tags the outcome of a title search.
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupNotFound
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Lookup is the tagged result of a title search. Failed lookups carry their
// cause so callers can log it; the provisioner treats them like not-found
// and falls through to creating a sheet.
type Lookup struct {
	Status LookupStatus
	ID     string
	Err    error
}

// TitleSearcher is the slice of the Drive client the locator needs.
type TitleSearcher interface {
	SearchByTitle(ctx context.Context, title string) (string, error)
}

// Locator finds existing spreadsheets by exact title. It never creates one.
type Locator struct {
	searcher TitleSearcher
	logger   *logging.Logger
}

// NewLocator creates a locator over the given searcher.
func NewLocator(searcher TitleSearcher, logger *logging.Logger) *Locator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Locator{searcher: searcher, logger: logger}
}

// FindByTitle never returns a Go error; search failures are tagged so the
// caller can keep going.
func (l *Locator) FindByTitle(ctx context.Context, title string) Lookup {
	id, err := l.searcher.SearchByTitle(ctx, title)
	switch {
	case err == nil:
		l.logger.Debug("located existing spreadsheet", "title", title, "spreadsheet_id", id)
		return Lookup{Status: LookupFound, ID: id}
	case errors.Is(err, ErrNotFound):
		return Lookup{Status: LookupNotFound}
	default:
		l.logger.Warn("spreadsheet search failed, treating as not found", "title", title, "error", err)
		return Lookup{Status: LookupFailed, Err: err}
	}
}
