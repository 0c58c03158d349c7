package sheets

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/relaylabs/leadrelay/internal/observability/metrics"
	"github.com/relaylabs/leadrelay/pkg/logging"
)

// ProvisionError wraps a failure while resolving or creating the spreadsheet.
type ProvisionError struct {
	Op  string
	Err error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("sheets: provisioning failed during %s: %v", e.Op, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// Handle identifies the resolved spreadsheet.
type Handle struct {
	ID    string
	Title string
}

// SpreadsheetAPI is the slice of the Sheets client the provisioner uses.
type SpreadsheetAPI interface {
	Create(ctx context.Context, title, worksheet string) (string, error)
	WriteHeader(ctx context.Context, spreadsheetID, worksheet string) error
	TitleOf(ctx context.Context, spreadsheetID string) (string, error)
}

// Finder locates an existing spreadsheet by title.
type Finder interface {
	FindByTitle(ctx context.Context, title string) Lookup
}

// ProvisionerConfig carries the static inputs of the resolution cascade.
type ProvisionerConfig struct {
	Title      string // canonical per-organization spreadsheet title
	Worksheet  string
	OverrideID string // explicit spreadsheet id; skips the title search when usable
}

// Provisioner resolves the target spreadsheet once and caches the handle for
// the process lifetime. Resolution order: cache, configured override, stored
// id from a previous run, title search, create with header row.
type Provisioner struct {
	cfg     ProvisionerConfig
	api     SpreadsheetAPI
	finder  Finder
	store   HandleStore // optional; nil disables persistence
	metrics *metrics.LeadMetrics
	logger  *logging.Logger

	handle atomic.Pointer[Handle]
	flight singleflight.Group
}

// NewProvisioner creates a provisioner. store may be nil.
func NewProvisioner(cfg ProvisionerConfig, api SpreadsheetAPI, finder Finder, store HandleStore, m *metrics.LeadMetrics, logger *logging.Logger) *Provisioner {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Worksheet == "" {
		cfg.Worksheet = "Leads"
	}
	return &Provisioner{
		cfg:     cfg,
		api:     api,
		finder:  finder,
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// Worksheet returns the tab rows are appended to.
func (p *Provisioner) Worksheet() string { return p.cfg.Worksheet }

// Resolve returns the cached handle or runs the resolution cascade.
// Concurrent first calls share one in-flight cascade, so at most one
// spreadsheet is ever created. A failed cascade leaves no cache entry; the
// next call retries from the top.
func (p *Provisioner) Resolve(ctx context.Context) (Handle, error) {
	if h := p.handle.Load(); h != nil {
		return *h, nil
	}
	v, err, _ := p.flight.Do("resolve", func() (interface{}, error) {
		if h := p.handle.Load(); h != nil {
			return *h, nil
		}
		h, err := p.resolve(ctx)
		if err != nil {
			return Handle{}, err
		}
		p.handle.Store(&h)
		return h, nil
	})
	if err != nil {
		return Handle{}, err
	}
	return v.(Handle), nil
}

func (p *Provisioner) resolve(ctx context.Context) (Handle, error) {
	if p.cfg.OverrideID != "" {
		h, err := p.verify(ctx, p.cfg.OverrideID)
		if err == nil {
			p.metrics.ObserveProvision("override")
			p.logger.Info("using configured spreadsheet", "spreadsheet_id", h.ID, "title", h.Title)
			return h, nil
		}
		p.logger.Warn("configured spreadsheet id is not usable, falling back to search",
			"spreadsheet_id", p.cfg.OverrideID, "error", err)
	}

	if p.store != nil {
		if id, err := p.store.Load(ctx); err != nil {
			p.logger.Warn("handle store read failed", "error", err)
		} else if id != "" {
			h, err := p.verify(ctx, id)
			if err == nil {
				p.metrics.ObserveProvision("stored")
				p.logger.Info("reusing stored spreadsheet", "spreadsheet_id", h.ID, "title", h.Title)
				return h, nil
			}
			p.logger.Warn("stored spreadsheet id is not usable, falling back to search",
				"spreadsheet_id", id, "error", err)
		}
	}

	lookup := p.finder.FindByTitle(ctx, p.cfg.Title)
	switch lookup.Status {
	case LookupFound:
		h := Handle{ID: lookup.ID, Title: p.cfg.Title}
		p.metrics.ObserveProvision("located")
		p.logger.Info("located spreadsheet by title", "spreadsheet_id", h.ID, "title", h.Title)
		p.persist(ctx, h.ID)
		return h, nil
	case LookupFailed:
		p.logger.Warn("title search failed, creating a new spreadsheet",
			"title", p.cfg.Title, "error", lookup.Err)
	}

	return p.create(ctx)
}

func (p *Provisioner) verify(ctx context.Context, id string) (Handle, error) {
	title, err := p.api.TitleOf(ctx, id)
	if err != nil {
		return Handle{}, &ProvisionError{Op: "verify", Err: err}
	}
	return Handle{ID: id, Title: title}, nil
}

func (p *Provisioner) create(ctx context.Context) (Handle, error) {
	id, err := p.api.Create(ctx, p.cfg.Title, p.cfg.Worksheet)
	if err != nil {
		return Handle{}, &ProvisionError{Op: "create", Err: err}
	}
	// The created sheet is not cached on header failure, so the next resolve
	// finds it by title; the headerless copy is an accepted orphan.
	if err := p.api.WriteHeader(ctx, id, p.cfg.Worksheet); err != nil {
		return Handle{}, &ProvisionError{Op: "header", Err: err}
	}
	h := Handle{ID: id, Title: p.cfg.Title}
	p.metrics.ObserveProvision("created")
	p.logger.Info("created spreadsheet", "spreadsheet_id", id, "title", h.Title)
	p.persist(ctx, id)
	return h, nil
}

// persist saves the id for the next process. Best-effort: failures are
// logged and otherwise ignored.
func (p *Provisioner) persist(ctx context.Context, id string) {
	if p.store == nil {
		return
	}
	if err := p.store.Save(ctx, id); err != nil {
		p.logger.Warn("handle store write failed", "spreadsheet_id", id, "error", err)
	}
}
