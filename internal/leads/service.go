package leads

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/relaylabs/leadrelay/internal/observability/metrics"
	"github.com/relaylabs/leadrelay/pkg/logging"
)

// SuccessMessage is returned on every accepted submission, including the
// honeypot path, so bots cannot tell they were filtered.
const SuccessMessage = "Lead submitted successfully"

const defaultNotifyTimeout = 15 * time.Second

// Appender persists a submission to the spreadsheet backend.
type Appender interface {
	Append(ctx context.Context, sub Submission) (AppendResult, error)
}

// Notifier announces a stored lead. Implementations absorb their own
// failures; Notify never reports one.
type Notifier interface {
	Notify(ctx context.Context, sub Submission, spreadsheetID string)
}

// Service runs the submission pipeline: honeypot check, validation, sheet
// append, then fire-and-forget notifications.
type Service struct {
	appender      Appender
	notifier      Notifier
	metrics       *metrics.LeadMetrics
	logger        *logging.Logger
	notifyTimeout time.Duration

	wg sync.WaitGroup
}

// NewService creates the submission service. appender may be nil when the
// Google credentials are absent; submissions then fail with
// ErrSheetsNotConfigured. notifier may be nil to disable notifications.
func NewService(appender Appender, notifier Notifier, m *metrics.LeadMetrics, logger *logging.Logger, notifyTimeout time.Duration) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &Service{
		appender:      appender,
		notifier:      notifier,
		metrics:       m,
		logger:        logger,
		notifyTimeout: notifyTimeout,
	}
}

// Submit runs one lead through the pipeline. The returned error is either a
// *ValidationError or a wrapped backend failure; notification problems never
// surface here.
func (s *Service) Submit(ctx context.Context, req SubmissionRequest) (Result, error) {
	if strings.TrimSpace(req.Honeypot) != "" {
		s.logger.Info("honeypot tripped, dropping submission", "email", req.Email)
		s.metrics.ObserveSubmission("spam")
		// Fake success: the response is indistinguishable from a stored lead.
		return Result{Message: SuccessMessage}, nil
	}

	sub := req.Normalize()
	if err := sub.Validate(); err != nil {
		s.metrics.ObserveSubmission("validation_failed")
		return Result{}, err
	}

	if s.appender == nil {
		s.metrics.ObserveSubmission("not_configured")
		return Result{}, ErrSheetsNotConfigured
	}

	res, err := s.appender.Append(ctx, sub)
	if err != nil {
		s.metrics.ObserveSubmission("append_failed")
		return Result{}, fmt.Errorf("leads: storing submission: %w", err)
	}

	s.logger.Info("lead appended",
		"spreadsheet_id", res.SpreadsheetID,
		"rows", res.RowsAppended,
		"email", sub.Email)
	s.metrics.ObserveSubmission("accepted")

	s.dispatchNotifications(ctx, sub, res.SpreadsheetID)

	n := res.RowsAppended
	return Result{Message: SuccessMessage, RowNumber: &n}, nil
}

// dispatchNotifications runs the notifier in a tracked goroutine detached
// from the request context, so a closed connection cannot cancel it and a
// slow channel cannot delay the response.
func (s *Service) dispatchNotifications(ctx context.Context, sub Submission, spreadsheetID string) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("notification task panicked", "panic", r)
			}
		}()
		s.notifier.Notify(nctx, sub, spreadsheetID)
	}()
}

// Drain blocks until in-flight notification tasks finish or ctx expires.
// Called during graceful shutdown.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
