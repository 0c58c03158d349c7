package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/relaylabs/leadrelay/internal/credentials"
	"github.com/relaylabs/leadrelay/pkg/logging"
)

// RedactedErrorMessage replaces internal error detail in production responses.
const RedactedErrorMessage = "An unexpected error occurred. Please try again later."

// Handler serves the public lead API.
type Handler struct {
	service *Service
	logger  *logging.Logger
	redact  bool
	started time.Time
}

// NewHandler creates the lead HTTP handler. redactErrors hides internal
// error detail from 500 responses; full detail is always logged.
func NewHandler(service *Service, redactErrors bool, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
		redact:  redactErrors,
		started: time.Now(),
	}
}

// submitResponse is the wire shape for POST /api/submit-lead. RowNumber is
// the count of rows the append touched, not a sheet index.
type submitResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RowNumber *int64 `json:"rowNumber,omitempty"`
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// SubmitLead handles POST /api/submit-lead requests
func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	var req SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode submission body", "error", err)
		writeJSON(w, http.StatusBadRequest, submitResponse{
			Message: "Validation error: request body must be valid JSON",
		})
		return
	}

	result, err := h.service.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Success:   true,
		Message:   result.Message,
		RowNumber: result.RowNumber,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		h.logger.Warn("lead submission rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, submitResponse{
			Message: "Validation error: " + verr.Message(),
		})
		return
	}

	if errors.Is(err, ErrSheetsNotConfigured) || errors.Is(err, credentials.ErrNotConfigured) {
		h.logger.Error("lead submission failed: google credentials are not configured", "error", err)
	} else {
		h.logger.Error("lead submission failed", "error", err)
	}

	msg := err.Error()
	if h.redact {
		msg = RedactedErrorMessage
	}
	writeJSON(w, http.StatusInternalServerError, submitResponse{Message: msg})
}

// Health handles GET /api/health requests
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.started).Seconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
