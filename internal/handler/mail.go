package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mailsmith/mailsmith/internal/auth"
	"github.com/mailsmith/mailsmith/internal/metrics"
	"github.com/mailsmith/mailsmith/internal/middleware"
	"github.com/mailsmith/mailsmith/internal/service"
	"github.com/mailsmith/mailsmith/internal/usagelog"
)

// MailHandler serves the quota-gated mail operations.
type MailHandler struct {
	logger    *slog.Logger
	mail      *service.MailService
	publisher *usagelog.Publisher
	metrics   metrics.Recorder
}

// NewMailHandler creates a new MailHandler. publisher may be nil to
// disable usage logging.
func NewMailHandler(logger *slog.Logger, mail *service.MailService, publisher *usagelog.Publisher, recorder metrics.Recorder) *MailHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &MailHandler{logger: logger, mail: mail, publisher: publisher, metrics: recorder}
}

// generateRequest is the body for POST /api/generate.
type generateRequest struct {
	Recipient string `json:"recipient,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Points    string `json:"points"`
	Tone      string `json:"tone,omitempty"`
}

// rewriteRequest is the body for POST /api/rewrite.
type rewriteRequest struct {
	Text string `json:"text"`
	Tone string `json:"tone,omitempty"`
}

// summarizeRequest is the body for POST /api/summarize.
type summarizeRequest struct {
	Messages []string `json:"messages"`
}

// mailResponse carries the operation output under an op-specific field name.
type mailResponse struct {
	Draft      string `json:"draft,omitempty"`
	Rewritten  string `json:"rewritten,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used"`
}

// Generate handles POST /api/generate.
func (h *MailHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.respond(w, r, "generate", func() (service.Result, error) {
		return h.mail.GenerateDraft(r.Context(), service.DraftInput{
			Recipient: req.Recipient,
			Subject:   req.Subject,
			Points:    req.Points,
			Tone:      req.Tone,
		})
	}, func(result service.Result) mailResponse {
		return mailResponse{Draft: result.Text, Model: result.Model, TokensUsed: result.TokensUsed}
	})
}

// Rewrite handles POST /api/rewrite.
func (h *MailHandler) Rewrite(w http.ResponseWriter, r *http.Request) {
	var req rewriteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.respond(w, r, "rewrite", func() (service.Result, error) {
		return h.mail.Rewrite(r.Context(), service.RewriteInput{
			Text: req.Text,
			Tone: req.Tone,
		})
	}, func(result service.Result) mailResponse {
		return mailResponse{Rewritten: result.Text, Model: result.Model, TokensUsed: result.TokensUsed}
	})
}

// Summarize handles POST /api/summarize.
func (h *MailHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.respond(w, r, "summarize", func() (service.Result, error) {
		return h.mail.SummarizeThread(r.Context(), service.SummarizeInput{
			Messages: req.Messages,
		})
	}, func(result service.Result) mailResponse {
		return mailResponse{Summary: result.Text, Model: result.Model, TokensUsed: result.TokensUsed}
	})
}

// respond runs the operation and maps its outcome to the wire.
// The quota charge already happened in the middleware chain; it is not
// rolled back when the operation fails downstream.
func (h *MailHandler) respond(w http.ResponseWriter, r *http.Request, op string, run func() (service.Result, error), shape func(service.Result) mailResponse) {
	account := auth.MustAccountFromContext(r.Context())
	start := time.Now()

	result, err := run()
	if err != nil {
		if isValidationError(err) {
			h.metrics.IncMailOp(op, "error")
			writeError(w, http.StatusBadRequest, middleware.CodeInvalidRequest, err.Error())
			return
		}

		h.logger.Error("mail operation failed",
			slog.String("op", op),
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		h.metrics.IncMailOp(op, "error")
		h.publish(account.ID, op, "error", 0, time.Since(start))
		writeError(w, http.StatusInternalServerError, middleware.CodeInternalError, "Internal server error")
		return
	}

	h.metrics.IncMailOp(op, "success")
	h.publish(account.ID, op, "success", result.TokensUsed, time.Since(start))
	writeJSON(w, http.StatusOK, shape(result))
}

func (h *MailHandler) publish(accountID, op, status string, tokens int, duration time.Duration) {
	if h.publisher == nil {
		return
	}
	h.publisher.Publish(usagelog.Record{
		AccountID:  accountID,
		Op:         op,
		Status:     status,
		TokensUsed: tokens,
		DurationMS: duration.Milliseconds(),
		At:         time.Now().UTC(),
	})
}

// decodeBody parses the JSON body, writing an error response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, middleware.CodeInvalidRequest, "Invalid request body")
		return false
	}
	return true
}

// isValidationError reports whether err is an input problem rather than
// a backend fault.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrMissingPoints) ||
		errors.Is(err, service.ErrMissingText) ||
		errors.Is(err, service.ErrMissingMessages) ||
		errors.Is(err, service.ErrInputTooLong)
}
