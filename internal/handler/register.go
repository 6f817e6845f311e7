package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mailsmith/mailsmith/internal/identity"
	"github.com/mailsmith/mailsmith/internal/metrics"
	"github.com/mailsmith/mailsmith/internal/middleware"
)

// RegisterHandler handles account registration.
type RegisterHandler struct {
	logger   *slog.Logger
	registry *identity.Registry
	metrics  metrics.Recorder
}

// NewRegisterHandler creates a new RegisterHandler.
func NewRegisterHandler(logger *slog.Logger, registry *identity.Registry, recorder metrics.Recorder) *RegisterHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &RegisterHandler{logger: logger, registry: registry, metrics: recorder}
}

// registerRequest is the registration request body.
type registerRequest struct {
	Email string `json:"email"`
}

// registerResponse is the registration response body.
type registerResponse struct {
	APIKey string `json:"api_key"`
	Plan   string `json:"plan"`
}

// Register handles POST /api/auth/register.
// Registration is idempotent by email: registering twice returns the
// same key both times.
func (h *RegisterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, middleware.CodeInvalidRequest, "Invalid request body")
		return
	}

	reg, err := h.registry.Register(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, middleware.CodeInvalidRequest, "A valid email address is required")
			return
		}
		h.logger.Error("registration failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, middleware.CodeInternalError, "Internal server error")
		return
	}

	h.metrics.IncRegistration(reg.Created)
	if reg.Created {
		h.logger.Info("account registered",
			slog.String("account_id", reg.Account.ID),
			slog.String("plan", string(reg.Account.Plan)),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
	}

	writeJSON(w, http.StatusOK, registerResponse{
		APIKey: reg.Key,
		Plan:   string(reg.Account.Plan),
	})
}
