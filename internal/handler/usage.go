package handler

import (
	"net/http"

	"github.com/mailsmith/mailsmith/internal/auth"
	"github.com/mailsmith/mailsmith/internal/model"
	"github.com/mailsmith/mailsmith/internal/quota"
)

// UsageHandler serves the read-only usage snapshot.
type UsageHandler struct {
	ledger *quota.Ledger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(ledger *quota.Ledger) *UsageHandler {
	return &UsageHandler{ledger: ledger}
}

// usageResponse is the usage snapshot body. Limit and Remaining are an
// integer or the string "unlimited".
type usageResponse struct {
	Plan      string `json:"plan"`
	UsedToday int64  `json:"used_today"`
	Limit     any    `json:"limit"`
	Remaining any    `json:"remaining"`
	ResetsAt  int64  `json:"resets_at"`
}

// Usage handles GET /api/usage. Reading usage never consumes quota.
func (h *UsageHandler) Usage(w http.ResponseWriter, r *http.Request) {
	account := auth.MustAccountFromContext(r.Context())
	snapshot := h.ledger.Peek(account)

	writeJSON(w, http.StatusOK, usageResponse{
		Plan:      string(snapshot.Plan),
		UsedToday: snapshot.UsedToday,
		Limit:     limitValue(snapshot.Limit),
		Remaining: limitValue(snapshot.Remaining),
		ResetsAt:  snapshot.ResetAt,
	})
}

// limitValue renders the unlimited marker as its JSON string form.
func limitValue(v int64) any {
	if v == model.Unlimited {
		return "unlimited"
	}
	return v
}
