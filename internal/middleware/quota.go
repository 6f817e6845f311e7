package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mailsmith/mailsmith/internal/auth"
	"github.com/mailsmith/mailsmith/internal/metrics"
	"github.com/mailsmith/mailsmith/internal/model"
	"github.com/mailsmith/mailsmith/internal/quota"
)

// QuotaConfig holds configuration for the quota middleware.
type QuotaConfig struct {
	Logger  *slog.Logger
	Ledger  *quota.Ledger
	Metrics metrics.Recorder
}

// Quota returns middleware that charges one daily-quota unit per
// request. Must be applied after Auth. Rate limit headers are set on
// every response through this path, allowed or denied, so callers can
// self-throttle.
//
// A ledger error fails the request: a charge that was not durably
// recorded is never reported as allowed.
func Quota(cfg QuotaConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := auth.AccountFromContext(r.Context())
			if account == nil {
				// Auth middleware did not run; treat as a wiring bug.
				WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid or missing API key")
				return
			}

			decision, err := cfg.Ledger.CheckAndConsume(r.Context(), account)
			if err != nil {
				cfg.Logger.Error("quota check failed",
					slog.String("error", err.Error()),
					slog.String("account_id", account.ID),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				WriteError(w, http.StatusInternalServerError, CodeInternalError, "Internal server error")
				return
			}

			recorder.IncQuotaDecision(string(account.Plan), decision.Allowed)
			SetRateLimitHeaders(w, decision.Limit, decision.Remaining, decision.ResetAt)

			if !decision.Allowed {
				retryAfter := time.Until(time.Unix(decision.ResetAt, 0))
				if retryAfter < 0 {
					retryAfter = 0
				}

				cfg.Logger.Warn("quota exhausted",
					slog.String("account_id", account.ID),
					slog.String("plan", string(account.Plan)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(retryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)

				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				WriteError(w, http.StatusTooManyRequests, CodeRateLimitExceeded,
					fmt.Sprintf("Daily quota exhausted. Retry after %d seconds.", int(retryAfter.Seconds())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SetRateLimitHeaders sets the standard rate limit response headers.
// Unlimited plans render as the string "unlimited".
func SetRateLimitHeaders(w http.ResponseWriter, limit, remaining, resetAt int64) {
	w.Header().Set("X-RateLimit-Limit", formatLimit(limit))
	w.Header().Set("X-RateLimit-Remaining", formatLimit(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
}

func formatLimit(v int64) string {
	if v == model.Unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(v, 10)
}
