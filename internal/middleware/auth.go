package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mailsmith/mailsmith/internal/auth"
	"github.com/mailsmith/mailsmith/internal/identity"
	"github.com/mailsmith/mailsmith/internal/metrics"
)

// APIKeyHeader is the header carrying the credential. For compatibility
// it also accepts the account's registration email; the registry tells
// the two apart.
const APIKeyHeader = "X-API-Key"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Registry *identity.Registry
	Metrics  metrics.Recorder
}

// Auth returns a middleware that authenticates API requests.
// It extracts the credential from the X-API-Key header, resolves it to
// an account, and injects the account into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(APIKeyHeader)
			if presented == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_key"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure()
				writeAuthError(w)
				return
			}

			account := cfg.Registry.Resolve(presented)
			if account == nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "unknown_key"),
					slog.String("key_fingerprint", auth.Fingerprint(presented)),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure()
				writeAuthError(w)
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("account_id", account.ID),
				slog.String("plan", string(account.Plan)),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAccount(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid or missing API key")
}
