// Package middleware provides HTTP middleware for the Mailsmith API.
package middleware

import (
	"fmt"
	"net/http"
)

// Error codes shared across the middleware chain and handlers.
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// WriteError writes a JSON error envelope with the given status.
// All boundary errors use this shape so clients can branch on code.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"code":%q,"message":%q}}`, code, message)
}
