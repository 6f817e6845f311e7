// Package llm provides the client for the generative-text backend.
package llm

import (
	"context"
	"errors"
)

// ErrBackend indicates the backend rejected or failed the request.
// The HTTP boundary downgrades it to an opaque internal error.
var ErrBackend = errors.New("backend error")

// Request is a single completion request.
type Request struct {
	System string
	Prompt string
}

// Completion is the backend's answer.
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}

// Provider generates text. Implementations must honor ctx cancellation;
// calls may be slow and are never made while holding gateway locks.
type Provider interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}
