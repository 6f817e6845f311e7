// Package testutil provides shared helpers for tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mailsmith/mailsmith/internal/llm"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// DiscardLogger returns a logger that swallows all output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// StubProvider is an llm.Provider returning a fixed completion.
type StubProvider struct {
	Text   string
	Model  string
	Tokens int
	Err    error

	calls atomic.Int64
}

// Complete returns the stubbed completion or error.
func (s *StubProvider) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return llm.Completion{}, s.Err
	}
	text := s.Text
	if text == "" {
		text = "stub completion"
	}
	model := s.Model
	if model == "" {
		model = "stub-model"
	}
	return llm.Completion{Text: text, Model: model, TokensUsed: s.Tokens}, nil
}

// Calls reports how many times Complete was invoked.
func (s *StubProvider) Calls() int64 {
	return s.calls.Load()
}

// Clock is a settable time source for window tests.
type Clock struct {
	t atomic.Pointer[time.Time]
}

// NewClock starts a clock at the given instant.
func NewClock(start time.Time) *Clock {
	c := &Clock{}
	c.Set(start)
	return c
}

// Now returns the current instant. Pass c.Now as the time source.
func (c *Clock) Now() time.Time {
	return *c.t.Load()
}

// Set moves the clock.
func (c *Clock) Set(t time.Time) {
	c.t.Store(&t)
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}
