// Package service provides business logic for the mail operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mailsmith/mailsmith/internal/llm"
	"github.com/mailsmith/mailsmith/internal/metrics"
)

// Service errors. All of these map to INVALID_REQUEST at the boundary.
var (
	ErrMissingPoints   = errors.New("points is required")
	ErrMissingText     = errors.New("text is required")
	ErrMissingMessages = errors.New("messages must not be empty")
	ErrInputTooLong    = errors.New("input exceeds maximum length")
)

const (
	maxInputLength = 32 * 1024
	maxThreadSize  = 100

	draftSystemPrompt     = "You are an assistant that writes clear, professional emails. Reply with the email body only."
	rewriteSystemPrompt   = "You are an assistant that rewrites emails while preserving their meaning. Reply with the rewritten email only."
	summarizeSystemPrompt = "You are an assistant that summarizes email threads. Reply with a concise summary of the decisions and open items."
)

// MailService turns validated inputs into prompts and runs them against
// the generative backend.
type MailService struct {
	backend llm.Provider
	metrics metrics.Recorder
}

// NewMailService creates a new MailService.
func NewMailService(backend llm.Provider, recorder metrics.Recorder) *MailService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &MailService{backend: backend, metrics: recorder}
}

// DraftInput defines input for generating a new email draft.
type DraftInput struct {
	Recipient string
	Subject   string
	Points    string
	Tone      string
}

// RewriteInput defines input for rewriting an existing email.
type RewriteInput struct {
	Text string
	Tone string
}

// SummarizeInput defines input for summarizing a thread.
type SummarizeInput struct {
	Messages []string
}

// Result is the outcome of any mail operation.
type Result struct {
	Text       string
	Model      string
	TokensUsed int
}

// GenerateDraft validates the input and produces a fresh email draft.
func (s *MailService) GenerateDraft(ctx context.Context, input DraftInput) (Result, error) {
	if strings.TrimSpace(input.Points) == "" {
		return Result{}, ErrMissingPoints
	}
	if len(input.Points) > maxInputLength {
		return Result{}, ErrInputTooLong
	}

	var b strings.Builder
	b.WriteString("Write an email")
	if r := strings.TrimSpace(input.Recipient); r != "" {
		fmt.Fprintf(&b, " to %s", r)
	}
	if subj := strings.TrimSpace(input.Subject); subj != "" {
		fmt.Fprintf(&b, " with the subject %q", subj)
	}
	b.WriteString(" covering these points:\n")
	b.WriteString(input.Points)
	if tone := strings.TrimSpace(input.Tone); tone != "" {
		fmt.Fprintf(&b, "\nUse a %s tone.", tone)
	}

	return s.run(ctx, "generate", draftSystemPrompt, b.String())
}

// Rewrite validates the input and rewrites the given email text.
func (s *MailService) Rewrite(ctx context.Context, input RewriteInput) (Result, error) {
	if strings.TrimSpace(input.Text) == "" {
		return Result{}, ErrMissingText
	}
	if len(input.Text) > maxInputLength {
		return Result{}, ErrInputTooLong
	}

	var b strings.Builder
	b.WriteString("Rewrite the following email")
	if tone := strings.TrimSpace(input.Tone); tone != "" {
		fmt.Fprintf(&b, " in a %s tone", tone)
	}
	b.WriteString(":\n\n")
	b.WriteString(input.Text)

	return s.run(ctx, "rewrite", rewriteSystemPrompt, b.String())
}

// SummarizeThread validates the input and summarizes an email thread.
// Messages are joined oldest-first, separated by a marker line.
func (s *MailService) SummarizeThread(ctx context.Context, input SummarizeInput) (Result, error) {
	messages := make([]string, 0, len(input.Messages))
	for _, m := range input.Messages {
		if strings.TrimSpace(m) != "" {
			messages = append(messages, m)
		}
	}
	if len(messages) == 0 {
		return Result{}, ErrMissingMessages
	}
	if len(messages) > maxThreadSize {
		return Result{}, ErrInputTooLong
	}

	joined := strings.Join(messages, "\n---\n")
	if len(joined) > maxInputLength {
		return Result{}, ErrInputTooLong
	}

	prompt := "Summarize this email thread:\n\n" + joined
	return s.run(ctx, "summarize", summarizeSystemPrompt, prompt)
}

// run performs the backend call and records its latency.
func (s *MailService) run(ctx context.Context, op, system, prompt string) (Result, error) {
	start := time.Now()
	completion, err := s.backend.Complete(ctx, llm.Request{System: system, Prompt: prompt})
	s.metrics.ObserveBackendDuration(op, time.Since(start))
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	return Result{
		Text:       completion.Text,
		Model:      completion.Model,
		TokensUsed: completion.TokensUsed,
	}, nil
}
