package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mailsmith/mailsmith/internal/llm"
)

// captureProvider records the last request it saw.
type captureProvider struct {
	last llm.Request
	err  error
}

func (c *captureProvider) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	c.last = req
	if c.err != nil {
		return llm.Completion{}, c.err
	}
	return llm.Completion{Text: "ok", Model: "capture-model", TokensUsed: 7}, nil
}

func TestGenerateDraft_BuildsPrompt(t *testing.T) {
	provider := &captureProvider{}
	s := NewMailService(provider, nil)

	result, err := s.GenerateDraft(context.Background(), DraftInput{
		Recipient: "Bob",
		Subject:   "Quarterly sync",
		Points:    "propose tuesday\nask for agenda items",
		Tone:      "friendly",
	})
	if err != nil {
		t.Fatalf("GenerateDraft() error = %v", err)
	}
	if result.Text != "ok" || result.Model != "capture-model" || result.TokensUsed != 7 {
		t.Errorf("result = %+v", result)
	}

	prompt := provider.last.Prompt
	for _, want := range []string{"Bob", "Quarterly sync", "propose tuesday", "friendly"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if provider.last.System == "" {
		t.Error("system prompt not set")
	}
}

func TestGenerateDraft_OptionalFieldsOmitted(t *testing.T) {
	provider := &captureProvider{}
	s := NewMailService(provider, nil)

	if _, err := s.GenerateDraft(context.Background(), DraftInput{Points: "just the facts"}); err != nil {
		t.Fatalf("GenerateDraft() error = %v", err)
	}

	prompt := provider.last.Prompt
	if !strings.HasPrefix(prompt, "Write an email covering") {
		t.Errorf("prompt mentions absent recipient/subject:\n%s", prompt)
	}
	if !strings.Contains(prompt, "just the facts") {
		t.Errorf("prompt missing points:\n%s", prompt)
	}
}

func TestRewrite_BuildsPrompt(t *testing.T) {
	provider := &captureProvider{}
	s := NewMailService(provider, nil)

	if _, err := s.Rewrite(context.Background(), RewriteInput{Text: "yo send the doc", Tone: "formal"}); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	prompt := provider.last.Prompt
	if !strings.Contains(prompt, "yo send the doc") || !strings.Contains(prompt, "formal") {
		t.Errorf("prompt missing text or tone:\n%s", prompt)
	}
}

func TestSummarizeThread_JoinsMessages(t *testing.T) {
	provider := &captureProvider{}
	s := NewMailService(provider, nil)

	_, err := s.SummarizeThread(context.Background(), SummarizeInput{
		Messages: []string{"first message", "  ", "second message"},
	})
	if err != nil {
		t.Fatalf("SummarizeThread() error = %v", err)
	}

	prompt := provider.last.Prompt
	if !strings.Contains(prompt, "first message") || !strings.Contains(prompt, "second message") {
		t.Errorf("prompt missing messages:\n%s", prompt)
	}
	// Blank messages are dropped before joining.
	if strings.Contains(prompt, "first message\n---\n  ") {
		t.Errorf("blank message survived the join:\n%s", prompt)
	}
}

func TestValidation(t *testing.T) {
	s := NewMailService(&captureProvider{}, nil)
	ctx := context.Background()
	long := strings.Repeat("x", 33*1024)
	manyMessages := make([]string, 101)
	for i := range manyMessages {
		manyMessages[i] = "msg"
	}

	testCases := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			name:    "draft empty points",
			run:     func() error { _, err := s.GenerateDraft(ctx, DraftInput{Points: "  "}); return err },
			wantErr: ErrMissingPoints,
		},
		{
			name:    "draft oversized points",
			run:     func() error { _, err := s.GenerateDraft(ctx, DraftInput{Points: long}); return err },
			wantErr: ErrInputTooLong,
		},
		{
			name:    "rewrite empty text",
			run:     func() error { _, err := s.Rewrite(ctx, RewriteInput{}); return err },
			wantErr: ErrMissingText,
		},
		{
			name:    "rewrite oversized text",
			run:     func() error { _, err := s.Rewrite(ctx, RewriteInput{Text: long}); return err },
			wantErr: ErrInputTooLong,
		},
		{
			name:    "summarize no messages",
			run:     func() error { _, err := s.SummarizeThread(ctx, SummarizeInput{}); return err },
			wantErr: ErrMissingMessages,
		},
		{
			name: "summarize only blanks",
			run: func() error {
				_, err := s.SummarizeThread(ctx, SummarizeInput{Messages: []string{" ", ""}})
				return err
			},
			wantErr: ErrMissingMessages,
		},
		{
			name: "summarize too many messages",
			run: func() error {
				_, err := s.SummarizeThread(ctx, SummarizeInput{Messages: manyMessages})
				return err
			},
			wantErr: ErrInputTooLong,
		},
		{
			name: "summarize oversized thread",
			run: func() error {
				_, err := s.SummarizeThread(ctx, SummarizeInput{Messages: []string{long}})
				return err
			},
			wantErr: ErrInputTooLong,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestBackendErrorWrapped(t *testing.T) {
	backendErr := errors.New("backend down")
	s := NewMailService(&captureProvider{err: backendErr}, nil)

	_, err := s.GenerateDraft(context.Background(), DraftInput{Points: "hello"})
	if !errors.Is(err, backendErr) {
		t.Errorf("error = %v, want wrapped backend error", err)
	}
}
