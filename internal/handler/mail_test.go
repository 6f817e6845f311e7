package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mailsmith/mailsmith/internal/auth"
	"github.com/mailsmith/mailsmith/internal/llm"
	"github.com/mailsmith/mailsmith/internal/model"
	"github.com/mailsmith/mailsmith/internal/service"
	"github.com/mailsmith/mailsmith/internal/testutil"
)

func newMailHandler(t *testing.T, provider llm.Provider) *MailHandler {
	t.Helper()
	mail := service.NewMailService(provider, nil)
	return NewMailHandler(testutil.DiscardLogger(), mail, nil, nil)
}

func postMail(handlerFunc http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	account := &model.Account{ID: "acct-1", Email: "a@example.com", Plan: model.PlanFree}
	req = req.WithContext(auth.ContextWithAccount(req.Context(), account))
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestGenerate_Success(t *testing.T) {
	stub := &testutil.StubProvider{Text: "Hi Bob,\n\nSee you Tuesday.", Model: "stub-model", Tokens: 42}
	h := newMailHandler(t, stub)

	rec := postMail(h.Generate, "/api/generate",
		`{"recipient":"Bob","subject":"Sync","points":"confirm tuesday meeting","tone":"friendly"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var body struct {
		Draft      string `json:"draft"`
		Model      string `json:"model"`
		TokensUsed int    `json:"tokens_used"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Draft != "Hi Bob,\n\nSee you Tuesday." {
		t.Errorf("draft = %q", body.Draft)
	}
	if body.Model != "stub-model" || body.TokensUsed != 42 {
		t.Errorf("model/tokens = %q/%d, want stub-model/42", body.Model, body.TokensUsed)
	}
	if stub.Calls() != 1 {
		t.Errorf("backend called %d times, want 1", stub.Calls())
	}
}

func TestRewrite_Success(t *testing.T) {
	stub := &testutil.StubProvider{Text: "Dear team, kindly note...", Tokens: 10}
	h := newMailHandler(t, stub)

	rec := postMail(h.Rewrite, "/api/rewrite", `{"text":"yo check this out","tone":"formal"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var body struct {
		Rewritten string `json:"rewritten"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Rewritten == "" {
		t.Error("rewritten field missing from response")
	}
}

func TestSummarize_Success(t *testing.T) {
	stub := &testutil.StubProvider{Text: "Decided to ship Friday."}
	h := newMailHandler(t, stub)

	rec := postMail(h.Summarize, "/api/summarize",
		`{"messages":["Can we ship Friday?","Yes, Friday works."]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var body struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Summary != "Decided to ship Friday." {
		t.Errorf("summary = %q", body.Summary)
	}
}

func TestMailHandlers_ValidationErrors(t *testing.T) {
	stub := &testutil.StubProvider{}
	h := newMailHandler(t, stub)

	testCases := []struct {
		name        string
		handlerFunc http.HandlerFunc
		path        string
		body        string
	}{
		{name: "generate missing points", handlerFunc: h.Generate, path: "/api/generate", body: `{"subject":"x"}`},
		{name: "generate blank points", handlerFunc: h.Generate, path: "/api/generate", body: `{"points":"   "}`},
		{name: "generate malformed json", handlerFunc: h.Generate, path: "/api/generate", body: `{"points"`},
		{name: "rewrite missing text", handlerFunc: h.Rewrite, path: "/api/rewrite", body: `{}`},
		{name: "summarize empty thread", handlerFunc: h.Summarize, path: "/api/summarize", body: `{"messages":[]}`},
		{name: "summarize blank messages", handlerFunc: h.Summarize, path: "/api/summarize", body: `{"messages":["  ",""]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postMail(tc.handlerFunc, tc.path, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error envelope: %v", err)
			}
			if body.Error.Code != "INVALID_REQUEST" {
				t.Errorf("error code = %q, want INVALID_REQUEST", body.Error.Code)
			}
		})
	}

	if stub.Calls() != 0 {
		t.Errorf("backend called %d times for invalid input, want 0", stub.Calls())
	}
}

func TestMailHandlers_BackendFailureIsOpaque(t *testing.T) {
	stub := &testutil.StubProvider{Err: errors.New("upstream: connection refused")}
	h := newMailHandler(t, stub)

	rec := postMail(h.Generate, "/api/generate", `{"points":"hello"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("error code = %q, want INTERNAL_ERROR", body.Error.Code)
	}
	// Backend details never reach the client.
	if strings.Contains(body.Error.Message, "connection refused") {
		t.Errorf("error message leaks backend detail: %q", body.Error.Message)
	}
}
