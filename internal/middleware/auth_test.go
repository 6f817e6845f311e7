package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mailsmith/mailsmith/internal/auth"
	"github.com/mailsmith/mailsmith/internal/identity"
	"github.com/mailsmith/mailsmith/internal/store"
	"github.com/mailsmith/mailsmith/internal/testutil"
)

func newAuthedChain(t *testing.T) (*identity.Registry, http.Handler, *string) {
	t.Helper()

	registry, err := identity.New(context.Background(), store.NewMemoryStore())
	if err != nil {
		t.Fatalf("identity.New() error = %v", err)
	}

	var seenAccountID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if account := auth.AccountFromContext(r.Context()); account != nil {
			seenAccountID = account.ID
		}
		w.WriteHeader(http.StatusOK)
	})

	chain := Auth(AuthConfig{
		Logger:   testutil.DiscardLogger(),
		Registry: registry,
	})(next)

	return registry, chain, &seenAccountID
}

func TestAuth_MissingHeader(t *testing.T) {
	_, chain, _ := newAuthedChain(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	assertErrorCode(t, rec, CodeUnauthorized)
}

func TestAuth_UnknownKey(t *testing.T) {
	_, chain, _ := newAuthedChain(t)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	req.Header.Set(APIKeyHeader, "mk_live_000000_00000000000000000000000000000000")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_ValidKeyInjectsAccount(t *testing.T) {
	registry, chain, seen := newAuthedChain(t)

	reg, err := registry.Register(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	req.Header.Set(APIKeyHeader, reg.Key)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if *seen != reg.Account.ID {
		t.Errorf("handler saw account %q, want %q", *seen, reg.Account.ID)
	}
}

func TestAuth_EmailCompatibility(t *testing.T) {
	registry, chain, seen := newAuthedChain(t)

	reg, err := registry.Register(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// The X-API-Key header also accepts the registration email.
	req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
	req.Header.Set(APIKeyHeader, "alice@example.com")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if *seen != reg.Account.ID {
		t.Errorf("handler saw account %q, want %q", *seen, reg.Account.ID)
	}
}

// assertErrorCode checks the error envelope's code field.
func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not an error envelope: %v", err)
	}
	if body.Error.Code != want {
		t.Errorf("error code = %q, want %q", body.Error.Code, want)
	}
}
