// Package identity implements the account registry: credential issue,
// idempotent registration by email, and credential resolution.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mailsmith/mailsmith/internal/auth"
	"github.com/mailsmith/mailsmith/internal/model"
	"github.com/mailsmith/mailsmith/internal/store"
)

// Registry errors.
var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrAccountNotFound = errors.New("account not found")
)

// state is the persisted shape of the identity namespace. Both maps are
// saved together, which is what makes registration all-or-nothing.
type state struct {
	// Credentials maps an API key to its account.
	Credentials map[string]model.Account `json:"credentials"`
	// Emails maps a registration email to its API key.
	Emails map[string]string `json:"emails"`
}

// Registry owns the credential and email mappings. All mutation happens
// under the write lock, including the save, so concurrent registrations
// for the same email cannot mint two accounts.
type Registry struct {
	mu    sync.RWMutex
	store store.Store
	state state
	now   func() time.Time
}

// New loads existing identity state from the store (empty default if
// never written) and returns a ready registry.
func New(ctx context.Context, s store.Store) (*Registry, error) {
	r := &Registry{
		store: s,
		state: state{
			Credentials: make(map[string]model.Account),
			Emails:      make(map[string]string),
		},
		now: time.Now,
	}

	if _, err := s.Load(ctx, store.NamespaceIdentity, &r.state); err != nil {
		return nil, fmt.Errorf("load identity state: %w", err)
	}
	// Maps may be nil after decoding an older file.
	if r.state.Credentials == nil {
		r.state.Credentials = make(map[string]model.Account)
	}
	if r.state.Emails == nil {
		r.state.Emails = make(map[string]string)
	}

	return r, nil
}

// Registration is the outcome of Register. Created reports whether a
// new account was minted or an existing one was returned.
type Registration struct {
	Key     string
	Account model.Account
	Created bool
}

// Register issues a credential for an email address. Registration is
// idempotent: an email that already has an account gets its existing
// credential and account back, unchanged. Both mappings persist before
// success is returned; a failed save reverts in-memory state so the
// caller can retry.
func (r *Registry) Register(ctx context.Context, email string) (Registration, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return Registration{}, ErrInvalidEmail
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if key, ok := r.state.Emails[email]; ok {
		return Registration{Key: key, Account: r.state.Credentials[key]}, nil
	}

	key, err := auth.GenerateKey()
	if err != nil {
		return Registration{}, fmt.Errorf("generate credential: %w", err)
	}

	account := model.Account{
		ID:        ulid.Make().String(),
		Email:     email,
		Plan:      model.PlanFree,
		CreatedAt: r.now().UTC(),
	}

	r.state.Credentials[key] = account
	r.state.Emails[email] = key

	if err := r.store.Save(ctx, store.NamespaceIdentity, &r.state); err != nil {
		delete(r.state.Credentials, key)
		delete(r.state.Emails, email)
		return Registration{}, fmt.Errorf("persist registration: %w", err)
	}

	return Registration{Key: key, Account: account, Created: true}, nil
}

// Resolve maps a presented key to its account, or nil on any miss.
// A presented value containing "@" is treated as a registration email
// and indirected through the email mapping; anything else is looked up
// as a credential. A miss is a normal outcome, not an error.
func (r *Registry) Resolve(presented string) *model.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := presented
	if strings.Contains(presented, "@") {
		var ok bool
		key, ok = r.state.Emails[presented]
		if !ok {
			return nil
		}
	}

	account, ok := r.state.Credentials[key]
	if !ok {
		return nil
	}
	return &account
}

// SetPlan changes an account's plan. This is the entry point for the
// out-of-band billing process; the HTTP surface never exposes it.
func (r *Registry) SetPlan(ctx context.Context, email string, plan model.Plan) (model.Account, error) {
	if !plan.IsValid() {
		return model.Account{}, fmt.Errorf("unknown plan %q", plan)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.state.Emails[email]
	if !ok {
		return model.Account{}, ErrAccountNotFound
	}

	account := r.state.Credentials[key]
	previous := account.Plan
	account.Plan = plan
	r.state.Credentials[key] = account

	if err := r.store.Save(ctx, store.NamespaceIdentity, &r.state); err != nil {
		account.Plan = previous
		r.state.Credentials[key] = account
		return model.Account{}, fmt.Errorf("persist plan change: %w", err)
	}

	return account, nil
}

// Len reports the number of registered accounts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.state.Credentials)
}
