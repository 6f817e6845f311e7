package auth

import (
	"context"

	"github.com/mailsmith/mailsmith/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// accountContextKey is the context key for the authenticated account.
const accountContextKey contextKey = "account"

// ContextWithAccount adds the authenticated account to the context.
func ContextWithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

// AccountFromContext retrieves the authenticated account from the context.
// Returns nil if not present.
func AccountFromContext(ctx context.Context) *model.Account {
	account, ok := ctx.Value(accountContextKey).(*model.Account)
	if !ok {
		return nil
	}
	return account
}

// MustAccountFromContext retrieves the authenticated account from the context.
// Panics if not present (use only when auth middleware has run).
func MustAccountFromContext(ctx context.Context) *model.Account {
	account := AccountFromContext(ctx)
	if account == nil {
		panic("account not found in context - ensure auth middleware is applied")
	}
	return account
}
