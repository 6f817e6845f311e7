// Package quota implements the per-account, per-day usage ledger.
//
// The ledger is a fixed-window counter: one window per UTC calendar
// day, aligned to midnight. Counters roll over because the day
// component of the key changes; there is no reset job. Bursts at the
// window boundary are possible and accepted.
package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mailsmith/mailsmith/internal/model"
	"github.com/mailsmith/mailsmith/internal/store"
)

// Decision is the outcome of a consume attempt.
type Decision struct {
	Allowed bool
	// Limit is the plan's daily cap, or model.Unlimited.
	Limit int64
	// Remaining is the headroom after this decision, or model.Unlimited.
	Remaining int64
	// ResetAt is the next UTC midnight, in epoch seconds.
	ResetAt int64
}

// Snapshot is the read-only usage view for the status endpoint.
type Snapshot struct {
	Plan      model.Plan
	UsedToday int64
	Limit     int64
	Remaining int64
	ResetAt   int64
}

// Ledger tracks daily usage counters and enforces plan limits.
//
// The read-compare-increment-persist sequence runs under one mutex, so
// two concurrent requests for the same account can never both squeeze
// through the last slot. The mutex also serializes saves (single-writer
// discipline); it is never held across a downstream backend call.
type Ledger struct {
	mu     sync.RWMutex
	store  store.Store
	counts map[string]int64
	limits model.PlanLimits
	now    func() time.Time
}

// New loads existing counters from the store (empty default if never
// written) and returns a ready ledger.
func New(ctx context.Context, s store.Store, limits model.PlanLimits) (*Ledger, error) {
	l := &Ledger{
		store:  s,
		counts: make(map[string]int64),
		limits: limits,
		now:    time.Now,
	}

	if _, err := s.Load(ctx, store.NamespaceUsage, &l.counts); err != nil {
		return nil, fmt.Errorf("load usage counters: %w", err)
	}
	if l.counts == nil {
		l.counts = make(map[string]int64)
	}

	return l, nil
}

// WithClock replaces the ledger's time source. Test hook.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// CheckAndConsume decides whether the account may perform one more
// operation today and, if so, charges it. The charge is persisted
// before the decision is returned; if the save fails the in-memory
// increment is rolled back and an error is returned, so an accepted
// charge is never lost and a lost charge is never accepted.
func (l *Ledger) CheckAndConsume(ctx context.Context, account *model.Account) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	key := dayKey(account.ID, now)
	reset := nextUTCMidnight(now).Unix()
	limit := l.limits.ForPlan(account.Plan)
	count := l.counts[key]

	if limit != model.Unlimited && count >= limit {
		return Decision{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   reset,
		}, nil
	}

	l.counts[key] = count + 1
	if err := l.store.Save(ctx, store.NamespaceUsage, l.counts); err != nil {
		l.counts[key] = count
		if count == 0 {
			delete(l.counts, key)
		}
		return Decision{}, fmt.Errorf("persist usage counter: %w", err)
	}

	remaining := model.Unlimited
	if limit != model.Unlimited {
		remaining = limit - (count + 1)
	}

	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   reset,
	}, nil
}

// Peek reports the account's usage for the current window without
// consuming anything.
func (l *Ledger) Peek(account *model.Account) Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := l.now().UTC()
	limit := l.limits.ForPlan(account.Plan)
	used := l.counts[dayKey(account.ID, now)]

	remaining := model.Unlimited
	if limit != model.Unlimited {
		remaining = limit - used
		if remaining < 0 {
			remaining = 0
		}
	}

	return Snapshot{
		Plan:      account.Plan,
		UsedToday: used,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   nextUTCMidnight(now).Unix(),
	}
}

// dayKey builds the counter key for an account on a given day.
// Keys from past days are kept; they are small and double as history.
func dayKey(accountID string, t time.Time) string {
	return accountID + ":" + t.UTC().Format("2006-01-02")
}

// nextUTCMidnight returns 00:00 UTC of the following day. time.Date
// normalizes the day overflow, so month and year boundaries are safe.
func nextUTCMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
