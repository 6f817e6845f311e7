// Package model defines domain entities for the application.
package model

import "time"

// Plan is a named billing tier that determines the daily quota limit.
type Plan string

// Known plans.
const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Unlimited is the marker value for plans without a daily cap.
const Unlimited int64 = -1

// IsValid reports whether p is a known plan.
func (p Plan) IsValid() bool {
	return p == PlanFree || p == PlanPro
}

// PlanLimits holds the per-plan daily operation caps.
// The free cap is configurable; pro is always unlimited.
type PlanLimits struct {
	FreeDaily int64
}

// DefaultPlanLimits returns the stock limits.
func DefaultPlanLimits() PlanLimits {
	return PlanLimits{FreeDaily: 10}
}

// ForPlan returns the daily limit for a plan, or Unlimited.
// Unknown plans fall back to the free cap.
func (l PlanLimits) ForPlan(p Plan) int64 {
	switch p {
	case PlanPro:
		return Unlimited
	case PlanFree:
		return l.FreeDaily
	default:
		return l.FreeDaily
	}
}

// Account is a registered identity with a plan and usage history.
// ID and Email are immutable after registration; Plan is flipped by an
// out-of-band billing process.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Plan      Plan      `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}
