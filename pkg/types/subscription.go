package types

import "time"

// SubscriptionStatus is derived from valid_until and the current time; it is
// never written directly by callers.
type SubscriptionStatus string

const (
	SubscriptionStatusActive       SubscriptionStatus = "active"
	SubscriptionStatusExpiringSoon SubscriptionStatus = "expiring_soon"
	SubscriptionStatusOverdue      SubscriptionStatus = "overdue"
	SubscriptionStatusBlocked      SubscriptionStatus = "blocked"
)

// TenantSubscriptionInfo is the status payload returned to authenticated callers.
type TenantSubscriptionInfo struct {
	Status         SubscriptionStatus `json:"status"`
	ValidUntil     time.Time          `json:"valid_until"`
	TrialStartedAt *time.Time         `json:"trial_started_at"`
	CurrentPlanKey *PlanKey           `json:"current_plan_key"`
}
