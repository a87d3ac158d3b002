package lifecycle

import (
	"fmt"
	"time"

	"github.com/lojinha-pet/billing/pkg/types"
)

const (
	// TrialDuration is the access window granted on first contact with no
	// payment.
	TrialDuration = 30 * 24 * time.Hour

	// expiringSoonWindow is how close to expiry a subscription must be to
	// report expiring_soon instead of active.
	expiringSoonWindow = 10 * 24 * time.Hour

	// blockedAfter is how long past expiry a subscription stays overdue
	// before it is blocked.
	blockedAfter = 15 * 24 * time.Hour

	day = 24 * time.Hour
)

// DeriveStatus maps a validity deadline and the current time onto the
// lifecycle status. It is the only source of truth for status: callers must
// re-derive on every read and write instead of trusting a stored value.
//
// Comparisons are duration-precise, not whole-day: one second past the
// overdue window already blocks.
func DeriveStatus(validUntil, now time.Time) types.SubscriptionStatus {
	delta := validUntil.Sub(now)
	if delta >= 0 {
		if delta <= expiringSoonWindow {
			return types.SubscriptionStatusExpiringSoon
		}
		return types.SubscriptionStatusActive
	}
	if -delta > blockedAfter {
		return types.SubscriptionStatusBlocked
	}
	return types.SubscriptionStatusOverdue
}

// PlanValidUntil computes the validity deadline granted by a payment made at
// paidAt for the given plan. The annual plan shifts by one calendar year, not
// a fixed 365 days.
func PlanValidUntil(paidAt time.Time, plan types.PlanKey) (time.Time, error) {
	switch plan {
	case types.PlanKeyMonthly:
		return paidAt.Add(30 * day), nil
	case types.PlanKeyQuarterly:
		return paidAt.Add(93 * day), nil
	case types.PlanKeySemiannual:
		return paidAt.Add(186 * day), nil
	case types.PlanKeyAnnual:
		return paidAt.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", types.ErrUnknownPlan, plan)
	}
}

// FallbackValidUntil is the conservative extension applied when a renewal
// event carries no recognizable plan. Rows extended this way are flagged for
// manual review.
func FallbackValidUntil(paidAt time.Time) time.Time {
	return paidAt.Add(30 * day)
}
