package models

import (
	"time"

	"github.com/lojinha-pet/billing/pkg/types"
)

// SubscriptionRecord is the single per-tenant subscription row. It is
// upsert-only and never deleted in normal operation.
//
// Status is always recomputed from ValidUntil before a write; it is stored
// only so list views and external consumers can read it without re-deriving.
type SubscriptionRecord struct {
	ID string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	// TenantKey is the company registration number identifying the tenant.
	TenantKey string                   `gorm:"column:tenant_key;type:varchar(64);not null;uniqueIndex" json:"tenant_key"`
	Status    types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// ValidUntil is the instant after which access is no longer
	// unconditionally granted. It only moves forward: trial bootstrap sets
	// it once, successful payment events replace it.
	ValidUntil time.Time `gorm:"column:valid_until;not null" json:"valid_until"`
	// TrialStartedAt is set once by trial bootstrap and never overwritten.
	// Nil for tenants whose first contact was a checkout event.
	TrialStartedAt *time.Time `gorm:"column:trial_started_at;default:null" json:"trial_started_at"`
	// CurrentPlanKey is nil while the tenant is on trial with no paid plan.
	CurrentPlanKey *types.PlanKey `gorm:"column:current_plan_key;type:varchar(32);default:null" json:"current_plan_key"`
	// Opaque identifiers assigned by the payment processor, nil until the
	// first checkout completes.
	ExternalCustomerRef     *string   `gorm:"column:external_customer_ref;type:varchar(128);default:null" json:"external_customer_ref"`
	ExternalSubscriptionRef *string   `gorm:"column:external_subscription_ref;type:varchar(128);default:null;index" json:"external_subscription_ref"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (SubscriptionRecord) TableName() string {
	return "subscription_record"
}
