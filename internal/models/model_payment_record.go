package models

import (
	"time"

	"github.com/lojinha-pet/billing/pkg/types"
)

// PaymentRecord is one row of the append-only payment ledger. Rows are
// created only by the billing event ingestor, never mutated or deleted.
// ExternalEventID is the idempotency key for at-least-once event delivery.
type PaymentRecord struct {
	ID        string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TenantKey string `gorm:"column:tenant_key;type:varchar(64);not null;index" json:"tenant_key"`
	// ExternalEventID is the processor's event id; the unique index is the
	// dedupe gate for duplicate deliveries.
	ExternalEventID         string  `gorm:"column:external_event_id;type:varchar(128);not null;uniqueIndex" json:"external_event_id"`
	ExternalInvoiceRef      *string `gorm:"column:external_invoice_ref;type:varchar(128);default:null" json:"external_invoice_ref"`
	ExternalPaymentRef      *string `gorm:"column:external_payment_ref;type:varchar(128);default:null" json:"external_payment_ref"`
	ExternalCustomerRef     string  `gorm:"column:external_customer_ref;type:varchar(128)" json:"external_customer_ref"`
	ExternalSubscriptionRef string  `gorm:"column:external_subscription_ref;type:varchar(128)" json:"external_subscription_ref"`
	// Amount in the currency's smallest unit.
	Amount   int64     `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency string    `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	PaidAt   time.Time `gorm:"column:paid_at;not null" json:"paid_at"`
	// PlanKey may be empty on renewal events when the processor does not
	// echo it; such rows get the fallback extension and ReviewFlag set.
	PlanKey types.PlanKey `gorm:"column:plan_key;type:varchar(32)" json:"plan_key"`
	// PeriodStart/PeriodEnd are present on renewal events only.
	PeriodStart *time.Time `gorm:"column:period_start;default:null" json:"period_start"`
	PeriodEnd   *time.Time `gorm:"column:period_end;default:null" json:"period_end"`
	// ReviewFlag marks rows applied with a conservative fallback that an
	// operator should confirm.
	ReviewFlag bool      `gorm:"column:review_flag;not null;default:false" json:"review_flag"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (PaymentRecord) TableName() string {
	return "payment_record"
}
