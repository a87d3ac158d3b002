package billingevent

import (
	"encoding/json"
	"fmt"

	"github.com/lojinha-pet/billing/pkg/types"
)

// Event kinds delivered by the payment processor.
const (
	EventKindCheckoutCompleted = "checkout.completed"
	EventKindInvoicePaid       = "invoice.paid"
)

// Envelope is the outer shape of every processor event.
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt int64           `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

// checkoutCompletedEvent is the payload of a first-time subscribe. The
// tenant key travels in the checkout metadata the application attached when
// creating the session.
type checkoutCompletedEvent struct {
	CustomerRef     string            `json:"customer_ref"`
	SubscriptionRef string            `json:"subscription_ref"`
	PlanKey         types.PlanKey     `json:"plan_key"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata"`
}

func (e *checkoutCompletedEvent) tenantKey() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata["tenant_key"]
}

// invoicePaidEvent is the payload of a renewal. Timestamps are unix seconds
// as reported by the processor. PlanKey is best-effort; processors do not
// always echo it.
type invoicePaidEvent struct {
	InvoiceRef      string        `json:"invoice_ref"`
	PaymentRef      string        `json:"payment_ref"`
	CustomerRef     string        `json:"customer_ref"`
	SubscriptionRef string        `json:"subscription_ref"`
	PlanKey         types.PlanKey `json:"plan_key"`
	AmountPaid      int64         `json:"amount_paid"`
	Currency        string        `json:"currency"`
	PaidAt          int64         `json:"paid_at"`
	PeriodStart     int64         `json:"period_start"`
	PeriodEnd       int64         `json:"period_end"`
}

func parseEnvelope(payload []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidPayload, err)
	}
	if env.ID == "" || env.Type == "" {
		return nil, fmt.Errorf("%w: missing event id or type", types.ErrInvalidPayload)
	}
	return &env, nil
}

func parseData[T any](env *Envelope) (*T, error) {
	var data T
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidPayload, err)
	}
	return &data, nil
}
