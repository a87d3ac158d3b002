package billingevent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lojinha-pet/billing/internal/app/service/eventlog"
	ledgersvc "github.com/lojinha-pet/billing/internal/app/service/ledger"
	"github.com/lojinha-pet/billing/internal/app/service/lifecycle"
	"github.com/lojinha-pet/billing/internal/app/service/subscription"
	"github.com/lojinha-pet/billing/internal/models"
	"github.com/lojinha-pet/billing/pkg/config"
	"github.com/lojinha-pet/billing/pkg/logctx"
	"github.com/lojinha-pet/billing/pkg/types"
)

// Ingestor applies inbound processor events to the payment ledger and the
// subscription record store. The ledger insert and the validity extension
// run in one database transaction: a crash or store failure rolls both back,
// so the processor's retry re-runs the whole step and the idempotency gate
// stays truthful.
type Ingestor struct {
	cfg       *config.Config
	db        *gorm.DB
	subSvc    *subscription.Service
	ledgerSvc *ledgersvc.Service
	evlog     *eventlog.Service
	Logger    *zap.SugaredLogger
}

func NewIngestor(cfg *config.Config, db *gorm.DB, sub *subscription.Service, led *ledgersvc.Service, ev *eventlog.Service, log *zap.SugaredLogger) *Ingestor {
	return &Ingestor{cfg: cfg, db: db, subSvc: sub, ledgerSvc: led, evlog: ev, Logger: log}
}

// outcome describes how a delivery ended, for the event log.
type outcome struct {
	status    models.BillingEventLogStatus
	tenantKey string
	reason    string
}

// Ingest verifies and applies one webhook delivery.
//
// Returns nil when the event was handled or intentionally ignored (the
// processor must not retry), types.ErrInvalidSignature /
// types.ErrInvalidPayload for rejects the processor retries after fixing,
// and a wrapped store error when persistence failed (the processor retries).
func (h *Ingestor) Ingest(ctx context.Context, payload []byte, signature string) (resErr error) {
	if err := VerifySignature(h.cfg.Webhook.SharedSecret, payload, signature); err != nil {
		return err
	}

	env, err := parseEnvelope(payload)
	if err != nil {
		return err
	}

	var traceID string
	if tid, ok := ctx.Value("traceID").(string); ok {
		traceID = tid
	}

	h.evlog.Save(ctx, &models.BillingEventLog{
		EventKind:       env.Type,
		TraceID:         traceID,
		ExternalEventID: env.ID,
		EventTime:       time.Unix(env.CreatedAt, 0),
		Data:            datatypes.JSON(payload),
		Status:          models.BillingEventLogStatusReceived,
	})

	var out outcome
	defer func() {
		resMap := map[string]any{"status": string(out.status)}
		if out.reason != "" {
			resMap["reason"] = out.reason
		}
		if resErr != nil {
			out.status = models.BillingEventLogStatusHandleFailed
			resMap["status"] = string(out.status)
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		h.evlog.Save(ctx, &models.BillingEventLog{
			EventKind: env.Type,
			TenantKey: func() *string {
				if out.tenantKey == "" {
					return nil
				}
				return lo.ToPtr(out.tenantKey)
			}(),
			TraceID:         traceID,
			ExternalEventID: env.ID,
			EventTime:       time.Now(),
			Data:            datatypes.JSON(payload),
			Result:          lo.ToPtr(datatypes.JSON(resBytes)),
			Status:          out.status,
		})
	}()

	switch env.Type {
	case EventKindCheckoutCompleted:
		out, resErr = h.handleCheckoutCompleted(ctx, env)
	case EventKindInvoicePaid:
		out, resErr = h.handleInvoicePaid(ctx, env)
	default:
		// unknown kinds are acknowledged so they do not clog the
		// processor's retry queue
		logctx.FromCtx(ctx, h.Logger).Warnw("billing_event_unknown_kind", "type", env.Type, "event_id", env.ID)
		out = outcome{status: models.BillingEventLogStatusIgnored, reason: "unknown event kind"}
	}
	return resErr
}

func (h *Ingestor) handleCheckoutCompleted(ctx context.Context, env *Envelope) (outcome, error) {
	ev, err := parseData[checkoutCompletedEvent](env)
	if err != nil {
		return outcome{}, err
	}

	tenantKey := ev.tenantKey()
	if tenantKey == "" {
		// unroutable: acknowledged without state change, logged for review
		logctx.FromCtx(ctx, h.Logger).Warnw("billing_event_unroutable",
			"event_id", env.ID, "reason", types.ErrUnroutableEvent.Error())
		return outcome{status: models.BillingEventLogStatusIgnored, reason: types.ErrUnroutableEvent.Error()}, nil
	}

	paidAt := time.Now()
	validUntil, planKey, review := resolveValidity(paidAt, ev.PlanKey)

	rec := &models.PaymentRecord{
		TenantKey:               tenantKey,
		ExternalEventID:         env.ID,
		ExternalCustomerRef:     ev.CustomerRef,
		ExternalSubscriptionRef: ev.SubscriptionRef,
		Amount:                  ev.AmountTotal,
		Currency:                ev.Currency,
		PaidAt:                  paidAt,
		PlanKey:                 planKey,
		ReviewFlag:              review,
	}

	return h.applyPayment(ctx, env, rec, &subscription.ExtendValidityInput{
		TenantKey:               tenantKey,
		NewValidUntil:           validUntil,
		PlanKey:                 planKey,
		ExternalCustomerRef:     ev.CustomerRef,
		ExternalSubscriptionRef: ev.SubscriptionRef,
	})
}

func (h *Ingestor) handleInvoicePaid(ctx context.Context, env *Envelope) (outcome, error) {
	ev, err := parseData[invoicePaidEvent](env)
	if err != nil {
		return outcome{}, err
	}

	rec, err := h.subSvc.FindBySubscriptionRef(ctx, ev.SubscriptionRef)
	if err != nil {
		return outcome{}, err
	}
	if rec == nil {
		// renewal for a subscription this system never mapped
		logctx.FromCtx(ctx, h.Logger).Warnw("billing_event_unroutable",
			"event_id", env.ID, "subscription_ref", ev.SubscriptionRef)
		return outcome{status: models.BillingEventLogStatusIgnored, reason: types.ErrUnroutableEvent.Error()}, nil
	}

	planKey := ev.PlanKey
	if planKey == "" && rec.CurrentPlanKey != nil {
		planKey = *rec.CurrentPlanKey
	}

	paidAt := time.Unix(ev.PaidAt, 0)
	if ev.PaidAt == 0 {
		paidAt = time.Now()
	}
	validUntil, planKey, review := resolveValidity(paidAt, planKey)

	payment := &models.PaymentRecord{
		TenantKey:               rec.TenantKey,
		ExternalEventID:         env.ID,
		ExternalInvoiceRef:      nonEmptyPtr(ev.InvoiceRef),
		ExternalPaymentRef:      nonEmptyPtr(ev.PaymentRef),
		ExternalCustomerRef:     ev.CustomerRef,
		ExternalSubscriptionRef: ev.SubscriptionRef,
		Amount:                  ev.AmountPaid,
		Currency:                ev.Currency,
		PaidAt:                  paidAt,
		PlanKey:                 planKey,
		PeriodStart:             unixPtr(ev.PeriodStart),
		PeriodEnd:               unixPtr(ev.PeriodEnd),
		ReviewFlag:              review,
	}

	return h.applyPayment(ctx, env, payment, &subscription.ExtendValidityInput{
		TenantKey:               rec.TenantKey,
		NewValidUntil:           validUntil,
		PlanKey:                 planKey,
		ExternalCustomerRef:     ev.CustomerRef,
		ExternalSubscriptionRef: ev.SubscriptionRef,
	})
}

// applyPayment runs the idempotency gate and the validity extension in one
// transaction. A duplicate event id short-circuits into a success ack.
func (h *Ingestor) applyPayment(ctx context.Context, env *Envelope, rec *models.PaymentRecord, ext *subscription.ExtendValidityInput) (outcome, error) {
	duplicate := false
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := h.ledgerSvc.TryRecordEvent(ctx, tx, rec)
		if err != nil {
			return err
		}
		if !inserted {
			duplicate = true
			return nil
		}
		if _, err := h.subSvc.ExtendValidityTx(ctx, tx, ext); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return outcome{}, fmt.Errorf("failed to apply payment event %s: %w", env.ID, err)
	}

	if duplicate {
		return outcome{status: models.BillingEventLogStatusIgnored, tenantKey: rec.TenantKey, reason: "duplicate event id"}, nil
	}
	reason := ""
	if rec.ReviewFlag {
		reason = "fallback extension applied, flagged for review"
	}
	logctx.FromCtx(ctx, h.Logger).Infow("billing_event_applied",
		"event_id", env.ID, "tenant_key", rec.TenantKey,
		"valid_until", ext.NewValidUntil, "review_flag", rec.ReviewFlag)
	return outcome{status: models.BillingEventLogStatusHandled, tenantKey: rec.TenantKey, reason: reason}, nil
}

// resolveValidity applies the plan duration table, falling back to a
// conservative 30-day extension for unknown plans. Fallback rows record an
// empty plan key and get flagged rather than silently guessing.
func resolveValidity(paidAt time.Time, plan types.PlanKey) (time.Time, types.PlanKey, bool) {
	validUntil, err := lifecycle.PlanValidUntil(paidAt, plan)
	if err != nil {
		return lifecycle.FallbackValidUntil(paidAt), "", true
	}
	return validUntil, plan, false
}

func nonEmptyPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0)
	return &t
}
