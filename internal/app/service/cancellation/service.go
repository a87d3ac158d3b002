package cancellation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lojinha-pet/billing/internal/app/service/subscription"
	"github.com/lojinha-pet/billing/internal/platform/processor"
	"github.com/lojinha-pet/billing/pkg/logctx"
	"github.com/lojinha-pet/billing/pkg/types"
)

// Service asks the processor to stop auto-renewal at period end. It never
// modifies local billing state: the tenant's status keeps deriving from
// valid_until and decays naturally once no renewal event arrives. Keeping
// cancellation off the local record avoids a second source of truth for
// "is this tenant allowed in".
type Service struct {
	subSvc    *subscription.Service
	processor processor.Client
	log       *zap.SugaredLogger
}

func NewService(sub *subscription.Service, proc processor.Client, log *zap.SugaredLogger) *Service {
	return &Service{subSvc: sub, processor: proc, log: log}
}

type Result struct {
	Scheduled bool      `json:"scheduled"`
	PeriodEnd time.Time `json:"period_end"`
}

// RequestCancelAtPeriodEnd schedules cancellation of the tenant's external
// subscription. Tenants with no external subscription (trial, or never
// checked out) get types.ErrNoActiveSubscription.
func (s *Service) RequestCancelAtPeriodEnd(ctx context.Context, tenantKey string) (*Result, error) {
	rec, err := s.subSvc.FindByTenantKey(ctx, tenantKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNoActiveSubscription
		}
		return nil, err
	}
	if rec.ExternalSubscriptionRef == nil || *rec.ExternalSubscriptionRef == "" {
		return nil, types.ErrNoActiveSubscription
	}

	if err := s.processor.CancelAtPeriodEnd(ctx, *rec.ExternalSubscriptionRef); err != nil {
		return nil, fmt.Errorf("failed to request cancellation: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("cancellation_scheduled",
		"tenant_key", tenantKey, "period_end", rec.ValidUntil)
	return &Result{Scheduled: true, PeriodEnd: rec.ValidUntil}, nil
}
