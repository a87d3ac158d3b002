package checkout

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lojinha-pet/billing/internal/platform/processor"
	"github.com/lojinha-pet/billing/pkg/config"
	"github.com/lojinha-pet/billing/pkg/logctx"
	"github.com/lojinha-pet/billing/pkg/types"
)

// Service creates hosted checkout sessions on the processor. The tenant key
// rides in the session metadata so the checkout-completed event can be routed
// back to the tenant.
type Service struct {
	cfg       *config.Config
	processor processor.Client
	log       *zap.SugaredLogger
}

func NewService(cfg *config.Config, proc processor.Client, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, processor: proc, log: log}
}

// CreateSession returns the hosted payment page URL for the tenant and plan.
func (s *Service) CreateSession(ctx context.Context, tenantKey string, plan types.PlanKey) (string, error) {
	if !plan.Valid() {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownPlan, plan)
	}
	item := s.cfg.GetPlanByKey(plan)
	if item == nil {
		return "", fmt.Errorf("%w: no processor item configured for %q", types.ErrUnknownPlan, plan)
	}

	session, err := s.processor.CreateCheckoutSession(ctx, &processor.CheckoutSessionRequest{
		TenantKey: tenantKey,
		PlanKey:   string(plan),
		ItemID:    item.ProcessorItemID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("checkout_session_created",
		"tenant_key", tenantKey, "plan_key", plan)
	return session.URL, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
