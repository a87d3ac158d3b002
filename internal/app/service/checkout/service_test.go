package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lojinha-pet/billing/internal/platform/processor"
	"github.com/lojinha-pet/billing/pkg/config"
	"github.com/lojinha-pet/billing/pkg/types"
)

type stubProcessor struct {
	lastReq *processor.CheckoutSessionRequest
}

func (s *stubProcessor) CancelAtPeriodEnd(_ context.Context, _ string) error { panic("not used") }

func (s *stubProcessor) CreateCheckoutSession(_ context.Context, req *processor.CheckoutSessionRequest) (*processor.CheckoutSession, error) {
	s.lastReq = req
	return &processor.CheckoutSession{URL: "https://pay.example.com/cs_123"}, nil
}

func newService(proc processor.Client) *Service {
	cfg := &config.Config{Plans: []*config.PlanItem{
		{PlanKey: types.PlanKeyMonthly, ProcessorItemID: "item_monthly"},
		{PlanKey: types.PlanKeyAnnual, ProcessorItemID: "item_annual"},
	}}
	return NewService(cfg, proc, zap.NewNop().Sugar())
}

func TestCreateSession(t *testing.T) {
	proc := &stubProcessor{}
	svc := newService(proc)

	url, err := svc.CreateSession(context.Background(), "12345678000190", types.PlanKeyMonthly)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/cs_123", url)
	require.NotNil(t, proc.lastReq)
	assert.Equal(t, "item_monthly", proc.lastReq.ItemID)
	assert.Equal(t, "12345678000190", proc.lastReq.TenantKey)
}

func TestCreateSession_UnknownPlan(t *testing.T) {
	svc := newService(&stubProcessor{})

	_, err := svc.CreateSession(context.Background(), "12345678000190", types.PlanKey("weekly"))
	require.ErrorIs(t, err, types.ErrUnknownPlan)

	// valid plan key without a configured processor item
	_, err = svc.CreateSession(context.Background(), "12345678000190", types.PlanKeyQuarterly)
	require.ErrorIs(t, err, types.ErrUnknownPlan)
}
