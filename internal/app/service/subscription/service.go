package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lojinha-pet/billing/internal/app/service/lifecycle"
	"github.com/lojinha-pet/billing/internal/models"
	"github.com/lojinha-pet/billing/pkg/logctx"
	"github.com/lojinha-pet/billing/pkg/tool"
	"github.com/lojinha-pet/billing/pkg/types"
)

// Service owns the per-tenant SubscriptionRecord. It is the only writer of
// the stored status, and it always re-derives status via lifecycle.DeriveStatus
// before persisting.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// GetOrInitTrial returns the tenant's record, creating a 30-day trial record
// if none exists. If the stored status has drifted from the derived one, the
// correction is persisted before returning. This path never extends validity.
//
// Creation is insert-if-absent: two concurrent bootstraps both converge on
// whichever row landed first, and neither extends validity, so the race is
// harmless.
func (s *Service) GetOrInitTrial(ctx context.Context, tenantKey string) (*models.SubscriptionRecord, error) {
	if tenantKey == "" {
		return nil, fmt.Errorf("tenant key is required")
	}

	now := time.Now()
	trialStart := now
	candidate := &models.SubscriptionRecord{
		ID:             tool.GenerateUUIDV7(),
		TenantKey:      tenantKey,
		ValidUntil:     now.Add(lifecycle.TrialDuration),
		TrialStartedAt: &trialStart,
	}
	candidate.Status = lifecycle.DeriveStatus(candidate.ValidUntil, now)

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tenant_key"}}, DoNothing: true}).
		Create(candidate)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to bootstrap trial record: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		logctx.FromCtx(ctx, s.log).Infow("trial_bootstrapped",
			"tenant_key", tenantKey, "valid_until", candidate.ValidUntil)
	}

	var rec models.SubscriptionRecord
	if err := s.db.WithContext(ctx).Where("tenant_key = ?", tenantKey).First(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscription record: %w", err)
	}

	if derived := lifecycle.DeriveStatus(rec.ValidUntil, now); derived != rec.Status {
		rec.Status = derived
		if err := s.db.WithContext(ctx).Model(&models.SubscriptionRecord{}).
			Where("tenant_key = ?", tenantKey).
			Update("status", derived).Error; err != nil {
			return nil, fmt.Errorf("failed to persist recomputed status: %w", err)
		}
	}
	return &rec, nil
}

// FindByTenantKey loads a record without bootstrapping a trial. Returns
// gorm.ErrRecordNotFound (wrapped) when the tenant has no record.
func (s *Service) FindByTenantKey(ctx context.Context, tenantKey string) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	if err := s.db.WithContext(ctx).Where("tenant_key = ?", tenantKey).First(&rec).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscription record: %w", err)
	}
	return &rec, nil
}

// FindBySubscriptionRef resolves the tenant that owns an external
// subscription reference. Returns (nil, nil) when no record maps to it.
func (s *Service) FindBySubscriptionRef(ctx context.Context, subscriptionRef string) (*models.SubscriptionRecord, error) {
	if subscriptionRef == "" {
		return nil, nil
	}
	var rec models.SubscriptionRecord
	err := s.db.WithContext(ctx).Where("external_subscription_ref = ?", subscriptionRef).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscription ref: %w", err)
	}
	return &rec, nil
}

// ExtendValidityInput carries the fields a successfully ingested payment
// event writes onto the record.
type ExtendValidityInput struct {
	TenantKey               string
	NewValidUntil           time.Time
	PlanKey                 types.PlanKey
	ExternalCustomerRef     string
	ExternalSubscriptionRef string
}

// ExtendValidity upserts the tenant record with a new validity deadline.
// The write is an absolute replacement of valid_until: an early renewal
// forfeits the unused remainder of the previous period.
func (s *Service) ExtendValidity(ctx context.Context, in *ExtendValidityInput) (*models.SubscriptionRecord, error) {
	return s.ExtendValidityTx(ctx, s.db, in)
}

// ExtendValidityTx is ExtendValidity running on the caller's transaction so
// the ledger insert and the extension commit or roll back together.
func (s *Service) ExtendValidityTx(ctx context.Context, tx *gorm.DB, in *ExtendValidityInput) (*models.SubscriptionRecord, error) {
	if in == nil || in.TenantKey == "" {
		return nil, fmt.Errorf("tenant key is required")
	}

	var original models.SubscriptionRecord
	err := tx.WithContext(ctx).Where("tenant_key = ?", in.TenantKey).First(&original).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load subscription record: %w", err)
	}

	now := time.Now()
	rec := &models.SubscriptionRecord{
		TenantKey:  in.TenantKey,
		ValidUntil: in.NewValidUntil,
	}
	if original.ID != "" {
		rec.ID = original.ID
		rec.CreatedAt = original.CreatedAt
		// set once, never overwritten
		rec.TrialStartedAt = original.TrialStartedAt
	} else {
		rec.ID = tool.GenerateUUIDV7()
	}
	if in.PlanKey != "" {
		plan := in.PlanKey
		rec.CurrentPlanKey = &plan
	} else {
		rec.CurrentPlanKey = original.CurrentPlanKey
	}
	if in.ExternalCustomerRef != "" {
		ref := in.ExternalCustomerRef
		rec.ExternalCustomerRef = &ref
	} else {
		rec.ExternalCustomerRef = original.ExternalCustomerRef
	}
	if in.ExternalSubscriptionRef != "" {
		ref := in.ExternalSubscriptionRef
		rec.ExternalSubscriptionRef = &ref
	} else {
		rec.ExternalSubscriptionRef = original.ExternalSubscriptionRef
	}
	rec.Status = lifecycle.DeriveStatus(rec.ValidUntil, now)

	if err := tx.WithContext(ctx).Save(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert subscription record: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("validity_extended",
		"tenant_key", in.TenantKey,
		"valid_until", rec.ValidUntil,
		"plan_key", in.PlanKey,
		"status", rec.Status,
	)
	return rec, nil
}
