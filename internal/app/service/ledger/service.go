package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lojinha-pet/billing/internal/models"
	"github.com/lojinha-pet/billing/pkg/logctx"
	"github.com/lojinha-pet/billing/pkg/tool"
	"github.com/lojinha-pet/billing/pkg/types"
)

// Service is the append-only payment ledger. Rows are deduplicated on the
// processor's event id, which makes at-least-once webhook delivery safe.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// TryRecordEvent inserts rec unless its external event id was already seen.
// Returns inserted=false for a duplicate without touching anything else.
// Callers must consult this gate before extending validity, and must run it
// on the same transaction as the extension so the two writes commit together.
func (s *Service) TryRecordEvent(ctx context.Context, tx *gorm.DB, rec *models.PaymentRecord) (bool, error) {
	if rec == nil || rec.ExternalEventID == "" {
		return false, fmt.Errorf("external event id is required")
	}
	if tx == nil {
		tx = s.db
	}
	if rec.ID == "" {
		rec.ID = tool.GenerateUUIDV7()
	}

	res := tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_event_id"}}, DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		return false, fmt.Errorf("failed to record payment event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		logctx.FromCtx(ctx, s.log).Infow("duplicate_payment_event",
			"external_event_id", rec.ExternalEventID, "tenant_key", rec.TenantKey)
		return false, nil
	}
	return true, nil
}

// ScanPaymentsRequest is the admin listing request with filters, pagination
// and sorting.
type ScanPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanPaymentsResponse struct {
	Items []*models.PaymentRecord `json:"items"`
	Total int64                   `json:"total"`
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

// ScanPayments implements the paginated admin listing over the ledger,
// including review-flagged rows.
func (s *Service) ScanPayments(ctx context.Context, req *ScanPaymentsRequest) (*ScanPaymentsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.PaymentRecord{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payment records: %w", err)
	}

	var rows []*models.PaymentRecord

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy == "" {
		req.SortBy = "paid_at"
	}
	q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})

	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}

	return &ScanPaymentsResponse{Items: rows, Total: total}, nil
}
