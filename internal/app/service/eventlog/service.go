package eventlog

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lojinha-pet/billing/internal/models"
	"github.com/lojinha-pet/billing/pkg/logctx"
	"github.com/lojinha-pet/billing/pkg/tool"
)

// Service persists billing event delivery logs. Writes are asynchronous and
// best-effort: a failed log write never fails event processing.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	wg  sync.WaitGroup
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a billing event log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, entry *models.BillingEventLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save billing event log: %v", err)
		}
	}()
}

// Flush blocks until every in-flight log write has finished. Shutdown and
// tests use it so no write races the store going away.
func (s *Service) Flush() { s.wg.Wait() }

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(registerFlushOnStop),
)

// registerFlushOnStop drains pending log writes before the database pool is
// closed on shutdown.
func registerFlushOnStop(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			s.Flush()
			return nil
		},
	})
}
