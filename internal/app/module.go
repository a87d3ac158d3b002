package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/lojinha-pet/billing/internal/app/api/server"
	"github.com/lojinha-pet/billing/internal/app/service/billingevent"
	"github.com/lojinha-pet/billing/internal/app/service/cancellation"
	"github.com/lojinha-pet/billing/internal/app/service/checkout"
	"github.com/lojinha-pet/billing/internal/app/service/eventlog"
	"github.com/lojinha-pet/billing/internal/app/service/ledger"
	"github.com/lojinha-pet/billing/internal/app/service/subscription"
	"github.com/lojinha-pet/billing/internal/platform/db"
	"github.com/lojinha-pet/billing/internal/platform/processor"
	"github.com/lojinha-pet/billing/pkg/config"
	"github.com/lojinha-pet/billing/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	processor.Module,
	subscription.Module,
	ledger.Module,
	eventlog.Module,
	billingevent.Module,
	cancellation.Module,
	checkout.Module,
)
