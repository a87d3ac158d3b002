package billingevent

import "go.uber.org/fx"

// Module exposes the billing event ingestor via Fx.
var Module = fx.Options(
	fx.Provide(NewIngestor),
)
