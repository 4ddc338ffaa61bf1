package transaction

import (
	"go.uber.org/fx"

	"github.com/fatflowers/extpay/internal/platform/bus"
)

func registerHandlers(router *bus.Router, r *Recorder) {
	router.Register(MessageProcessWebhook, r.HandleProcessWebhook)
}

// Module exposes the transaction recorder via Fx.
var Module = fx.Options(
	fx.Provide(NewRepository),
	fx.Provide(NewRecorder),
	fx.Invoke(registerHandlers),
)
