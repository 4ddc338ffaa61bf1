package logger

import (
	"github.com/fatflowers/extpay/pkg/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Dev mode logs at debug level with caller
// stacks on warnings; other environments use the production JSON encoder.
func New(cfg *config.Config) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.IsDev() {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		zcfg.Development = true
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.TimeKey = "time"
	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar().With("app", "extpay"), nil
}

var Module = fx.Options(
	fx.Provide(New),
)
