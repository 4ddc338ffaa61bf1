// Command worker consumes the kafka bus: webhook processing and default
// payment creation.
package main

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/extpay/internal/app"
)

func main() {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	a := fx.New(app.WorkerModule)
	startCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		zap.NewExample().Sugar().Errorf("failed to start worker: %v", err)
		exitCode = 1
		return
	}

	<-a.Done()

	stopCtx, cancel2 := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancel2()
	if err := a.Stop(stopCtx); err != nil {
		zap.NewExample().Sugar().Errorf("failed to stop worker: %v", err)
		exitCode = 1
	}
}
