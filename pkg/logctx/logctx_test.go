package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromCtx_PrefersStoredLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	stored := zap.New(core).Sugar().With("scope", "request")
	base := zap.NewNop().Sugar()

	ctx := WithLogger(context.Background(), stored)
	FromCtx(ctx, base).Info("hello")

	require.Equal(t, 1, logs.Len())
	require.Equal(t, "request", logs.All()[0].ContextMap()["scope"])
}

func TestFromCtx_EnrichesTraceID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core).Sugar()

	ctx := WithTraceID(context.Background(), "trace-1")
	require.Equal(t, "trace-1", TraceID(ctx))
	FromCtx(ctx, base).Info("hello")

	require.Equal(t, "trace-1", logs.All()[0].ContextMap()["trace_id"])
}
