package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := LogsConfig{CollectorEndpoint: "localhost:14317", ServiceName: "po-lifecycle"}

	lp, err := NewLoggerProvider(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.Equal(t, cfg, lp.GetConfig())
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))

	core := NewZapOTELCore(ZapBridgeConfig{Name: "po-lifecycle", LoggerProvider: lp})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestNewZapOTELCore_NilProvider(t *testing.T) {
	core := NewZapOTELCore(ZapBridgeConfig{Name: "po-lifecycle"})
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}

func TestNewZapOTELCore_LevelFilter(t *testing.T) {
	ctx := context.Background()
	lp, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:19999",
		ServiceName:       "po-lifecycle",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithCancel(ctx)
		cancel()
		_ = lp.Shutdown(shutdownCtx)
	})

	core := NewZapOTELCore(ZapBridgeConfig{Name: "po-lifecycle", LoggerProvider: lp, Level: zapcore.WarnLevel})
	_, filtered := core.(*levelFilterCore)
	require.True(t, filtered)

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, recorded := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	log := zap.New(core).With(zap.String("order_id", "po-1"))

	log.Info("status changed")
	log.Warn("quality issues found")
	log.Error("order service unreachable")

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "quality issues found", entries[0].Message)
	assert.Equal(t, "po-1", entries[0].ContextMap()["order_id"])
}
