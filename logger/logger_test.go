package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLoggerFrom(zap.New(core)).Named("settlement")

	log.Warn("lookup failed", map[string]any{
		"rail":  "lightning",
		"error": errors.New("timeout"),
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "lookup failed", entry.Message)
	assert.Equal(t, "settlement", entry.LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "lightning", fields["rail"])
	assert.Equal(t, "timeout", fields["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestZapLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receive.log")
	log := NewZapLoggerWithOptions(ZapOptions{Level: "info", File: path})

	log.Debug("hidden", nil)
	log.Info("receive request ready", map[string]any{"amount": 5000})
	require.NoError(t, log.(*ZapLogger).Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "receive request ready")
	assert.NotContains(t, string(data), "hidden")
}

func TestOrNoop(t *testing.T) {
	assert.IsType(t, NoopLogger{}, OrNoop(nil))
	assert.NotPanics(t, func() {
		NoopLogger{}.Named("x").Error("ignored", map[string]any{"k": 1})
	})
}
