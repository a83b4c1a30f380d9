package logger

import (
	"context"
	"testing"

	"franchise-catalog/internal/shared/contextkeys"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_SelectsBackend(t *testing.T) {
	_, ok := New(Options{Backend: "logrus", Level: "debug"}).(*LogrusLogger)
	assert.True(t, ok)
	_, ok = New(Options{Backend: "zap", Level: "debug", Format: "json"}).(*ZapLogger)
	assert.True(t, ok)
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_BACKEND", "zap")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("ENVIRONMENT", "production")

	opts := OptionsFromEnv()
	assert.Equal(t, "zap", opts.Backend)
	assert.Equal(t, "text", opts.Format)
	assert.True(t, opts.json())

	_, ok := NewLogger().(*ZapLogger)
	assert.True(t, ok)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, logrus.DebugLevel, parseLevel("debug"))
	assert.Equal(t, logrus.InfoLevel, parseLevel("trace"))
	assert.Equal(t, logrus.InfoLevel, parseLevel("nonsense"))
	assert.Equal(t, zapcore.ErrorLevel, parseZapLevel("ERROR"))
}

func TestLogrusLogger_EmptyContextKeepsLogger(t *testing.T) {
	log := New(Options{Level: "info"})
	assert.Same(t, log, log.WithContext(context.Background()))

	ctx := context.WithValue(context.Background(), contextkeys.RequestIDKey, "req-1")
	assert.NotSame(t, log, log.WithContext(ctx))
	assert.NotNil(t, log.WithComponent("facade").WithFields(map[string]interface{}{"k": "v"}))
}

func TestZapLogger_ContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLoggerFrom(zap.New(core))

	ctx := context.WithValue(context.Background(), contextkeys.FranchiseIDKey, "f-42")
	ctx = context.WithValue(ctx, contextkeys.RequestIDKey, "req-9")
	log.WithContext(ctx).WithComponent("facade").Info("hydrated")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "hydrated", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "f-42", fields["franchise_id"])
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "facade", fields["component"])
}

func TestZapLogger_EmptyContextKeepsLogger(t *testing.T) {
	log := NewZapLogger("info", "text")
	assert.Same(t, log, log.WithContext(context.Background()))
}
