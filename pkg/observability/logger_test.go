package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates text logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})
		require.NotNil(t, logger)

		logger.Info("test message", "key", "value")

		assert.Contains(t, buf.String(), "test message")
		assert.Contains(t, buf.String(), "key=value")
	})

	t.Run("creates JSON logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &buf})

		logger.Info("test message", "key", "value")

		var logEntry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
		assert.Equal(t, "test message", logEntry["msg"])
		assert.Equal(t, "value", logEntry["key"])
	})

	t.Run("respects log level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelWarn, Format: LogFormatText, Output: &buf})

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")

		output := buf.String()
		assert.NotContains(t, output, "debug message")
		assert.NotContains(t, output, "info message")
		assert.Contains(t, output, "warn message")
	})

	t.Run("adds service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Level:          LogLevelInfo,
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "careslot-api",
			ServiceVersion: "1.0.0",
		})

		logger.Info("test")

		var logEntry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
		assert.Equal(t, "careslot-api", logEntry["service"])
		assert.Equal(t, "1.0.0", logEntry["version"])
	})

	t.Run("adds tracing ids from context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &buf})

		ctx := WithCorrelationID(context.Background(), "corr-123")
		ctx = WithRequestID(ctx, "req-456")
		ctx = WithUserID(ctx, "user-789")
		logger.InfoContext(ctx, "test with context")

		var logEntry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
		assert.Equal(t, "corr-123", logEntry[CorrelationIDKey])
		assert.Equal(t, "req-456", logEntry[RequestIDKey])
		assert.Equal(t, "user-789", logEntry[UserIDKey])
	})
}

func TestLogConfigFor(t *testing.T) {
	t.Run("development defaults", func(t *testing.T) {
		cfg := LogConfigFor("development", "", "")
		assert.Equal(t, LogLevelInfo, cfg.Level)
		assert.Equal(t, LogFormatText, cfg.Format)
		assert.Equal(t, "careslot", cfg.ServiceName)
	})

	t.Run("production uses json", func(t *testing.T) {
		cfg := LogConfigFor("production", "", "")
		assert.Equal(t, LogFormatJSON, cfg.Format)
		assert.True(t, cfg.AddSource)
	})

	t.Run("explicit overrides win", func(t *testing.T) {
		cfg := LogConfigFor("production", "DEBUG", "text")
		assert.Equal(t, LogLevelDebug, cfg.Level)
		assert.Equal(t, LogFormatText, cfg.Format)
	})
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected slog.Level
	}{
		{LogLevelDebug, slog.LevelDebug},
		{LogLevelInfo, slog.LevelInfo},
		{LogLevelWarn, slog.LevelWarn},
		{LogLevelError, slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.expected, parseSlogLevel(tt.input))
		})
	}
}

func TestContextHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	handler := contextHandler{slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})}

	assert.False(t, handler.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, handler.Enabled(context.Background(), slog.LevelWarn))
}

func TestContextHandler_KeepsIDsInsideGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf}).With("component", "hold_service")

	logger.InfoContext(WithRequestID(context.Background(), "req-1"), "hold created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry[RequestIDKey])
	assert.Equal(t, "hold_service", entry["component"])
	assert.NotContains(t, entry, CorrelationIDKey)
}

func TestWithIDs_MintWhenEmpty(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "")
	ctx = WithRequestID(ctx, "")

	assert.Len(t, CorrelationIDFromContext(ctx), 36)
	assert.Len(t, RequestIDFromContext(ctx), 36)
	assert.NotEqual(t, CorrelationIDFromContext(ctx), RequestIDFromContext(ctx))
	assert.Empty(t, UserIDFromContext(ctx))
}
