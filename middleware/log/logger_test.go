package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Kostikrut/bubbly-back/config"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates logger with JSON format and stdout output", func(t *testing.T) {
		cfg := &config.LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		}

		log, err := NewLogger(cfg)
		require.NoError(t, err)
		require.NotNil(t, log)

		log.Info("test message")
	})

	t.Run("creates logger with console format", func(t *testing.T) {
		cfg := &config.LoggingConfig{
			Level:  "debug",
			Format: "console",
			Output: "stdout",
		}

		log, err := NewLogger(cfg)
		require.NoError(t, err)
		require.NotNil(t, log)

		log.Debug("test debug message")
	})

	t.Run("creates logger with file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "test.log")

		cfg := &config.LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "file",
			FilePath: logFile,
		}

		log, err := NewLogger(cfg)
		require.NoError(t, err)
		require.NotNil(t, log)

		log.Info("test file message")
		require.NoError(t, log.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test file message")
	})

	t.Run("defaults to info level for invalid level", func(t *testing.T) {
		cfg := &config.LoggingConfig{
			Level:  "invalid",
			Format: "json",
			Output: "stdout",
		}

		log, err := NewLogger(cfg)
		require.NoError(t, err)
		require.NotNil(t, log)
	})
}

func TestNewDevelopmentLogger(t *testing.T) {
	log, err := NewDevelopmentLogger()
	require.NoError(t, err)
	require.NotNil(t, log)

	log.Debug("development debug message")
	log.Info("development info message")
}

func TestWithTraceID(t *testing.T) {
	log, err := NewDevelopmentLogger()
	require.NoError(t, err)

	withTrace := log.WithTraceID("test-trace-123")
	require.NotNil(t, withTrace)
	assert.NotEqual(t, log, withTrace)

	withTrace.Info("message with trace ID")
}

func TestWithContext(t *testing.T) {
	log, err := NewDevelopmentLogger()
	require.NoError(t, err)

	t.Run("extracts trace ID from context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), TraceIDKey, "context-trace-456")

		withContext := log.WithContext(ctx)
		require.NotNil(t, withContext)
		assert.NotEqual(t, log, withContext)

		withContext.Info("message with context trace ID")
	})

	t.Run("returns original logger when no trace ID in context", func(t *testing.T) {
		withContext := log.WithContext(context.Background())
		assert.Equal(t, log, withContext)
	})
}

func TestTraceIDInLogs(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "trace_test.log")

	cfg := &config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	log, err := NewLogger(cfg)
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "trace-abc-123")
	log.WithContext(ctx).Info("message with trace ID")
	require.NoError(t, log.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &logEntry))
	assert.Equal(t, "trace-abc-123", logEntry["trace_id"])
}

func TestLogLevelFiltering(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "level_test.log")

	cfg := &config.LoggingConfig{
		Level:    "warn",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	log, err := NewLogger(cfg)
	require.NoError(t, err)

	log.Debug("debug message - should not appear")
	log.Info("info message - should not appear")
	log.Warn("warn message - should appear")
	log.Error("error message - should appear")
	require.NoError(t, log.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	logContent := string(content)
	assert.NotContains(t, logContent, "debug message")
	assert.NotContains(t, logContent, "info message")
	assert.Contains(t, logContent, "warn message")
	assert.Contains(t, logContent, "error message")
}

func TestJSONFormat(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "json_test.log")

	cfg := &config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	log, err := NewLogger(cfg)
	require.NoError(t, err)

	log.Info("test json message",
		zap.String("user_id", "user123"),
		zap.Int("count", 42),
		zap.Bool("active", true),
	)
	require.NoError(t, log.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &logEntry))

	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "test json message", logEntry["message"])
	assert.Equal(t, "user123", logEntry["user_id"])
	assert.Equal(t, float64(42), logEntry["count"])
	assert.Equal(t, true, logEntry["active"])
	assert.NotEmpty(t, logEntry["timestamp"])
}

func TestConsoleFormatOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "console_test.log")

	cfg := &config.LoggingConfig{
		Level:    "info",
		Format:   "console",
		Output:   "file",
		FilePath: logFile,
	}

	log, err := NewLogger(cfg)
	require.NoError(t, err)

	log.Info("console format message", zap.String("key1", "value1"))
	require.NoError(t, log.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	logContent := string(content)
	assert.Contains(t, logContent, "console format message")
	assert.Contains(t, logContent, "key1")

	// console output is not valid JSON
	var jsonTest map[string]any
	assert.Error(t, json.Unmarshal(bytes.TrimSpace(content), &jsonTest))
}

func TestWithFieldsChaining(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "chaining_test.log")

	cfg := &config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	log, err := NewLogger(cfg)
	require.NoError(t, err)

	log.WithFields(zap.String("service", "api")).
		WithFields(zap.String("component", "websocket")).
		WithTraceID("trace-chain-456").
		Info("chained logger message")
	require.NoError(t, log.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &logEntry))

	assert.Equal(t, "api", logEntry["service"])
	assert.Equal(t, "websocket", logEntry["component"])
	assert.Equal(t, "trace-chain-456", logEntry["trace_id"])
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"invalid", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestLoggerClose(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "close_test.log")

	cfg := &config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	log, err := NewLogger(cfg)
	require.NoError(t, err)

	log.Info("test message before close")
	require.NoError(t, log.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test message before close")
}
