package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestConsoleHandlerFormats(t *testing.T) {
	t.Parallel()
	var jsonBuf, textBuf bytes.Buffer

	slog.New(NewConsoleHandler(&jsonBuf, "json", slog.LevelInfo)).Info("hello", "id", "1")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])

	logger := slog.New(NewConsoleHandler(&textBuf, "text", slog.LevelWarn))
	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, textBuf.String(), "quiet")
	assert.Contains(t, textBuf.String(), "loud")
}

func TestFanoutRespectsEachLevel(t *testing.T) {
	t.Parallel()
	var debugBuf, errorBuf bytes.Buffer
	logger := slog.New(Fanout(
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)).With("component", "test")

	logger.Debug("details")
	logger.Error("broken")

	assert.Equal(t, 2, strings.Count(debugBuf.String(), "\n"))
	assert.Equal(t, 1, strings.Count(errorBuf.String(), "\n"))
	assert.Contains(t, errorBuf.String(), `"component":"test"`)
}

func TestRequestIDAttached(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(WithRequestID(slog.NewJSONHandler(&buf, nil)))

	ctx := ContextWithRequestID(context.Background(), "req-123")
	logger.InfoContext(ctx, "tagged")
	logger.Info("untagged")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"request_id":"req-123"`)
	assert.NotContains(t, lines[1], "request_id")
	assert.Equal(t, "req-123", RequestID(ctx))
}
