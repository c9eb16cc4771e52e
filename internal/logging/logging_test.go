package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_LevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "warn", Format: FormatJSON}, &buf)
	l = ComponentLogger(l, "wiki")

	l.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	l.Warn().Msg("kept")
	var ev map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "wiki", ev["component"])
	assert.Equal(t, "kept", ev["message"])
}

func TestNewLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "chatty"}, &buf)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))

	id := GetOrGenerateTraceID(ctx)
	assert.Len(t, id, 26)

	ctx = ContextWithTraceID(ctx, id)
	assert.Equal(t, id, GetOrGenerateTraceID(ctx))

	var buf bytes.Buffer
	l := NewLogger(Config{Level: "debug"}, &buf)
	l.Info().Ctx(ctx).Msg("hello")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, id, ev["trace_id"])
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "info"}, &buf)
	ctx := l.WithContext(context.Background())

	FromContext(ctx).Info().Msg("via context")
	assert.Contains(t, buf.String(), "via context")

	// No logger in context: a disabled logger, never nil.
	assert.NotNil(t, FromContext(context.Background()))
}

func TestNewLoggerWithPath(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "citygap.log")
		res := NewLoggerWithPath(Config{Level: "info", Output: OutputFile, File: path})
		t.Cleanup(func() { _ = res.Close() })

		assert.True(t, res.UsingFile)
		assert.Equal(t, path, res.FilePath)
		assert.False(t, res.FallbackUsed)
	})

	t.Run("fallback", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "citygap.log")
		res := NewLoggerWithPath(Config{Output: OutputFile, File: path})
		assert.False(t, res.UsingFile)
		assert.True(t, res.FallbackUsed)
		assert.NotEmpty(t, res.FallbackReason)
		assert.NoError(t, res.Close())
	})

	t.Run("stderr", func(t *testing.T) {
		res := NewLoggerWithPath(Config{Output: OutputStderr})
		assert.False(t, res.UsingFile)
		assert.False(t, res.FallbackUsed)
	})

	t.Run("redirected", func(t *testing.T) {
		var buf bytes.Buffer
		res := NewLoggerWithPathTo(Config{Level: "warn", Format: FormatJSON}, &buf)
		res.Logger.Info().Msg("dropped")
		res.Logger.Warn().Msg("kept")
		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), `"message":"kept"`)
	})
}

func TestPrintHelpers(t *testing.T) {
	var buf bytes.Buffer
	PrintLogPathMessage(&buf, "/tmp/x.log")
	PrintFallbackWarning(&buf, "denied")
	assert.Contains(t, buf.String(), "Logging to /tmp/x.log")
	assert.Contains(t, buf.String(), "denied")
}
