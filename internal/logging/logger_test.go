package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Output: &buf})
	require.NoError(t, err)

	NewComponentLogger(logger, "scanner").Info("found references", slog.String("asset", "index.html"))
	logger.Debug("hidden")

	line := buf.String()
	assert.Contains(t, line, "[scanner] found references")
	assert.Contains(t, line, "asset=index.html")
	assert.NotContains(t, line, "\x1b[", "buffers are not terminals")
	assert.NotContains(t, line, "hidden")
}

func TestNew_ConsoleForcedColor(t *testing.T) {
	var buf bytes.Buffer
	on := true
	logger, err := New(Options{Output: &buf, Color: &on})
	require.NoError(t, err)
	logger.Warn("careful")
	assert.Contains(t, buf.String(), ansiYellow)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("resized", slog.String("variant", "200w"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "resized", rec["msg"])
	assert.Equal(t, "debug", rec["level"])
	assert.Equal(t, "200w", rec["variant"])
	assert.Contains(t, rec, "ts")
}

func TestNew_Quiet(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Quiet: true, Output: &buf})
	require.NoError(t, err)
	logger.Error("nothing")
	assert.Empty(t, buf.String())
}

func TestNew_UnsupportedFormat(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestQuoteIfNeeded(t *testing.T) {
	assert.Equal(t, "plain", quoteIfNeeded("plain"))
	assert.True(t, strings.HasPrefix(quoteIfNeeded("two words"), `"`))
	assert.Equal(t, `""`, quoteIfNeeded(""))
}

func TestNewComponentLogger_NilLogger(t *testing.T) {
	assert.NotNil(t, NewComponentLogger(nil, "x"))
}
