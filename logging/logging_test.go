package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

type status string

func (s status) String() string { return "status:" + string(s) }

func TestJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(&buf, "debug")

	logger.Error("Unit failed", "unit", "app1", "error", errors.New("boom"), "status", status("MOUNTED"), "attempt", 2)

	line := decodeLine(t, &buf)
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "Unit failed", line["message"])
	assert.Equal(t, "app1", line["unit"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "status:MOUNTED", line["status"])
	assert.InDelta(t, 2, line["attempt"], 0)
	assert.Contains(t, line, "time")
}

func TestOddArgs(t *testing.T) {
	var buf bytes.Buffer
	NewJSON(&buf, "info").Info("Odd", "dangling")

	line := decodeLine(t, &buf)
	assert.Equal(t, "dangling", line["!BADKEY"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(&buf, "warn")

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown", "took", time.Second)
	line := decodeLine(t, &buf)
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "1s", line["took"])
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info").Info("Unit registered", "unit", "navbar")

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "Unit registered")
	assert.Contains(t, out, "unit=navbar")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error("discarded", "error", errors.New("boom"))
	})
}
