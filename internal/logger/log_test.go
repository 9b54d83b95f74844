package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(false, &buf)

	log.Debug("hidden")
	log.Info("accounts found", zap.Int("count", 2))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "accounts found", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(2), entry["count"])
	assert.Contains(t, entry, "caller")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_DebugWritesConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(true, &buf)

	log.Debug("race resolved", zap.String("locator", "css:div.main-content"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, "debug")
	assert.Contains(t, out, "race resolved")
	assert.Contains(t, out, "css:div.main-content")
}
