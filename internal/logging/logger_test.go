package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-lookup/internal/config"
)

func TestJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	l := New(&config.AppConfig{AppEnv: "production", LogLevel: slog.LevelInfo}, &buf, "weather-lookup")
	l.Debug("hidden")
	l.Info("hello", "k", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "weather-lookup", rec["app"])
	assert.Equal(t, "production", rec["env"])
}

func TestTintInDev(t *testing.T) {
	var buf bytes.Buffer
	l := New(&config.AppConfig{AppEnv: "dev", LogLevel: slog.LevelDebug}, &buf, "weather-lookup")
	l.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "weather-lookup")
}
