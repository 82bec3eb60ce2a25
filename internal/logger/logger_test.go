package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLevel(t *testing.T) {
	cases := []struct {
		env, level string
		want       slog.Level
	}{
		{"production", "", slog.LevelInfo},
		{"staging", "", slog.LevelInfo},
		{"development", "", slog.LevelDebug},
		{"production", "debug", slog.LevelDebug},
		{"development", "WARN", slog.LevelWarn},
		{"development", "bogus", slog.LevelDebug},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resolveLevel(tc.env, tc.level), "env=%s level=%s", tc.env, tc.level)
	}
}

func TestNewWithWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production", "")

	log.Debug("hidden")
	log.Info("visible", "topic", "monsoon")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "monsoon", entry["topic"])
	assert.Equal(t, "searchagent", entry["service"])
}
