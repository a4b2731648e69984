package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/volunteer-board/internal/logging"
	"github.com/nhle/volunteer-board/internal/model"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("nonsense"))
}

func TestNew_JSONFormatRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, model.LogConfig{Level: "warn", Format: "json"})

	logger.Info("dropped")
	logger.Warn("kept", "enrollment_id", "en-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "en-1", record["enrollment_id"])
}

func TestWatermillAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, model.LogConfig{Level: "debug", Format: "json"})

	adapter := logging.NewWatermillAdapter(logger).With(watermill.LogFields{"topic": "notifications"})
	adapter.Error("publish failed", errors.New("closed"), nil)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "publish failed", record["msg"])
	assert.Equal(t, "notifications", record["topic"])
	assert.Equal(t, "watermill", record["component"])
	assert.Equal(t, "closed", record["error"])
}
