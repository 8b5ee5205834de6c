package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warn"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLogLevel("error"))
	assert.Equal(t, InfoLevel, ParseLogLevel("info"))
	assert.Equal(t, InfoLevel, ParseLogLevel("garbage"))
}

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(InfoLevel, &buf)

	log.WithField("component", "engine").
		WithError(errors.New("boom")).
		WithCaller("dev@example.com").
		Warn("something happened")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "something happened", line["msg"])
	assert.Equal(t, "engine", line["component"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "dev@example.com", line["caller"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(WarnLevel, &buf)

	log.Debug("dropped")
	log.Infof("dropped %d", 1)
	assert.Empty(t, buf.String())

	log.Errorf("kept %d", 2)
	assert.Contains(t, buf.String(), "kept 2")
}

func TestWithHelpersHandleZeroValues(t *testing.T) {
	log := NopLogger()
	assert.Same(t, log, log.WithError(nil))
	assert.Same(t, log, log.WithCaller(""))
}
