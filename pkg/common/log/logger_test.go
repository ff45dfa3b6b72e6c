package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLogger(WithOutput(&buf), WithLevel(LevelDebug))

	logger.Debug("probing slot %d", 3)
	assert.Contains(t, buf.String(), "[DEBUG]")
	assert.Contains(t, buf.String(), "probing slot 3")
	buf.Reset()

	logger.Info("store opened")
	assert.Contains(t, buf.String(), "[INFO] store opened")
	buf.Reset()

	logger.Warn("length mismatch")
	assert.Contains(t, buf.String(), "[WARN]")
	buf.Reset()

	logger.Error("write failed")
	assert.Contains(t, buf.String(), "[ERROR]")
	buf.Reset()

	logger.SetLevel(LevelError)
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("hidden")
	logger.Error("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Equal(t, LevelError, logger.GetLevel())
}

func TestStandardLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLogger(WithOutput(&buf))

	child := logger.WithFields(map[string]interface{}{
		"component": "storage",
		"bytes":     12,
	})
	child.Info("allocated")

	line := buf.String()
	assert.Contains(t, line, "bytes=12 component=storage allocated")
	buf.Reset()

	// Children share the parent's level
	logger.SetLevel(LevelWarn)
	child.WithField("slot", 4).Info("hidden")
	assert.Empty(t, buf.String())

	child.WithField("slot", 4).Warn("visible")
	assert.True(t, strings.Contains(buf.String(), "slot=4"))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing happens")
	assert.Greater(t, int(logger.GetLevel()), int(LevelError))
}
