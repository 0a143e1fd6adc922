package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.Info().Str("key", "value").Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"message":"hello"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Info().Msg("filtered")
	log.Warn().Msg("kept")

	out := buf.String()
	assert.NotContains(t, out, "filtered")
	assert.Contains(t, out, "kept")
}

func TestNew_SilentDisablesAll(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Error().Msg("nothing")
	assert.Empty(t, buf.String())
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "chatty")

	log.Debug().Msg("filtered")
	log.Info().Msg("kept")

	out := buf.String()
	assert.NotContains(t, out, "filtered")
	assert.Contains(t, out, "kept")
}

func TestSub_TagsSubsystem(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info").Sub("catalog")

	log.Info().Msg("tagged")
	assert.Contains(t, buf.String(), `"subsystem":"catalog"`)
}
