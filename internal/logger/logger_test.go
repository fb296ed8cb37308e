package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWritesJSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := build(&buf, "info")

	log.Info().Str("upa_id", "abc").Msg("recomputed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "budget-service", entry["service"])
	assert.Equal(t, "abc", entry["upa_id"])
	assert.Equal(t, "recomputed", entry["message"])
}

func TestBuildRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := build(&buf, "warn")

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.NotZero(t, buf.Len())
}

func TestBuildFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := build(&buf, "chatty")

	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
}
