package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_LevelAndFallback(t *testing.T) {
	l, err := New(Config{Level: "warn", Service: "guardian-server"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Core().Enabled(zap.WarnLevel))

	l, err = New(Config{Level: "loud", Encoding: "console"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}

func TestConfig_Encoding(t *testing.T) {
	assert.Equal(t, EncodingJSON, Config{}.encoding())
	assert.Equal(t, EncodingJSON, Config{Encoding: "xml"}.encoding())
	assert.Equal(t, EncodingConsole, Config{Encoding: "Console"}.encoding())
}

func TestNewZerolog_ServiceFieldAndLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerolog(Config{Level: "info", Service: "guardian-server"}, &buf)

	zl.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	zl.Info().Msg("visible")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "guardian-server", entry["service"])
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, zerolog.InfoLevel.String(), entry["level"])
}

func TestNewZerolog_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	zl := NewZerolog(Config{Level: "nope"}, &buf)
	assert.Equal(t, zerolog.InfoLevel, zl.GetLevel())
}
