package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"QSUBSUM_LOG_LEVEL", "QSUBSUM_SHOTS", "QSUBSUM_SEED", "QSUBSUM_WORKERS", "QSUBSUM_OUTPUT_DIR"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1024, cfg.Shots)
	assert.Equal(t, uint64(1), cfg.Seed)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, ".", cfg.OutputDir)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("QSUBSUM_LOG_LEVEL", "debug")
	t.Setenv("QSUBSUM_LOG_PRETTY", "false")
	t.Setenv("QSUBSUM_SHOTS", "50")
	t.Setenv("QSUBSUM_SEED", "7")
	t.Setenv("QSUBSUM_WORKERS", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 50, cfg.Shots)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 4, cfg.Workers, "unparsable values fall back to the default")
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("QSUBSUM_LOG_LEVEL", "loud")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "invalid log level")

	t.Setenv("QSUBSUM_LOG_LEVEL", "info")
	t.Setenv("QSUBSUM_SHOTS", "0")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "shots must be positive")
}

func TestNewLoggerJSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: "warn"}, &buf)
	logger.Info().Msg("dropped")
	logger.Warn().Int("qubits", 7).Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "kept", entry["message"])
	assert.EqualValues(t, 7, entry["qubits"])
	assert.Contains(t, entry, "caller")
}

func TestNewLoggerPretty(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: "debug", Pretty: true, NoColor: true}, &buf)
	logger.Debug().Str("stage", "oracle").Msg("rebuilt")
	assert.Contains(t, buf.String(), "DBG")
	assert.Contains(t, buf.String(), "stage=oracle")
}
