package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, closer, err := New(Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info().Msg("dropped")
	log.Warn().Str("date", "2024-10-24").Msg("kept")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "dropped")
	assert.Contains(t, string(raw), `"date":"2024-10-24"`)
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, zerolog.DebugLevel)
	log.Debug().Int("days", 365).Msg("生成完成")
	assert.Contains(t, buf.String(), `"days":365`)
	assert.Contains(t, buf.String(), "生成完成")
}
