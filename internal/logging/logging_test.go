package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevelFallback(t *testing.T) {
	logger, err := NewLogger(Config{Level: "not-a-level"})
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger, err = NewLogger(Config{Level: "DEBUG"})
	require.NoError(t, err)
	require.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feewatch.log")

	logger, err := NewLogger(Config{Level: "info", Output: path})
	require.NoError(t, err)
	logger.Info().Str("component", "test").Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"message":"hello"`)
	require.Contains(t, string(data), `"component":"test"`)
}

func TestNewLoggerBadOutput(t *testing.T) {
	_, err := NewLogger(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	require.Error(t, err)
}
