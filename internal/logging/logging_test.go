package logging

import (
	"bytes"
	"testing"

	"ladder/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.Logging.Level = tt.level
		setup(cfg, &bytes.Buffer{})
		assert.Equal(t, tt.expected, zerolog.GlobalLevel(), "level %q", tt.level)
	}
}

func TestSetupWritesStructuredLines(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	cfg := config.Default()
	logger := setup(cfg, &buf)
	logger.Info().Str("ticker", "AAPL").Msg("hello")

	assert.Contains(t, buf.String(), `"ticker":"AAPL"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)

	buf.Reset()
	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}
