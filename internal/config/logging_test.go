package config

import (
	"bytes"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging(t *testing.T) {
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	})

	var buf bytes.Buffer
	require.NoError(t, SetupLogging(LogConfig{Level: "WARN"}, &buf))
	log.Info().Msg("hidden")
	log.Warn().Str("seat", "black").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"seat":"black"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)

	buf.Reset()
	require.NoError(t, SetupLogging(LogConfig{Level: "debug", Pretty: true}, &buf))
	log.Debug().Msg("console")
	assert.Contains(t, buf.String(), "| DEBUG |")

	assert.Error(t, SetupLogging(LogConfig{Level: "loud"}, &buf))
}
