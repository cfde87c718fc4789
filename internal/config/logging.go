package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global zerolog logger from lc
func SetupLogging(lc LogConfig, out io.Writer) error {
	level, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		return fmt.Errorf("log level %q: %w", lc.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if lc.Pretty {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		output.FormatLevel = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		}
		out = output
	}
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	return nil
}
