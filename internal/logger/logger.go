package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the process-wide logger. Format "console" switches to
// human-readable output, anything else emits JSON lines.
func Init(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if strings.EqualFold(format, "console") {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		l = zerolog.New(os.Stdout)
	}

	log = l.Level(lvl).With().Timestamp().Logger()
	log.Info().Str("level", lvl.String()).Msg("logger initialized")
}

// Logger returns the underlying zerolog logger for callers that need to
// hand it to another library.
func Logger() *zerolog.Logger {
	return &log
}

func Debug(msg string, fields map[string]any) {
	log.Debug().Fields(fields).Msg(msg)
}

func Info(msg string, fields map[string]any) {
	log.Info().Fields(fields).Msg(msg)
}

func Warn(msg string, fields map[string]any) {
	log.Warn().Fields(fields).Msg(msg)
}

func Error(msg string, fields map[string]any) {
	log.Error().Fields(fields).Msg(msg)
}

func Fatal(msg string, fields map[string]any) {
	log.WithLevel(zerolog.FatalLevel).Fields(fields).Msg(msg)
	os.Exit(1)
}
