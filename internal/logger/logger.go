package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns the process logger. Debug mode switches to console output at debug level.
func Setup(debug bool) zerolog.Logger {
	return New(os.Stderr, debug)
}

func New(out io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()

	if debug {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Caller().Stack().Logger()
	}

	return logger
}
