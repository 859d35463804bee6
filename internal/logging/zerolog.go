package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"

	"github.com/researchatlas/engine/internal/config"
)

// NewZerologWriter assembles the shared sink for the zerolog subsystems:
// colored console output, plain console format to the session file, and a
// GELF UDP writer when Graylog is enabled.
func NewZerologWriter(file io.Writer, graylog config.GraylogConfig) (io.Writer, error) {
	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		},
	}
	if file != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}
	if graylog.Enabled {
		gw, err := gelf.NewWriter(graylog.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to create graylog writer: %w", err)
		}
		writers = append(writers, gw)
	}
	return zerolog.MultiLevelWriter(writers...), nil
}

// NewZerologLogger builds a subsystem logger on the shared writer with a
// timestamp hook and the given level. Unknown levels mean info.
func NewZerologLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
