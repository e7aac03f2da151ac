// internal/logging/logging.go
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	cfg "github.com/tamzrod/sign-controller/internal/config"
)

// Setup points the global zerolog logger at a console writer on stderr and,
// when a file is configured, a rotating log file. It returns a closer for
// the file writer.
func Setup(c cfg.LogConfig, extra ...io.Writer) (func() error, error) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}}
	closer := func() error { return nil }

	if c.File != "" {
		lj := &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
		}
		writers = append(writers, lj)
		closer = lj.Close
	}
	writers = append(writers, extra...)

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger()

	return closer, nil
}
