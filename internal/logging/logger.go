package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure Init. Level is one of debug, info, warn, error
// (default info). When File is set, JSON log lines are also written to a
// rotating file next to the console output.
type Options struct {
	Level string
	File  string
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init initializes the global logger. The returned closer flushes the log
// file, if any; it is safe to call when no file is configured.
func Init(opts Options) io.Closer {
	zerolog.SetGlobalLevel(ParseLevel(opts.Level))

	console := zerolog.ConsoleWriter{Out: os.Stderr}
	if opts.File == "" {
		log.Logger = log.Output(console)
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, rotator)).With().Timestamp().Logger()
	return rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
