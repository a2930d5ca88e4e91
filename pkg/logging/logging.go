// pkg/logging/logging.go
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu sync.Mutex
	// logWriter stores the current log writer globally
	logWriter io.Writer
)

// init sets the global logging level for zerolog to ErrorLevel by default.
// Logs go to stderr so classification output on stdout stays parseable.
func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	logWriter = consoleWriter(os.Stderr)
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
}

// Options selects the global log level, format and destination.
type Options struct {
	Level  string // trace|debug|info|warn|error|...; empty means error
	Format string // text (console) or json
	File   string // optional; logs are appended to it instead of stderr
}

// Configure applies opts to the global logger. The returned closer releases
// the log file, if any; it is never nil.
func Configure(opts Options) (io.Closer, error) {
	var closer io.Closer = io.NopCloser(nil)
	var out io.Writer = os.Stderr
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, fmt.Errorf("open log file %s: %w", opts.File, err)
		}
		out, closer = f, f
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		SetLogWriter(out)
	case "", "text":
		SetLogWriter(consoleWriter(out))
	default:
		return closer, fmt.Errorf("unknown log format %q", opts.Format)
	}
	return closer, ConfigureGlobalLogging(opts.Level)
}

// ConfigureGlobalLogging configures the global logging settings for the application.
func ConfigureGlobalLogging(levelStr string) error {
	ConfigureGlobal(parseLogLevel(levelStr))
	return nil
}

// ConfigureGlobal sets the global level and rebuilds log.Logger on the
// current writer. Caller information is added at debug and below.
func ConfigureGlobal(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)

	logContext := zerolog.New(getLogWriter()).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger
}

// Component derives a component logger from the global logger, so it
// follows whatever Configure set up.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// VerbosityLevel maps a repeated -v count onto a level: 0 keeps base,
// 1 is info, 2 is debug and 3 or more is trace. The count never makes
// logging quieter than base.
func VerbosityLevel(count int, base string) string {
	var level string
	switch {
	case count <= 0:
		return base
	case count == 1:
		level = "info"
	case count == 2:
		level = "debug"
	default:
		level = "trace"
	}
	if parseLogLevel(base) < parseLogLevel(level) {
		return base
	}
	return level
}

// parseLogLevel converts a string log level to zerolog.Level
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "error"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to error level.")
		return zerolog.ErrorLevel
	}
	return level
}

// getLogWriter returns the configured log writer
func getLogWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return logWriter
}

// SetLogWriter sets the global log writer
func SetLogWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logWriter = w
}
