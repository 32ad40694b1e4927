// Package log is a thin wrapper around zerolog with a global logger and
// sugar helpers (leveled, printf-style and key/value-style).
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	// like time.RFC3339Nano but with fixed-width milliseconds
	timeFormat = "2006-01-02T15:04:05.000Z07:00"
)

var (
	log   zerolog.Logger
	logMu sync.RWMutex
)

func init() {
	// Allow overriding the default log level via $LOG_LEVEL, so that the
	// environment variable can be set globally even when running tests.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = LevelError
	}
	Init(level, "stderr")
}

// Logger returns the global zerolog logger.
func Logger() *zerolog.Logger {
	logger := getLogger()
	return &logger
}

func getLogger() zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return log
}

func setLogger(logger zerolog.Logger) {
	logMu.Lock()
	log = logger
	logMu.Unlock()
}

// Init configures the global logger. Output is "stdout", "stderr" or a file
// path; anything else falls back to stderr. Unknown levels fall back to info.
func Init(level, output string) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "", "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log output %q: %v; using stderr\n", output, err)
			out = os.Stderr
		} else {
			out = f
		}
	}

	zerolog.TimeFieldFormat = timeFormat
	if out == os.Stdout || out == os.Stderr {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "3:04PM"}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	setLogger(zerolog.New(out).Level(lvl).With().Timestamp().Logger())
}

// Level returns the current log level as a string.
func Level() string {
	return getLogger().GetLevel().String()
}

func Debug(args ...any) { l := getLogger(); l.Debug().Msg(fmt.Sprint(args...)) }
func Info(args ...any)  { l := getLogger(); l.Info().Msg(fmt.Sprint(args...)) }
func Warn(args ...any)  { l := getLogger(); l.Warn().Msg(fmt.Sprint(args...)) }
func Error(args ...any) { l := getLogger(); l.Error().Msg(fmt.Sprint(args...)) }

// Fatal logs the message and exits with status 1.
func Fatal(args ...any) {
	l := getLogger()
	l.Fatal().Msg(fmt.Sprint(args...))
}

func Debugf(template string, args ...any) { l := getLogger(); l.Debug().Msgf(template, args...) }
func Infof(template string, args ...any)  { l := getLogger(); l.Info().Msgf(template, args...) }
func Warnf(template string, args ...any)  { l := getLogger(); l.Warn().Msgf(template, args...) }
func Errorf(template string, args ...any) { l := getLogger(); l.Error().Msgf(template, args...) }
func Fatalf(template string, args ...any) { l := getLogger(); l.Fatal().Msgf(template, args...) }

func Debugw(msg string, keyvalues ...any) { l := getLogger(); logw(l.Debug(), msg, keyvalues) }
func Infow(msg string, keyvalues ...any)  { l := getLogger(); logw(l.Info(), msg, keyvalues) }
func Warnw(msg string, keyvalues ...any)  { l := getLogger(); logw(l.Warn(), msg, keyvalues) }

// Errorw logs an error with an accompanying message.
func Errorw(err error, msg string) {
	l := getLogger()
	l.Error().Err(err).Msg(msg)
}

func logw(ev *zerolog.Event, msg string, keyvalues []any) {
	for i := 0; i+1 < len(keyvalues); i += 2 {
		key, ok := keyvalues[i].(string)
		if !ok {
			key = fmt.Sprint(keyvalues[i])
		}
		switch v := keyvalues[i+1].(type) {
		case string:
			ev = ev.Str(key, v)
		case int:
			ev = ev.Int(key, v)
		case int64:
			ev = ev.Int64(key, v)
		case uint64:
			ev = ev.Uint64(key, v)
		case bool:
			ev = ev.Bool(key, v)
		case time.Duration:
			ev = ev.Dur(key, v)
		case error:
			ev = ev.AnErr(key, v)
		case fmt.Stringer:
			ev = ev.Str(key, v.String())
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
