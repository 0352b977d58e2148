package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines the interface for logging messages.
type Logger interface {
	Error(msg string, err error)
	Warn(msg string)
	Info(msg string)
	Debug(msg string)
	// With returns a logger that attaches key=value to every entry.
	With(key string, value any) Logger
}

// Config selects the level and output format of the logger.
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // console or json
	Output io.Writer
}

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

type zeroLogger struct {
	zl zerolog.Logger
}

// New creates a zerolog backed logger.
func New(cfg Config) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if !strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat}
	}
	zl := zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
	return &zeroLogger{zl: zl}
}

// Nop returns a logger that never writes anything.
func Nop() Logger {
	return &zeroLogger{zl: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level. Unknown names fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *zeroLogger) Error(msg string, err error) {
	ev := l.zl.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(msg)
}

func (l *zeroLogger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}

func (l *zeroLogger) Info(msg string) {
	l.zl.Info().Msg(msg)
}

func (l *zeroLogger) Debug(msg string) {
	l.zl.Debug().Msg(msg)
}

func (l *zeroLogger) With(key string, value any) Logger {
	ctx := l.zl.With()
	switch v := value.(type) {
	case string:
		ctx = ctx.Str(key, v)
	case int:
		ctx = ctx.Int(key, v)
	case time.Duration:
		ctx = ctx.Dur(key, v)
	default:
		ctx = ctx.Interface(key, v)
	}
	return &zeroLogger{zl: ctx.Logger()}
}
