// Package logging provides a zerolog backed implementation of the runtime's
// structured Logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger writes key-value log lines through zerolog.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger writing human-readable lines to w at the given level
// ("debug", "info", "warn", "error"). An unknown level falls back to info.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	return FromZerolog(zerolog.New(output).Level(ParseLevel(level)).With().Timestamp().Logger())
}

// NewJSON creates a logger writing JSON lines to w.
func NewJSON(w io.Writer, level string) *Logger {
	return FromZerolog(zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger())
}

// FromZerolog wraps an existing zerolog logger.
func FromZerolog(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func (l *Logger) Info(msg string, args ...any)  { l.write(l.zl.Info(), msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.write(l.zl.Error(), msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.write(l.zl.Warn(), msg, args) }
func (l *Logger) Debug(msg string, args ...any) { l.write(l.zl.Debug(), msg, args) }

func (l *Logger) write(ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 >= len(args) {
			ev = ev.Interface("!BADKEY", args[i])
			break
		}
		switch v := args[i+1].(type) {
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
