// Package logging is the engine's structured log layer over zerolog:
// one process logger configured at boot, plus scoped sub-loggers that
// attach the identifiers the registries share (session, room, mob,
// zone, engine). The unconfigured state discards everything, so
// packages under test stay quiet unless a test installs an output.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var root = zerolog.New(io.Discard)

// Options configures the process logger.
type Options struct {
	// Level is a zerolog level name ("debug", "info", ...). Unknown or
	// empty names fall back to info.
	Level string
	// Pretty switches to the human console format.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

// Configure replaces the process logger. Call once at boot; tests pass
// a buffer as Output to capture lines.
func Configure(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	root = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Leveled entry points on the process logger.

func Debug() *zerolog.Event { return root.Debug() }
func Info() *zerolog.Event  { return root.Info() }
func Warn() *zerolog.Event  { return root.Warn() }
func Error() *zerolog.Event { return root.Error() }
func Fatal() *zerolog.Event { return root.Fatal() }

// Fields names the identifiers a log line can be scoped by. Zero
// values are omitted from the output.
type Fields struct {
	Session int64
	Room    string
	Mob     string
	Zone    string
	Engine  string
}

// Scoped returns a sub-logger with the non-zero Fields attached.
func Scoped(f Fields) zerolog.Logger {
	ctx := root.With()
	if f.Session != 0 {
		ctx = ctx.Int64("session", f.Session)
	}
	if f.Room != "" {
		ctx = ctx.Str("room", f.Room)
	}
	if f.Mob != "" {
		ctx = ctx.Str("mob", f.Mob)
	}
	if f.Zone != "" {
		ctx = ctx.Str("zone", f.Zone)
	}
	if f.Engine != "" {
		ctx = ctx.Str("engine", f.Engine)
	}
	return ctx.Logger()
}

// WithSession and WithEngine are the two scopes nearly every caller
// wants; anything richer goes through Scoped directly.

func WithSession(id int64) zerolog.Logger {
	return Scoped(Fields{Session: id})
}

func WithEngine(engineId string) zerolog.Logger {
	return Scoped(Fields{Engine: engineId})
}
