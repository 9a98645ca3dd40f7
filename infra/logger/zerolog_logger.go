package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configure every logger created after Configure.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string `json:"level"`

	// Format is "json" or "console"; empty follows APP_ENV.
	Format string    `json:"format"`
	Output io.Writer `json:"-"`
}

var (
	optsMu sync.RWMutex
	opts   Options
)

// Validate checks the level and format names.
func (o Options) Validate() error {
	if o.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(o.Level)); err != nil {
			return err
		}
	}
	switch o.Format {
	case "", "json", "console":
		return nil
	}
	return fmt.Errorf("unknown log format %q", o.Format)
}

// Configure sets the process-wide logging options. Invalid options are
// reported and the previous options are kept.
func Configure(o Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	optsMu.Lock()
	opts = o
	optsMu.Unlock()
	return nil
}

func current() Options {
	optsMu.RLock()
	defer optsMu.RUnlock()
	return opts
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger with the configured options. All
// logs include the provided component field.
func NewZerologLogger(component string) Logger {
	return newZerolog(component, current())
}

func newZerolog(component string, o Options) *ZerologLogger {
	out := o.Output
	if out == nil {
		out = os.Stdout
	}
	format := strings.ToLower(o.Format)
	if format == "" && strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		format = "console"
	}
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if o.Level != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(o.Level)); err == nil {
			level = l
		}
	}
	z := zerolog.New(out).Level(level).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
