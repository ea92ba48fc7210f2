// Package log wires zerolog into glassboost.
//
// The engine logs through named loggers obtained from GetLoggerWithName;
// log output is informational only and never affects control flow.
package log

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	root   = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	leveld = false
)

// SetupLogger configures the process logger at the given level
// ("trace", "debug", "info", "warn", "error"). Unknown levels fall back
// to info.
func SetupLogger(level string) {
	mu.Lock()
	defer mu.Unlock()
	lvl := zerolog.InfoLevel
	switch strings.ToLower(level) {
	case "trace":
		lvl = zerolog.TraceLevel
	case "debug":
		lvl = zerolog.DebugLevel
	case "info":
		lvl = zerolog.InfoLevel
	case "warn", "warning":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	root = root.Level(lvl)
	leveld = true
}

// GetLogger returns the root zerolog logger.
func GetLogger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !leveld {
		return root.Level(zerolog.InfoLevel)
	}
	return root
}

// LogError logs err at error level with a message.
func LogError(err error, msg string) {
	l := GetLogger()
	l.Error().Err(err).Msg(msg)
}

// Logger is the structured logging interface handed to engine components.
// Key/value pairs alternate in fields.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

type namedLogger struct {
	zl zerolog.Logger
}

// GetLoggerWithName returns a Logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return &namedLogger{zl: GetLogger().With().Str("component", name).Logger()}
}

func (l *namedLogger) emit(ev *zerolog.Event, msg string, fields []interface{}) {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, fields[i+1])
	}
	ev.Msg(msg)
}

func (l *namedLogger) Debug(msg string, fields ...interface{}) { l.emit(l.zl.Debug(), msg, fields) }
func (l *namedLogger) Info(msg string, fields ...interface{})  { l.emit(l.zl.Info(), msg, fields) }
func (l *namedLogger) Warn(msg string, fields ...interface{})  { l.emit(l.zl.Warn(), msg, fields) }
func (l *namedLogger) Error(msg string, fields ...interface{}) { l.emit(l.zl.Error(), msg, fields) }

// Counted rate-limits a repeating log site: the first Allow calls up to
// the construction limit return true, later calls return false. Counters
// are owned by the object holding the log site, not by the process.
type Counted struct {
	remaining atomic.Int64
}

// NewCounted returns a counter permitting n log emissions.
func NewCounted(n int64) *Counted {
	c := &Counted{}
	c.remaining.Store(n)
	return c
}

// Allow reports whether this emission is within the limit.
func (c *Counted) Allow() bool {
	for {
		r := c.remaining.Load()
		if r <= 0 {
			return false
		}
		if c.remaining.CompareAndSwap(r, r-1) {
			return true
		}
	}
}
