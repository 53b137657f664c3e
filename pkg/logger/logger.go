// Package logger is the hub's structured logger. Entries go out as one
// JSON object per line so they can be shipped to a collector as-is.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level orders log severities. Messages below the logger's minimum are
// dropped before any encoding work happens.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel maps a LOG_LEVEL value to a Level. Unknown values fall back
// to info rather than failing startup.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is one structured key-value attribute on a log entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field      { return Field{key, value} }
func Int(key string, value int) Field     { return Field{key, value} }
func Int64(key string, value int64) Field { return Field{key, value} }
func Bool(key string, value bool) Field {
	return Field{key, value}
}
func Duration(key string, value time.Duration) Field {
	return Field{key, value.String()}
}
func Any(key string, value any) Field { return Field{key, value} }

// Err renders an error under the conventional "error" key.
func Err(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err.Error()}
}

// Component tags entries with the subsystem that produced them.
func Component(name string) Field { return Field{"component", name} }

// Options configures a Logger. The zero value logs info and above to
// stdout without caller annotations.
type Options struct {
	Output    io.Writer
	Level     Level
	AddCaller bool
}

// Logger writes JSON log lines. It is safe for concurrent use; base
// fields set via With are shared, never mutated.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	min    Level
	base   []Field
	caller bool
}

// New builds a Logger from opts.
func New(opts Options) *Logger {
	w := opts.Output
	if w == nil {
		w = os.Stdout
	}
	return &Logger{w: w, min: opts.Level, caller: opts.AddCaller}
}

// Default returns an info-level stdout logger with caller annotations.
func Default() *Logger {
	return New(Options{AddCaller: true})
}

// With returns a child logger that prepends fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	child := &Logger{w: l.w, min: l.min, caller: l.caller}
	child.base = append(append(child.base, l.base...), fields...)
	return child
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.emit(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.emit(LevelError, msg, fields) }

func (l *Logger) emit(level Level, msg string, fields []Field) {
	if level < l.min {
		return
	}

	entry := make(map[string]any, len(l.base)+len(fields)+4)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["message"] = msg

	if l.caller {
		if _, file, line, ok := runtime.Caller(2); ok {
			if i := strings.LastIndexByte(file, '/'); i >= 0 {
				file = file[i+1:]
			}
			entry["caller"] = fmt.Sprintf("%s:%d", file, line)
		}
	}

	for _, f := range l.base {
		entry[f.Key] = f.Value
	}
	for _, f := range fields {
		entry[f.Key] = f.Value
	}

	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":%q,"message":%q}`, level.String(), msg))
	}

	l.mu.Lock()
	l.w.Write(append(line, '\n'))
	l.mu.Unlock()
}
