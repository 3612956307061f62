package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level, defaulting to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Fields carries structured key/value pairs for one entry.
type Fields map[string]interface{}

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	sessionIDKey ctxKey = "session_id"
)

// WithRequestID returns a context whose log entries carry the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithSessionID returns a context whose log entries carry the session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

type entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Caller    string    `json:"caller,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// StructuredLogger writes one JSON object per line.
type StructuredLogger struct {
	mu      sync.Mutex
	level   Level
	output  io.Writer
	service string
	version string
}

func NewStructuredLogger(service, version string, level Level) *StructuredLogger {
	return &StructuredLogger{
		level:   level,
		output:  os.Stdout,
		service: service,
		version: version,
	}
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *StructuredLogger {
	l := NewStructuredLogger("test", "0", FatalLevel+1)
	l.output = io.Discard
	return l
}

func (l *StructuredLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

func (l *StructuredLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *StructuredLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, DebugLevel, msg, fields, nil)
}

func (l *StructuredLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, InfoLevel, msg, fields, nil)
}

func (l *StructuredLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(ctx, WarnLevel, msg, fields, nil)
}

func (l *StructuredLogger) Error(ctx context.Context, msg string, fields Fields, err error) {
	l.log(ctx, ErrorLevel, msg, fields, err)
}

// Fatal logs and exits the process.
func (l *StructuredLogger) Fatal(ctx context.Context, msg string, fields Fields, err error) {
	l.log(ctx, FatalLevel, msg, fields, err)
	os.Exit(1)
}

// Printf lets the logger stand in where a printf-style logger is expected
// (gocron, paho).
func (l *StructuredLogger) Printf(format string, args ...interface{}) {
	l.log(context.Background(), InfoLevel, fmt.Sprintf(format, args...), nil, nil)
}

// Println satisfies paho's mqtt.Logger.
func (l *StructuredLogger) Println(args ...interface{}) {
	l.log(context.Background(), DebugLevel, strings.TrimSpace(fmt.Sprintln(args...)), nil, nil)
}

func (l *StructuredLogger) log(ctx context.Context, level Level, msg string, fields Fields, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Service:   l.service,
		Version:   l.version,
		Message:   msg,
		Fields:    fields,
	}
	if ctx != nil {
		if id, ok := ctx.Value(requestIDKey).(string); ok {
			e.RequestID = id
		}
		if id, ok := ctx.Value(sessionIDKey).(string); ok {
			e.SessionID = id
		}
	}
	if level >= ErrorLevel {
		if _, file, line, ok := runtime.Caller(2); ok {
			e.Caller = fmt.Sprintf("%s:%d", file, line)
		}
	}
	if err != nil {
		e.Error = err.Error()
	}

	data, mErr := json.Marshal(e)
	if mErr != nil {
		fmt.Fprintf(os.Stderr, "%s [%s] %s: %v (marshal: %v)\n",
			e.Timestamp.Format(time.RFC3339), e.Level, msg, fields, mErr)
		return
	}
	l.output.Write(append(data, '\n'))
}
