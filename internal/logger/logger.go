package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger interface for structured logging with correlation support
type Logger interface {
	Info(ctx context.Context, message string, fields map[string]interface{})
	Error(ctx context.Context, message string, err error, fields map[string]interface{})
	Warn(ctx context.Context, message string, fields map[string]interface{})
	Debug(ctx context.Context, message string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
}

// Config configuration for the logger
type Config struct {
	Level       string
	Format      string // json, text
	ServiceName string
}

type contextKey string

// correlationKey carries the request correlation ID through contexts
const correlationKey contextKey = "correlation_id"

// WithCorrelationID attaches a correlation ID to the context
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationID extracts the correlation ID from the context, if any
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok {
		return id
	}
	return ""
}

// structuredLogger implements Logger with logrus
type structuredLogger struct {
	logger *logrus.Logger
	fields map[string]interface{}
}

// New creates a structured logger from config
func New(config Config) Logger {
	logrusLogger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrusLogger.SetLevel(level)

	if config.Format == "json" {
		logrusLogger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		logrusLogger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		})
	}

	logrusLogger.SetOutput(os.Stdout)

	base := map[string]interface{}{}
	if config.ServiceName != "" {
		base["service"] = config.ServiceName
	}

	return &structuredLogger{
		logger: logrusLogger,
		fields: base,
	}
}

// NewNop creates a logger that discards everything, for tests
func NewNop() Logger {
	logrusLogger := logrus.New()
	logrusLogger.SetOutput(io.Discard)
	logrusLogger.SetLevel(logrus.PanicLevel)
	return &structuredLogger{logger: logrusLogger, fields: map[string]interface{}{}}
}

func (l *structuredLogger) Info(ctx context.Context, message string, fields map[string]interface{}) {
	l.entry(ctx, nil, fields).Info(message)
}

func (l *structuredLogger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	l.entry(ctx, err, fields).Error(message)
}

func (l *structuredLogger) Warn(ctx context.Context, message string, fields map[string]interface{}) {
	l.entry(ctx, nil, fields).Warn(message)
}

func (l *structuredLogger) Debug(ctx context.Context, message string, fields map[string]interface{}) {
	l.entry(ctx, nil, fields).Debug(message)
}

// WithFields creates a derived logger with additional base fields
func (l *structuredLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &structuredLogger{
		logger: l.logger,
		fields: merged,
	}
}

func (l *structuredLogger) entry(ctx context.Context, err error, fields map[string]interface{}) *logrus.Entry {
	merged := logrus.Fields{}
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	if ctx != nil {
		if cid := CorrelationID(ctx); cid != "" {
			merged["correlation_id"] = cid
		}
	}
	if err != nil {
		merged["error"] = err.Error()
	}
	return l.logger.WithFields(merged)
}
