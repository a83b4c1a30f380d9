package logger

import (
	"context"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/sirupsen/logrus"
)

const (
	logFormatJSON = "json"
	logBackendZap = "zap"

	timestampFormat = "2006-01-02T15:04:05.000Z07:00"
	textTimestamp   = "2006-01-02 15:04:05"
)

// Logger defines the interface for structured logging operations
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	WithContext(ctx context.Context) Logger
	WithComponent(component string) Logger
}

// Options selects the backend, level and encoding
type Options struct {
	Backend     string `env:"LOG_BACKEND" envDefault:"logrus"`
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Format      string `env:"LOG_FORMAT" envDefault:"text"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// production environments always log JSON
func (o Options) json() bool {
	return o.Format == logFormatJSON || o.Environment == "production" || o.Environment == "prod"
}

// OptionsFromEnv reads Options from the process environment
func OptionsFromEnv() Options {
	var opts Options
	if err := env.Parse(&opts); err != nil {
		return Options{Backend: "logrus", Level: "info", Format: "text"}
	}
	return opts
}

// NewLogger builds a logger from the environment
func NewLogger() Logger {
	return New(OptionsFromEnv())
}

// New builds a logger writing to stdout
func New(opts Options) Logger {
	if opts.Backend == logBackendZap {
		format := opts.Format
		if opts.json() {
			format = logFormatJSON
		}
		return NewZapLogger(opts.Level, format)
	}

	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetLevel(parseLevel(opts.Level))
	if opts.json() {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: textTimestamp})
	}
	return &LogrusLogger{entry: logrus.NewEntry(base)}
}

// parseLevel accepts any casing logrus understands and falls back to info
func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil || parsed > logrus.DebugLevel {
		return logrus.InfoLevel
	}
	return parsed
}

// LogrusLogger is the default backend
type LogrusLogger struct {
	entry *logrus.Entry
}

func (l *LogrusLogger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *LogrusLogger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *LogrusLogger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *LogrusLogger) Error(args ...interface{}) { l.entry.Error(args...) }
func (l *LogrusLogger) Fatal(args ...interface{}) { l.entry.Fatal(args...) }

func (l *LogrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *LogrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *LogrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *LogrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *LogrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithContext attaches the request id, subject and catalog ids carried by ctx
func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.WithFields(fields)
}

func (l *LogrusLogger) WithComponent(component string) Logger {
	return &LogrusLogger{entry: l.entry.WithField("component", component)}
}
