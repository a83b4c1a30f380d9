package logger

import (
	"context"
	"os"

	"franchise-catalog/internal/shared/contextkeys"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements the Logger interface on top of a zap SugaredLogger
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a zap-backed logger writing to stdout
func NewZapLogger(level string, format string) Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "message"
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timestampFormat)

	var encoder zapcore.Encoder
	if format == logFormatJSON {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), parseZapLevel(level))
	return &ZapLogger{sugar: zap.New(core).Sugar()}
}

// NewZapLoggerFrom wraps an existing zap logger, mostly for tests using zaptest/observer
func NewZapLoggerFrom(l *zap.Logger) Logger {
	return &ZapLogger{sugar: l.Sugar()}
}

func (l *ZapLogger) Debug(args ...interface{}) { l.sugar.Debug(args...) }
func (l *ZapLogger) Info(args ...interface{})  { l.sugar.Info(args...) }
func (l *ZapLogger) Warn(args ...interface{})  { l.sugar.Warn(args...) }
func (l *ZapLogger) Error(args ...interface{}) { l.sugar.Error(args...) }
func (l *ZapLogger) Fatal(args ...interface{}) { l.sugar.Fatal(args...) }

func (l *ZapLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *ZapLogger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *ZapLogger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *ZapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *ZapLogger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// WithFields adds structured fields to the logger
func (l *ZapLogger) WithFields(fields map[string]interface{}) Logger {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &ZapLogger{sugar: l.sugar.With(kv...)}
}

// WithContext adds the request-scoped values found in ctx
func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.WithFields(fields)
}

// WithComponent adds component name to the logger
func (l *ZapLogger) WithComponent(component string) Logger {
	return &ZapLogger{sugar: l.sugar.With("component", component)}
}

// Sync flushes buffered entries
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

var contextFieldNames = map[interface{}]string{
	contextkeys.RequestIDKey:   "request_id",
	contextkeys.SubjectKey:     "subject",
	contextkeys.FranchiseIDKey: "franchise_id",
	contextkeys.BranchIDKey:    "branch_id",
	contextkeys.ProductIDKey:   "product_id",
	contextkeys.ComponentKey:   "component",
	contextkeys.OperationKey:   "operation",
}

func contextFields(ctx context.Context) map[string]interface{} {
	fields := map[string]interface{}{}
	for key, name := range contextFieldNames {
		if val, ok := ctx.Value(key).(string); ok && val != "" {
			fields[name] = val
		}
	}
	return fields
}

// parseZapLevel maps through the logrus parser so both backends accept the same names
func parseZapLevel(level string) zapcore.Level {
	switch parseLevel(level) {
	case logrus.DebugLevel:
		return zapcore.DebugLevel
	case logrus.WarnLevel:
		return zapcore.WarnLevel
	case logrus.ErrorLevel:
		return zapcore.ErrorLevel
	case logrus.FatalLevel, logrus.PanicLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
