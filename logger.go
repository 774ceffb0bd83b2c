package jwtmiddleware

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/denali-js/go-jwt-middleware/core"
)

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger = core.Logger

// NewLogrusLogger returns a Logger adapter for logrus.FieldLogger. The
// key/value args become logrus fields.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return &logrusLoggerAdapter{l}
}

type logrusLoggerAdapter struct{ l logrus.FieldLogger }

func (a *logrusLoggerAdapter) Debug(msg string, args ...any) { a.entry(args).Debug(msg) }
func (a *logrusLoggerAdapter) Info(msg string, args ...any)  { a.entry(args).Info(msg) }
func (a *logrusLoggerAdapter) Warn(msg string, args ...any)  { a.entry(args).Warn(msg) }
func (a *logrusLoggerAdapter) Error(msg string, args ...any) { a.entry(args).Error(msg) }

func (a *logrusLoggerAdapter) entry(args []any) logrus.FieldLogger {
	if len(args) == 0 {
		return a.l
	}
	return a.l.WithFields(fields(args))
}

// fields pairs up slog style key/value args. A trailing key without a value
// is kept under "!BADKEY", as slog does.
func fields(args []any) logrus.Fields {
	f := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		f[key] = args[i+1]
	}
	return f
}

// NewZapLogger returns a Logger adapter for zap.Logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLoggerAdapter{l.Sugar()}
}

type zapLoggerAdapter struct{ l *zap.SugaredLogger }

func (z *zapLoggerAdapter) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }
func (z *zapLoggerAdapter) Info(msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z *zapLoggerAdapter) Warn(msg string, args ...any)  { z.l.Warnw(msg, args...) }
func (z *zapLoggerAdapter) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }
