package logging

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

func New(level string) *zap.SugaredLogger {
	lvl := zap.NewAtomicLevel()
	switch strings.ToLower(level) {
	case "debug":
		lvl.SetLevel(zapcore.DebugLevel)
	case "warn":
		lvl.SetLevel(zapcore.WarnLevel)
	case "error":
		lvl.SetLevel(zapcore.ErrorLevel)
	default:
		lvl.SetLevel(zapcore.InfoLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

func IntoContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func FromContext(ctx context.Context) *zap.SugaredLogger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*zap.SugaredLogger); ok {
			return l
		}
	}
	return zap.S()
}
