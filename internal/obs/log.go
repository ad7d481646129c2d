package obs

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerOnce sync.Once
	logger     *zap.Logger
	levelVar   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Logger returns the shared structured logger used across the service.
// Initialized lazily on first use; production JSON encoding to stdout.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = levelVar
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}

		l, err := cfg.Build()
		if err != nil {
			l = zap.NewNop()
		}
		logger = l.With(zap.String("service", "tenure-api"))
	})
	return logger
}

// SetLevel adjusts the shared logger's level ("debug", "info", "warn",
// "error"); unknown values are ignored.
func SetLevel(level string) {
	var l zapcore.Level
	if err := l.Set(level); err != nil {
		return
	}
	levelVar.SetLevel(l)
}
