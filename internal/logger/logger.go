package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.SugaredLogger

// Init builds the global production logger.
func Init() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := config.Build()
	if err != nil {
		panic(err)
	}
	Log = l.Sugar()
}

// InitDev builds the global logger in development mode (human-readable output).
func InitDev() {
	config := zap.NewDevelopmentConfig()

	l, err := config.Build()
	if err != nil {
		panic(err)
	}
	Log = l.Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
