package logger

import (
	"os"

	"github.com/eternalApril/starlight/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a configured logger
// level: "debug", "info", "warn", "error"
// encoding: "json" (production) or "console" (development)
func New(level string, encoding string) *zap.Logger {
	// Parse level
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		// if logger fails, fallback to basic stdout and exit
		os.Stdout.WriteString("FAILED TO INIT LOGGER: " + err.Error())
		os.Exit(1)
	}

	return logger
}

// FromConfig builds the logger described by cfg.
// An empty cfg.File logs to stdout, otherwise output goes to a size-rotated file
func FromConfig(cfg config.LogConfig) *zap.Logger {
	if cfg.File == "" {
		return New(cfg.Level, cfg.Format)
	}

	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(rotator), zap.NewAtomicLevelAt(lvl))

	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr)))
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
