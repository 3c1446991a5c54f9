package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type logFunc func(template string, args ...interface{})

// Logger keeps the printf-style API used across services on top of zap.
type Logger struct {
	base  *zap.Logger
	info  logFunc
	warn  logFunc
	error logFunc
	debug logFunc
}

func New() *Logger {
	level := zapcore.InfoLevel
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		level,
	)
	return wrap(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)))
}

// NewNop discards everything; handy in tests that assert on behaviour, not output.
func NewNop() *Logger {
	return wrap(zap.NewNop())
}

func wrap(base *zap.Logger) *Logger {
	sugar := base.Sugar()
	return &Logger{
		base:  base,
		info:  sugar.Infof,
		warn:  sugar.Warnf,
		error: sugar.Errorf,
		debug: sugar.Debugf,
	}
}

// Named returns a child logger tagged with a component name.
func (l *Logger) Named(name string) *Logger {
	return wrap(l.base.Named(name))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.info(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.warn(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.error(format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.debug(format, args...)
}

func (l *Logger) Sync() error {
	return l.base.Sync()
}
