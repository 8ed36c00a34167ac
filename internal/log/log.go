package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Options configures the global logger.
type Options struct {
	Level Level
	// File, if set, receives a copy of every log line and is rotated by
	// lumberjack.
	File      string
	MaxSizeMB int
	KeepDays  int
}

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
	once   sync.Once
)

// initLogger installs a default INFO logger on stderr unless Setup or
// SetLogger already ran.
func initLogger() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if logger == nil {
			logger = build(Options{Level: LevelInfo})
		}
	})
}

// Setup replaces the global logger according to opts.
func Setup(opts Options) {
	l := build(opts)
	once.Do(func() {})
	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetLogger installs l as the global logger. Tests use zap.NewNop().
func SetLogger(l *zap.Logger) {
	once.Do(func() {})
	mu.Lock()
	logger = l.Sugar()
	mu.Unlock()
}

// ParseLevel maps a case-insensitive level name to a Level, defaulting to
// LevelInfo.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	current().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	current().Infow(msg, kv...)
}

func Warn(msg string, kv ...any) {
	current().Warnw(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	current().Errorw(msg, extended...)
}

// Sync flushes buffered log entries. Call before exit.
func Sync() {
	_ = current().Sync()
}

func current() *zap.SugaredLogger {
	initLogger()
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func build(opts Options) *zap.SugaredLogger {
	encConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	minLevel := zapLevel(opts.Level)
	enabled := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= minLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encConfig), zapcore.Lock(os.Stderr), enabled),
	}
	if opts.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename: opts.File,
				MaxSize:  opts.MaxSizeMB,
				MaxAge:   opts.KeepDays,
			}),
			enabled,
		))
	}
	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zap.DebugLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
