// Package logger wraps a zap SugaredLogger shared by the whole service.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels accepted in configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var levels = map[string]zapcore.Level{
	DebugLevel: zapcore.DebugLevel,
	InfoLevel:  zapcore.InfoLevel,
	WarnLevel:  zapcore.WarnLevel,
	ErrorLevel: zapcore.ErrorLevel,
}

// Logger embeds the sugared logger so callers use Infow/Errorw directly.
type Logger struct {
	*zap.SugaredLogger
}

var (
	global *Logger
	once   sync.Once
)

// Get returns the process-wide logger. Only the first call's level counts.
func Get(level string) *Logger {
	once.Do(func() {
		global = New(level)
	})
	return global
}

// New builds a console logger writing to stdout. Unknown levels fall back
// to info.
func New(level string) *Logger {
	lvl, ok := parseLevel(level)
	if !ok {
		lvl = zapcore.InfoLevel
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.RFC3339TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(lvl),
	)
	return &Logger{SugaredLogger: zap.New(core, zap.AddCaller()).Sugar()}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func ValidLevel(level string) bool {
	_, ok := parseLevel(level)
	return ok
}

// parseLevel is case-insensitive and ignores surrounding spaces.
func parseLevel(level string) (zapcore.Level, bool) {
	lvl, ok := levels[strings.ToLower(strings.TrimSpace(level))]
	return lvl, ok
}
