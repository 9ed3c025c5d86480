package log

import (
	"context"
	"log/slog"
	"math"
	"os"
	"runtime"
	"time"

	gethlog "github.com/ethereum/go-ethereum/log"
)

const (
	levelMaxVerbosity slog.Level = math.MinInt
	LevelTrace                   = gethlog.LevelTrace
	LevelDebug                   = slog.LevelDebug
	LevelInfo                    = slog.LevelInfo
	LevelWarn                    = slog.LevelWarn
	LevelError                   = slog.LevelError
	LevelCrit                    = gethlog.LevelCrit
)

// Logger writes module-tagged key/value records to a slog handler.
type Logger interface {
	With(kv ...any) Logger

	Trace(module, msg string, kv ...any)
	Debug(module, msg string, kv ...any)
	Info(module, msg string, kv ...any)
	Warn(module, msg string, kv ...any)
	Error(module, msg string, kv ...any)
	// Crit logs and exits the process.
	Crit(module, msg string, kv ...any)

	Write(level slog.Level, module, msg string, kv ...any)
	Enabled(ctx context.Context, level slog.Level) bool
	Handler() slog.Handler
}

type logger struct {
	inner *slog.Logger
}

func NewLogger(h slog.Handler) Logger {
	return &logger{inner: slog.New(h)}
}

func (l *logger) Handler() slog.Handler { return l.inner.Handler() }

func (l *logger) With(kv ...any) Logger { return &logger{l.inner.With(kv...)} }

func (l *logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.inner.Enabled(ctx, level)
}

// Write emits one record. The module goes in as the first attribute so JSON
// output can be filtered on it; the source pc skips Write and its wrapper.
func (l *logger) Write(level slog.Level, module, msg string, kv ...any) {
	ctx := context.Background()
	if !l.inner.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	if module != "" {
		r.AddAttrs(slog.String("module", module))
	}
	r.Add(kv...)
	_ = l.inner.Handler().Handle(ctx, r)
}

func (l *logger) Trace(module, msg string, kv ...any) { l.Write(LevelTrace, module, msg, kv...) }
func (l *logger) Debug(module, msg string, kv ...any) { l.Write(LevelDebug, module, msg, kv...) }
func (l *logger) Info(module, msg string, kv ...any)  { l.Write(LevelInfo, module, msg, kv...) }
func (l *logger) Warn(module, msg string, kv ...any)  { l.Write(LevelWarn, module, msg, kv...) }
func (l *logger) Error(module, msg string, kv ...any) { l.Write(LevelError, module, msg, kv...) }

func (l *logger) Crit(module, msg string, kv ...any) {
	l.Write(LevelCrit, module, msg, kv...)
	os.Exit(1)
}
