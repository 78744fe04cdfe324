package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu  sync.RWMutex
	log *slog.Logger
)

// Init инициализирует глобальный логгер.
// env: "development" -> text handler, debug level; anything else -> JSON.
// level overrides the env default when non-empty (debug, info, warn, error).
func Init(env, level string) {
	InitWithWriter(os.Stdout, env, level)
}

// InitWithWriter is Init with an explicit destination; tests pass io.Discard.
func InitWithWriter(w io.Writer, env, level string) {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}

	var handler slog.Handler
	if env == "development" {
		opts.Level = slog.LevelDebug
		if level != "" {
			opts.Level = parseLevel(level)
		}
		handler = slog.NewTextHandler(w, opts)
	} else {
		if level != "" {
			opts.Level = parseLevel(level)
		}
		handler = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(handler)

	mu.Lock()
	log = l
	mu.Unlock()

	slog.SetDefault(l)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogger возвращает глобальный логгер
func GetLogger() *slog.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l == nil {
		// Fallback если Init не вызван
		Init("development", "")
		mu.RLock()
		l = log
		mu.RUnlock()
	}
	return l
}

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// Fatal логирует ошибку и завершает программу
func Fatal(msg string, args ...any) {
	GetLogger().Error(msg, args...)
	os.Exit(1)
}
