package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger. Components that take a *slog.Logger
// get it from Slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Slog() *slog.Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error. Empty means info.
	Level string
	// Format is json (default) or text.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource adds the caller's file and line.
	AddSource bool
}

// level is shared by every logger New returns.
var level = new(slog.LevelVar)

type slogLogger struct {
	*slog.Logger
}

func (l slogLogger) With(args ...any) Logger {
	return slogLogger{l.Logger.With(args...)}
}

func (l slogLogger) Slog() *slog.Logger {
	return l.Logger
}

// New creates a logger. It also sets the process-wide level to cfg.Level.
func New(cfg Config) (Logger, error) {
	lv, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if !ValidFormat(cfg.Format) {
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: replaceAttr,
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		h = slog.NewTextHandler(out, opts)
	default:
		h = slog.NewJSONHandler(out, opts)
	}

	level.Set(lv)
	return slogLogger{slog.New(h)}, nil
}

// ParseLevel parses a level name. "warning" is accepted for warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", s)
}

// ValidLevel reports whether ParseLevel accepts level.
func ValidLevel(s string) bool {
	_, err := ParseLevel(s)
	return err == nil
}

// ValidFormat reports whether format names a known output format.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", "json", "text", "console":
		return true
	}
	return false
}

// SetLevel changes the process-wide level. Unknown names are ignored.
func SetLevel(s string) {
	if lv, err := ParseLevel(s); err == nil {
		level.Set(lv)
	}
}

// GetLevel returns the process-wide level name.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

var std atomic.Pointer[slogLogger]

func init() {
	std.Store(&slogLogger{slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}))})
}

// SetDefault makes l the default logger of this package and of log/slog.
func SetDefault(l Logger) {
	sl := &slogLogger{l.Slog()}
	std.Store(sl)
	slog.SetDefault(sl.Logger)
}

// Default returns the default logger.
func Default() Logger {
	return *std.Load()
}

// Slog returns the default logger as a *slog.Logger.
func Slog() *slog.Logger {
	return std.Load().Logger
}
