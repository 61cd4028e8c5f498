package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default logging configuration constants
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// SlogConfig controls the console logger.
type SlogConfig struct {
	Level      Level
	Format     Format
	Color      bool
	TimeStamps bool
	Source     bool
	Output     io.Writer // defaults to os.Stderr
}

// FileConfig describes file destinations. Path receives the unitctl log
// itself; Dir holds one output log per unit (Dir/<name>.log).
// Rotation parameters follow lumberjack semantics.
type FileConfig struct {
	Path       string
	Dir        string
	MaxSizeMB  int  // megabytes before rotation (default 10)
	MaxBackups int  // number of backups to keep (default 3)
	MaxAgeDays int  // days to keep (default 7)
	Compress   bool // Gzip rotated files
}

type Config struct {
	Slog SlogConfig
	File FileConfig
}

// ParseLevel maps a level name to its slog level; empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return slog.LevelDebug, nil
	case "", LevelInfo:
		return slog.LevelInfo, nil
	case LevelWarn, "warning":
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewSlogger builds the application logger: console output per Slog and,
// when File.Path is set, a timestamped text stream to a rotated file.
func (c Config) NewSlogger() *slog.Logger {
	level, _ := ParseLevel(string(c.Slog.Level))
	opts := &slog.HandlerOptions{Level: level, AddSource: c.Slog.Source}

	out := c.Slog.Output
	if out == nil {
		out = os.Stderr
	}
	var console slog.Handler
	switch {
	case c.Slog.Format == FormatJSON:
		console = slog.NewJSONHandler(out, opts)
	case c.Slog.Color:
		console = NewColorTextHandler(out, opts, c.Slog.TimeStamps)
	default:
		console = slog.NewTextHandler(out, withoutTime(opts, c.Slog.TimeStamps))
	}

	if c.File.Path == "" {
		return slog.New(console)
	}
	file := slog.NewTextHandler(c.rotated(c.File.Path), &slog.HandlerOptions{Level: level})
	return slog.New(NewTeeHandler(console, file))
}

// UnitLogPath returns the combined output log of a unit, or "" when no
// unit log directory is configured.
func (c Config) UnitLogPath(name string) string {
	if c.File.Dir == "" {
		return ""
	}
	return filepath.Join(c.File.Dir, name+".log")
}

// UnitOutput opens the output log a started unit writes to directly. The
// child keeps the descriptor after unitctl exits, so rotation happens here,
// once per start, when the current file has outgrown MaxSizeMB.
func (c Config) UnitOutput(name string) (*os.File, error) {
	path := c.UnitLogPath(name)
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_RDWR, 0)
	}
	if err := os.MkdirAll(c.File.Dir, 0o750); err != nil {
		return nil, err
	}
	if fi, err := os.Stat(path); err == nil && fi.Size() >= int64(valOr(c.File.MaxSizeMB, DefaultMaxSizeMB))*1024*1024 {
		l := c.rotated(path)
		if err := l.Rotate(); err != nil {
			return nil, fmt.Errorf("rotate %s: %w", path, err)
		}
		_ = l.Close()
	}
	// #nosec G304 path derived from configured log dir and validated unit name
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}

func (c Config) rotated(path string) *lj.Logger {
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.File.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.File.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.File.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.File.Compress,
	}
}

func withoutTime(opts *slog.HandlerOptions, keep bool) *slog.HandlerOptions {
	if keep {
		return opts
	}
	o := *opts
	o.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}
	return &o
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
