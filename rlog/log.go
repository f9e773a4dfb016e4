// Package rlog is a small leveled logger in a printf style:
// flat package functions writing to a configurable writer, no structured
// fields, no handlers. It exists because the driver's workers and monitor
// need to emit a lot of low-overhead "finer"-level tracing without paying
// for a heavier structured logger on the hot path.
package rlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type Level uint8

const (
	LevelVerbose Level = 50
	LevelDebug   Level = 40
	LevelInfo    Level = 30
	LevelWarn    Level = 20
	LevelError   Level = 10
	LevelQuiet   Level = 0
)

var names = map[string]Level{
	"verbose": LevelVerbose,
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"error":   LevelError,
	"quiet":   LevelQuiet,
}

// ParseLevel maps a config string (e.g. the "loglevel" option) to a Level.
// Unknown names fall back to LevelInfo.
func ParseLevel(name string) Level {
	if l, ok := names[name]; ok {
		return l
	}
	return LevelInfo
}

// Logger writes leveled, timestamped lines to an io.Writer. The zero value
// is not usable; construct with New.
type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

func New(w io.Writer, level Level) *Logger {
	return &Logger{w: w, level: level}
}

var std = New(os.Stdout, LevelInfo)

// SetOutput redirects the package-level logger used by Errorf/Warnf/etc.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.w = w
}

// SetLevel adjusts the package-level logger's threshold.
func SetLevel(level Level) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.level = level
}

func (l *Logger) Logf(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level > l.level {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.w, "%s ", ts)
	fmt.Fprintf(l.w, format, args...)
	fmt.Fprintln(l.w)
}

func (l *Logger) Errorf(format string, args ...interface{})   { l.Logf(LevelError, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})    { l.Logf(LevelWarn, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})    { l.Logf(LevelInfo, format, args...) }
func (l *Logger) Debugf(format string, args ...interface{})   { l.Logf(LevelDebug, format, args...) }
func (l *Logger) Verbosef(format string, args ...interface{}) { l.Logf(LevelVerbose, format, args...) }

func Errorf(format string, args ...interface{})   { std.Errorf(format, args...) }
func Warnf(format string, args ...interface{})     { std.Warnf(format, args...) }
func Infof(format string, args ...interface{})     { std.Infof(format, args...) }
func Debugf(format string, args ...interface{})    { std.Debugf(format, args...) }
func Verbosef(format string, args ...interface{})  { std.Verbosef(format, args...) }

// Report writes an unconditional plain line to stdout - used for the
// Monitor's incremental and terminal reports, which must appear regardless
// of configured log level (they are the program's actual output, not
// tracing).
func Report(format string, args ...interface{}) {
	fmt.Printf(format, args...)
	fmt.Println()
}

// Fatalf writes a message to stderr and exits the process with status 1.
// Used only for startup configuration errors.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}
