// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"rivaas.dev/engine/telemetry/semconv"
)

// HandlerType selects the output format.
type HandlerType string

const (
	// JSONHandler writes one JSON object per record.
	JSONHandler HandlerType = "json"
	// TextHandler writes key=value records.
	TextHandler HandlerType = "text"
	// ConsoleHandler writes colored, human readable records.
	ConsoleHandler HandlerType = "console"
)

// Level is a log level.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Redacted replaces the value of redacted attributes.
const Redacted = "***REDACTED***"

// DefaultRedactKeys are the attribute keys redacted unless replaced with
// [WithRedactKeys]. Matching ignores case.
var DefaultRedactKeys = []string{
	"password", "token", "secret", "api_key", "authorization", "cookie",
	"set-cookie",
}

// Rotation describes a size rotated log file.
type Rotation struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger builds and owns the engine's [slog.Logger].
// All methods are safe for concurrent use.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       slog.LevelVar
	addSource   bool
	global      bool

	serviceName    string
	serviceVersion string
	environment    string

	redactKeys  []string
	replaceAttr func(groups []string, a slog.Attr) slog.Attr

	rotation *Rotation
	file     *lumberjack.Logger

	slogger  *slog.Logger
	shutdown sync.Once
}

// Option configures a [Logger].
type Option func(*Logger)

// New creates a logger. Without options it writes JSON at info level to
// stdout.
func New(opts ...Option) (*Logger, error) {
	l := &Logger{
		handlerType: JSONHandler,
		output:      os.Stdout,
		redactKeys:  DefaultRedactKeys,
	}
	l.level.Set(LevelInfo)
	for _, opt := range opts {
		opt(l)
	}
	if err := l.validate(); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	out := l.output
	if l.rotation != nil {
		l.file = &lumberjack.Logger{
			Filename:   l.rotation.Filename,
			MaxSize:    l.rotation.MaxSizeMB,
			MaxBackups: l.rotation.MaxBackups,
			MaxAge:     l.rotation.MaxAgeDays,
			Compress:   l.rotation.Compress,
		}
		out = l.file
	}

	hopts := &slog.HandlerOptions{
		Level:       &l.level,
		AddSource:   l.addSource,
		ReplaceAttr: l.redact,
	}
	var h slog.Handler
	switch l.handlerType {
	case JSONHandler:
		h = slog.NewJSONHandler(out, hopts)
	case TextHandler:
		h = slog.NewTextHandler(out, hopts)
	case ConsoleHandler:
		h = newConsoleHandler(out, hopts)
	}

	sl := slog.New(h)
	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, semconv.ServiceName, l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion, l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, semconv.Environment, l.environment)
	}
	if len(attrs) > 0 {
		sl = sl.With(attrs...)
	}
	l.slogger = sl
	if l.global {
		slog.SetDefault(sl)
	}
	return l, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic(err.Error())
	}
	return l
}

func (l *Logger) validate() error {
	switch l.handlerType {
	case JSONHandler, TextHandler, ConsoleHandler:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidHandler, l.handlerType)
	}
	if l.rotation != nil {
		r := l.rotation
		if r.Filename == "" || r.MaxSizeMB < 0 || r.MaxBackups < 0 || r.MaxAgeDays < 0 {
			return ErrInvalidRotation
		}
		return nil
	}
	if l.output == nil {
		return ErrNilOutput
	}
	return nil
}

func (l *Logger) redact(groups []string, a slog.Attr) slog.Attr {
	if slices.ContainsFunc(l.redactKeys, func(k string) bool { return strings.EqualFold(k, a.Key) }) {
		return slog.String(a.Key, Redacted)
	}
	if l.replaceAttr != nil {
		return l.replaceAttr(groups, a)
	}
	return a
}

// Logger returns the configured [slog.Logger].
func (l *Logger) Logger() *slog.Logger {
	return l.slogger
}

// Component returns a logger tagging every record with component=name.
func (l *Logger) Component(name string) *slog.Logger {
	return l.slogger.With("component", name)
}

// SetLevel changes the minimum level of every logger derived from l.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return l.level.Level()
}

// Shutdown closes the rotated log file, if any. Records logged afterwards
// reopen it.
func (l *Logger) Shutdown(_ context.Context) error {
	var err error
	l.shutdown.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// ParseLevel parses "debug", "info", "warn" or "error", ignoring case.
func ParseLevel(s string) (Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return level, nil
}
