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
	"io"
	"log/slog"
)

// WithHandlerType sets the output format.
func WithHandlerType(t HandlerType) Option {
	return func(l *Logger) { l.handlerType = t }
}

// WithJSONHandler writes JSON records (default).
func WithJSONHandler() Option {
	return WithHandlerType(JSONHandler)
}

// WithTextHandler writes key=value records.
func WithTextHandler() Option {
	return WithHandlerType(TextHandler)
}

// WithConsoleHandler writes colored records for terminals.
func WithConsoleHandler() Option {
	return WithHandlerType(ConsoleHandler)
}

// WithOutput sets the output writer. It is ignored when a rotated file is
// configured.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.output = w }
}

// WithLevel sets the minimum level.
func WithLevel(level Level) Option {
	return func(l *Logger) { l.level.Set(level) }
}

// WithServiceName adds service=name to every record.
func WithServiceName(name string) Option {
	return func(l *Logger) { l.serviceName = name }
}

// WithServiceVersion adds version=v to every record.
func WithServiceVersion(v string) Option {
	return func(l *Logger) { l.serviceVersion = v }
}

// WithEnvironment adds env=env to every record.
func WithEnvironment(env string) Option {
	return func(l *Logger) { l.environment = env }
}

// WithSource adds the source location to every record.
func WithSource(enabled bool) Option {
	return func(l *Logger) { l.addSource = enabled }
}

// WithDebugMode turns on debug level and source locations.
func WithDebugMode(enabled bool) Option {
	return func(l *Logger) {
		if enabled {
			l.level.Set(LevelDebug)
			l.addSource = true
		}
	}
}

// WithFileRotation writes to filename, rotated by lumberjack once it
// reaches maxSizeMB. Zero limits keep lumberjack's defaults.
//
// Example:
//
//	logger := logging.MustNew(logging.WithFileRotation("engine.log", 50, 3, 7))
func WithFileRotation(filename string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(l *Logger) {
		l.rotation = &Rotation{
			Filename:   filename,
			MaxSizeMB:  maxSizeMB,
			MaxBackups: maxBackups,
			MaxAgeDays: maxAgeDays,
		}
	}
}

// WithRotation is like [WithFileRotation] with every setting exposed.
func WithRotation(r Rotation) Option {
	return func(l *Logger) { l.rotation = &r }
}

// WithRedactKeys replaces the keys whose values are redacted. No keys
// disables redaction.
func WithRedactKeys(keys ...string) Option {
	return func(l *Logger) { l.redactKeys = keys }
}

// WithReplaceAttr runs fn on every attribute that is not redacted.
func WithReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) Option {
	return func(l *Logger) { l.replaceAttr = fn }
}

// WithGlobalLogger also installs the logger with [slog.SetDefault].
func WithGlobalLogger() Option {
	return func(l *Logger) { l.global = true }
}
