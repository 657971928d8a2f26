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
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/engine/telemetry/semconv"
)

const (
	fieldTraceID = semconv.TraceID
	fieldSpanID  = semconv.SpanID
)

// WithTrace returns logger with the trace and span ids of the span active
// in ctx. Without a valid span logger is returned unchanged.
func WithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(fieldTraceID, sc.TraceID().String(), fieldSpanID, sc.SpanID().String())
}

// LogError logs err at error level with trace correlation. Nil errors are
// ignored.
func LogError(ctx context.Context, logger *slog.Logger, err error, msg string, args ...any) {
	if err == nil {
		return
	}
	args = append(args, "error", err.Error())
	WithTrace(ctx, logger).ErrorContext(ctx, msg, args...)
}
