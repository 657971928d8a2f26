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

package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/engine/engine"
	"rivaas.dev/engine/telemetry/semconv"
)

const scopeName = "rivaas.dev/engine"

// Provider names a span exporter.
type Provider string

const (
	NoopProvider     Provider = "noop"
	StdoutProvider   Provider = "stdout"
	OTLPProvider     Provider = "otlp"
	OTLPHTTPProvider Provider = "otlp-http"
)

// ErrProviderConflict is returned when more than one provider option is given.
var ErrProviderConflict = errors.New("only one of WithNoop, WithStdout, WithOTLP or WithOTLPHTTP can be used")

// EventType is the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event.
type Event struct {
	Type    EventType
	Message string
	Args    []any
}

// EventHandler processes internal operational events.
type EventHandler func(Event)

// DefaultEventHandler logs events to logger. A nil logger discards them.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}
	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

// Tracer creates engine spans. It is safe for concurrent use.
type Tracer struct {
	provider         Provider
	providerSetCount int
	serviceName      string
	serviceVersion   string
	sampleRate       float64
	otlpEndpoint     string
	otlpInsecure     bool
	stdoutWriter     io.Writer
	exporter         sdktrace.SpanExporter
	registerGlobal   bool
	eventHandler     EventHandler
	validationErrs   []error

	propagator     propagation.TextMapPropagator
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	tracer         trace.Tracer

	shutdown sync.Once
}

var _ engine.Tracer = (*Tracer)(nil)

// New creates a [Tracer]. Without a provider option spans are sampled but
// not exported.
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		provider:       NoopProvider,
		serviceName:    "engine",
		serviceVersion: "dev",
		sampleRate:     1,
		eventHandler:   func(Event) {},
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid tracing configuration: %w", err)
	}
	if err := t.initializeProvider(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return t, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize tracing: %v", err))
	}
	return t
}

func (t *Tracer) validate() error {
	if len(t.validationErrs) > 0 {
		return errors.Join(t.validationErrs...)
	}
	if t.providerSetCount > 1 {
		return ErrProviderConflict
	}
	if t.serviceName == "" {
		return errors.New("service name cannot be empty")
	}
	if t.sampleRate < 0 || t.sampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0 and 1, got %v", t.sampleRate)
	}
	return nil
}

// Provider returns the exporter in use.
func (t *Tracer) Provider() Provider {
	return t.provider
}

// TracerProvider exposes the underlying provider.
func (t *Tracer) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// StartDispatch opens the server span for a request entering the gate.
func (t *Tracer) StartDispatch(ctx context.Context, r *http.Request) (context.Context, engine.Span) {
	ctx = t.propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
	ctx, s := t.tracer.Start(ctx, r.Method+" dispatch",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(semconv.HTTPRequestMethod, r.Method),
			attribute.String(semconv.URLPath, r.URL.Path),
		),
	)
	return ctx, &span{span: s}
}

// StartRoute opens a child span for one route of the pipeline.
func (t *Tracer) StartRoute(ctx context.Context, route *engine.Route, pathInfo string) (context.Context, engine.Span) {
	ctx, s := t.tracer.Start(ctx, "route "+route.Path(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String(semconv.EngineRoute, route.Path()),
			attribute.String(semconv.EngineElementID, route.ElementID()),
			attribute.String(semconv.EnginePathInfo, pathInfo),
			attribute.String(semconv.EngineStrategy, route.Strategy().String()),
		),
	)
	return ctx, &span{span: s}
}

// Inject writes the trace context of ctx into h, for outgoing calls.
func (t *Tracer) Inject(ctx context.Context, h http.Header) {
	t.propagator.Inject(ctx, propagation.HeaderCarrier(h))
}

// Shutdown flushes and stops the provider. It is safe to call more than once.
func (t *Tracer) Shutdown(ctx context.Context) error {
	var err error
	t.shutdown.Do(func() {
		if t.sdkProvider == nil {
			return
		}
		if ferr := t.sdkProvider.ForceFlush(ctx); ferr != nil {
			t.emit(EventWarning, "trace flush failed", "error", ferr)
		}
		err = t.sdkProvider.Shutdown(ctx)
	})
	return err
}

func (t *Tracer) emit(typ EventType, msg string, args ...any) {
	t.eventHandler(Event{Type: typ, Message: msg, Args: args})
}

type span struct {
	span trace.Span
}

func (s *span) SetAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

func (s *span) End(err error) {
	switch {
	case err == nil:
	case engine.IsSignal(err):
		s.span.SetAttributes(attribute.String(semconv.EngineSignal, err.Error()))
	default:
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

// TraceID returns the trace id of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID returns the span id of the span in ctx, or "".
func SpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}
