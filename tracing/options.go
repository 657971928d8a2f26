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
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a [Tracer].
type Option func(*Tracer)

// OTLPOption tunes the OTLP gRPC exporter.
type OTLPOption func(*Tracer)

// OTLPInsecure disables TLS towards the collector.
func OTLPInsecure() OTLPOption {
	return func(t *Tracer) {
		t.otlpInsecure = true
	}
}

// WithNoop samples spans without exporting them.
func WithNoop() Option {
	return func(t *Tracer) {
		t.provider = NoopProvider
		t.providerSetCount++
	}
}

// WithStdout prints finished spans, for development.
func WithStdout() Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.providerSetCount++
	}
}

// WithStdoutWriter redirects the stdout provider.
func WithStdoutWriter(w io.Writer) Option {
	return func(t *Tracer) {
		t.stdoutWriter = w
	}
}

// WithOTLP exports over gRPC.
//
// Example:
//
//	tracing.WithOTLP("collector:4317", tracing.OTLPInsecure())
func WithOTLP(endpoint string, opts ...OTLPOption) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.otlpEndpoint = endpoint
		t.providerSetCount++
		for _, opt := range opts {
			opt(t)
		}
	}
}

// WithOTLPHTTP exports over HTTP. An http:// endpoint disables TLS.
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.otlpEndpoint = endpoint
		t.providerSetCount++
	}
}

// WithExporter sends spans synchronously to exporter. Tests pass an
// in-memory exporter here.
func WithExporter(exporter sdktrace.SpanExporter) Option {
	return func(t *Tracer) {
		if exporter == nil {
			t.validationErrs = append(t.validationErrs, errors.New("exporter cannot be nil"))
			return
		}
		t.exporter = exporter
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) {
		t.serviceVersion = version
	}
}

// WithSampleRate samples the given fraction of new traces. Sampled parents
// are always followed.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) {
		t.sampleRate = rate
	}
}

// WithPropagator replaces the W3C trace context and baggage propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		if p == nil {
			t.validationErrs = append(t.validationErrs, errors.New("propagator cannot be nil"))
			return
		}
		t.propagator = p
	}
}

// WithGlobalTracerProvider registers the provider with otel.SetTracerProvider.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) {
		t.registerGlobal = true
	}
}

// WithEventHandler receives internal events.
func WithEventHandler(handler EventHandler) Option {
	return func(t *Tracer) {
		t.eventHandler = handler
	}
}

// WithLogger routes internal events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracer) {
		t.eventHandler = DefaultEventHandler(logger)
	}
}
