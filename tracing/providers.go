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
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

func (t *Tracer) initializeProvider(ctx context.Context) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(createResource(t.serviceName, t.serviceVersion)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	}
	if t.exporter != nil {
		opts = append(opts, sdktrace.WithSyncer(t.exporter))
	}

	switch t.provider {
	case NoopProvider:
	case StdoutProvider:
		stdoutOpts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if t.stdoutWriter != nil {
			stdoutOpts = append(stdoutOpts, stdouttrace.WithWriter(t.stdoutWriter))
		}
		exporter, err := stdouttrace.New(stdoutOpts...)
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case OTLPProvider:
		var grpcOpts []otlptracegrpc.Option
		if t.otlpEndpoint != "" {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(t.otlpEndpoint))
		}
		if t.otlpInsecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case OTLPHTTPProvider:
		exporter, err := otlptracehttp.New(ctx, otlpHTTPOptions(t.otlpEndpoint)...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	default:
		return fmt.Errorf("unsupported tracing provider: %s", t.provider)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	t.sdkProvider = tp
	t.tracerProvider = tp
	t.tracer = tp.Tracer(scopeName)

	if t.registerGlobal {
		t.emit(EventDebug, "setting global OpenTelemetry tracer provider", "provider", t.provider)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(t.propagator)
	}
	t.emit(EventInfo, "tracing initialized", "provider", t.provider, "service", t.serviceName)
	return nil
}

func otlpHTTPOptions(endpoint string) []otlptracehttp.Option {
	if endpoint == "" {
		return nil
	}
	insecure := false
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, insecure = rest, true
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	if host, _, found := strings.Cut(endpoint, "/"); found {
		endpoint = host
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

func createResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}
