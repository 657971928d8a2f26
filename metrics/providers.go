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

package metrics

import (
	"context"
	"fmt"
	"strings"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

func (r *Recorder) initializeProvider() error {
	var reader sdkmetric.Reader
	switch {
	case r.provider == ReaderProvider && r.meterProvider != nil:
		r.emit(EventDebug, "using caller supplied meter provider")
		r.meter = r.meterProvider.Meter(scopeName)
		return nil
	case r.provider == ReaderProvider:
		reader = r.reader
	case r.provider == PrometheusProvider:
		r.prometheusRegistry = promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(r.prometheusRegistry))
		if err != nil {
			return fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		r.prometheusHandler = promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
		reader = exporter
	case r.provider == OTLPProvider:
		exporter, err := otlpmetrichttp.New(context.Background(), otlpOptions(r.otlpEndpoint)...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))
	case r.provider == StdoutProvider:
		var opts []stdoutmetric.Option
		if r.stdoutWriter != nil {
			opts = append(opts, stdoutmetric.WithWriter(r.stdoutWriter))
		}
		exporter, err := stdoutmetric.New(opts...)
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))
	default:
		return fmt.Errorf("unsupported metrics provider: %s", r.provider)
	}

	r.sdkProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(r.serviceName),
			semconv.ServiceVersion(r.serviceVersion),
		)),
	)
	r.meterProvider = r.sdkProvider
	if r.registerGlobal {
		r.emit(EventDebug, "setting global OpenTelemetry meter provider", "provider", r.provider)
		otel.SetMeterProvider(r.sdkProvider)
	}
	r.meter = r.meterProvider.Meter(scopeName)
	return nil
}

// otlpOptions splits an endpoint URL into the host and TLS options the
// exporter expects.
func otlpOptions(endpoint string) []otlpmetrichttp.Option {
	var opts []otlpmetrichttp.Option
	insecure := false
	if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, insecure = rest, true
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	if host, _, found := strings.Cut(endpoint, "/"); found {
		endpoint = host
	}
	opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
	if insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return opts
}
