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
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Option configures a [Recorder].
type Option func(*Recorder)

// WithPrometheus exports through a private Prometheus registry served by
// [Recorder.Handler].
func WithPrometheus() Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
		r.providerSetCount++
	}
}

// WithOTLP pushes measurements to an OTLP collector over HTTP.
// An http:// endpoint disables TLS.
//
// Example:
//
//	metrics.WithOTLP("http://collector:4318")
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.otlpEndpoint = endpoint
		r.providerSetCount++
	}
}

// WithStdout prints measurements periodically, for development.
func WithStdout() Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		r.providerSetCount++
	}
}

// WithStdoutWriter redirects the stdout provider.
func WithStdoutWriter(w io.Writer) Option {
	return func(r *Recorder) {
		r.stdoutWriter = w
	}
}

// WithReader attaches a caller owned reader, typically a manual reader in tests.
func WithReader(reader sdkmetric.Reader) Option {
	return func(r *Recorder) {
		if reader == nil {
			r.validationErrs = append(r.validationErrs, errors.New("reader cannot be nil"))
			return
		}
		r.provider = ReaderProvider
		r.reader = reader
		r.providerSetCount++
	}
}

// WithMeterProvider uses an existing meter provider. Shutdown leaves it alone.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		if provider == nil {
			r.validationErrs = append(r.validationErrs, errors.New("meter provider cannot be nil"))
			return
		}
		r.provider = ReaderProvider
		r.meterProvider = provider
		r.providerSetCount++
	}
}

// WithGlobalMeterProvider registers the provider with otel.SetMeterProvider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) {
		r.registerGlobal = true
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(r *Recorder) {
		r.serviceName = name
	}
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) {
		r.serviceVersion = version
	}
}

// WithExportInterval sets the push interval of the OTLP and stdout providers.
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) {
		r.exportInterval = interval
	}
}

// WithDurationBuckets overrides the request duration histogram boundaries.
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		if len(buckets) == 0 {
			r.validationErrs = append(r.validationErrs, errors.New("duration buckets cannot be empty"))
			return
		}
		r.durationBuckets = buckets
	}
}

// WithEventHandler receives internal events such as export failures.
func WithEventHandler(handler EventHandler) Option {
	return func(r *Recorder) {
		r.eventHandler = handler
	}
}

// WithLogger routes internal events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.eventHandler = DefaultEventHandler(logger)
	}
}
