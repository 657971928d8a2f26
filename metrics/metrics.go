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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"rivaas.dev/engine/continuations"
	"rivaas.dev/engine/engine"
	"rivaas.dev/engine/telemetry/semconv"
)

const scopeName = "rivaas.dev/engine"

// Instrument names.
const (
	RequestsName             = "engine.requests"
	RequestDurationName      = "engine.request.duration"
	ContinuationsPausedName  = "engine.continuations.paused"
	ContinuationsResumedName = "engine.continuations.resumed"
	ContinuationsEvictedName = "engine.continuations.evicted"
	ContinuationsActiveName  = "engine.continuations.active"
)

// DefaultDurationBuckets are histogram boundaries for request duration in seconds.
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// ErrNoHandler is returned by [Recorder.Handler] for providers without a scrape endpoint.
	ErrNoHandler = errors.New("metrics handler only available with the prometheus provider")

	// ErrProviderConflict is returned when more than one provider option is given.
	ErrProviderConflict = errors.New("only one of WithPrometheus, WithOTLP or WithStdout can be used")
)

// EventType is the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event, such as a failed export.
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

// Provider names a metrics exporter.
type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OTLPProvider       Provider = "otlp"
	StdoutProvider     Provider = "stdout"
	// ReaderProvider is used when a caller supplied its own reader or meter provider.
	ReaderProvider Provider = "reader"
)

// Sizer reports how many continuations are stored.
type Sizer interface {
	Len() int
}

// Recorder holds the meter provider and the engine instruments.
// All methods are safe for concurrent use.
type Recorder struct {
	provider         Provider
	providerSetCount int
	serviceName      string
	serviceVersion   string
	otlpEndpoint     string
	exportInterval   time.Duration
	durationBuckets  []float64
	stdoutWriter     io.Writer
	reader           sdkmetric.Reader
	registerGlobal   bool
	eventHandler     EventHandler
	validationErrs   []error

	meterProvider      metric.MeterProvider
	sdkProvider        *sdkmetric.MeterProvider
	meter              metric.Meter
	prometheusRegistry *promclient.Registry
	prometheusHandler  http.Handler

	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
	paused          metric.Int64Counter
	resumed         metric.Int64Counter
	evicted         metric.Int64Counter
	active          metric.Int64ObservableGauge

	mu           sync.Mutex
	registration metric.Registration
	shutdown     sync.Once
}

var (
	_ engine.Observer        = (*Recorder)(nil)
	_ continuations.Observer = (*Recorder)(nil)
)

// New creates a [Recorder]. Without a provider option it uses Prometheus.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		provider:        PrometheusProvider,
		serviceName:     "engine",
		serviceVersion:  "dev",
		exportInterval:  30 * time.Second,
		durationBuckets: DefaultDurationBuckets,
		eventHandler:    func(Event) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid metrics configuration: %w", err)
	}
	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if err := r.initializeInstruments(); err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}
	return r, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize metrics: %v", err))
	}
	return r
}

func (r *Recorder) validate() error {
	if len(r.validationErrs) > 0 {
		return errors.Join(r.validationErrs...)
	}
	if r.providerSetCount > 1 {
		return ErrProviderConflict
	}
	if r.serviceName == "" {
		return errors.New("service name cannot be empty")
	}
	if r.exportInterval < time.Second {
		r.emit(EventWarning, "export interval is very low, may cause high CPU usage", "interval", r.exportInterval)
	}
	switch r.provider {
	case PrometheusProvider, StdoutProvider, ReaderProvider:
	case OTLPProvider:
		if r.otlpEndpoint == "" {
			r.emit(EventWarning, "OTLP endpoint not specified, using default", "default", "http://localhost:4318")
			r.otlpEndpoint = "http://localhost:4318"
		}
	default:
		return fmt.Errorf("unsupported metrics provider: %s", r.provider)
	}
	return nil
}

func (r *Recorder) initializeInstruments() error {
	var err error
	if r.requests, err = r.meter.Int64Counter(RequestsName,
		metric.WithDescription("Requests that reached the gate, by outcome"),
	); err != nil {
		return err
	}
	if r.requestDuration, err = r.meter.Float64Histogram(RequestDurationName,
		metric.WithDescription("Time spent in the gate per request"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	); err != nil {
		return err
	}
	if r.paused, err = r.meter.Int64Counter(ContinuationsPausedName,
		metric.WithDescription("Continuations stored after a pause"),
	); err != nil {
		return err
	}
	if r.resumed, err = r.meter.Int64Counter(ContinuationsResumedName,
		metric.WithDescription("Continuations resumed from the manager"),
	); err != nil {
		return err
	}
	if r.evicted, err = r.meter.Int64Counter(ContinuationsEvictedName,
		metric.WithDescription("Continuations dropped from the manager, by reason"),
	); err != nil {
		return err
	}
	r.active, err = r.meter.Int64ObservableGauge(ContinuationsActiveName,
		metric.WithDescription("Continuations currently stored"),
	)
	return err
}

// Provider returns the exporter in use.
func (r *Recorder) Provider() Provider {
	return r.provider
}

// Handler returns the Prometheus scrape handler.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.prometheusHandler == nil {
		return nil, fmt.Errorf("%w, current provider: %s", ErrNoHandler, r.provider)
	}
	return r.prometheusHandler, nil
}

// MeterProvider exposes the underlying provider for additional instruments.
func (r *Recorder) MeterProvider() metric.MeterProvider {
	return r.meterProvider
}

// RequestHandled records one gate request.
func (r *Recorder) RequestHandled(req *http.Request, route *engine.Route, outcome engine.Outcome, elapsed time.Duration) {
	path := semconv.Unmatched
	if route != nil {
		path = route.Path()
	}
	attrs := metric.WithAttributes(
		attribute.String(semconv.HTTPRequestMethod, req.Method),
		attribute.String(semconv.EngineRoute, path),
		attribute.String(semconv.EngineOutcome, string(outcome)),
	)
	ctx := req.Context()
	r.requests.Add(ctx, 1, attrs)
	r.requestDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// ContinuationAdded counts a stored continuation.
func (r *Recorder) ContinuationAdded(c *continuations.Continuation) {
	r.paused.Add(context.Background(), 1, metric.WithAttributes(attribute.String(semconv.ContinuationStep, c.Step)))
}

// ContinuationResumed counts a resumption.
func (r *Recorder) ContinuationResumed(c *continuations.Continuation) {
	r.resumed.Add(context.Background(), 1, metric.WithAttributes(attribute.String(semconv.ContinuationStep, c.Step)))
}

// ContinuationEvicted counts a dropped continuation.
func (r *Recorder) ContinuationEvicted(_ *continuations.Continuation, reason continuations.EvictReason) {
	r.evicted.Add(context.Background(), 1, metric.WithAttributes(attribute.String(semconv.EvictReason, string(reason))))
}

// ObserveContinuations reports src.Len() as the active continuation gauge.
// A later call replaces the previous source.
func (r *Recorder) ObserveContinuations(src Sizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registration != nil {
		if err := r.registration.Unregister(); err != nil {
			return err
		}
		r.registration = nil
	}
	if src == nil {
		return nil
	}
	reg, err := r.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(r.active, int64(src.Len()))
		return nil
	}, r.active)
	if err != nil {
		return fmt.Errorf("register continuation gauge: %w", err)
	}
	r.registration = reg
	return nil
}

// Shutdown flushes pending measurements and releases the provider.
// It is safe to call more than once.
func (r *Recorder) Shutdown(ctx context.Context) error {
	var err error
	r.shutdown.Do(func() {
		if r.sdkProvider == nil {
			return
		}
		if ferr := r.sdkProvider.ForceFlush(ctx); ferr != nil {
			r.emit(EventWarning, "metrics flush failed", "error", ferr)
		}
		err = r.sdkProvider.Shutdown(ctx)
	})
	return err
}

func (r *Recorder) emit(typ EventType, msg string, args ...any) {
	r.eventHandler(Event{Type: typ, Message: msg, Args: args})
}
