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

//go:build !integration

package tracing

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/engine/engine"
)

type wizard struct{}

func (w *wizard) Process(c *engine.Context) error {
	if c.Step() == "" {
		c.Print("step one")
		return c.Pause("two")
	}
	c.Print("step two")
	return nil
}

func newGate(t *testing.T, tr *Tracer) *engine.Gate {
	t.Helper()
	site := engine.NewSite(func(r *engine.Router) error {
		r.Get("/hello", engine.Func(func(c *engine.Context) error {
			c.Print("hi")
			return nil
		}), engine.WithElementID("HELLO"))
		r.Get("/fail", engine.Func(func(*engine.Context) error { return errors.New("broken") }))
		r.Get("/wizard", engine.Type[wizard]())
		return nil
	})
	g, err := engine.NewGate(site, engine.WithTracer(tr), engine.WithLogExceptions(false))
	require.NoError(t, err)
	return g
}

func attrs(s tracetest.SpanStub) map[attribute.Key]string {
	out := make(map[attribute.Key]string, len(s.Attributes))
	for _, kv := range s.Attributes {
		out[kv.Key] = kv.Value.Emit()
	}
	return out
}

func byName(spans tracetest.SpanStubs, name string) (tracetest.SpanStub, bool) {
	for _, s := range spans {
		if s.Name == name {
			return s, true
		}
	}
	return tracetest.SpanStub{}, false
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "defaults"},
		{name: "stdout", opts: []Option{WithStdout(), WithStdoutWriter(&bytes.Buffer{})}},
		{name: "otlp grpc", opts: []Option{WithOTLP("localhost:4317", OTLPInsecure())}},
		{name: "otlp http", opts: []Option{WithOTLPHTTP("http://localhost:4318")}},
		{name: "conflict", opts: []Option{WithStdout(), WithNoop()}, wantErr: true},
		{name: "sample rate", opts: []Option{WithSampleRate(1.5)}, wantErr: true},
		{name: "empty service", opts: []Option{WithServiceName("")}, wantErr: true},
		{name: "nil exporter", opts: []Option{WithExporter(nil)}, wantErr: true},
		{name: "nil propagator", opts: []Option{WithPropagator(nil)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr, err := New(tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_ = tr.Shutdown(ctx)
		})
	}
	assert.Panics(t, func() { MustNew(WithSampleRate(-1)) })
}

func TestDispatchAndRouteSpans(t *testing.T) {
	t.Parallel()
	tr, exporter := TestingTracer(t)
	g := newGate(t, tr)

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hello", nil))
	require.Equal(t, "hi", w.Body.String())

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	route, ok := byName(spans, "route /hello")
	require.True(t, ok)
	dispatch, ok := byName(spans, "GET dispatch")
	require.True(t, ok)

	assert.Equal(t, dispatch.SpanContext.SpanID(), route.Parent.SpanID(), "route span is a child of dispatch")
	assert.Equal(t, trace.SpanKindServer, dispatch.SpanKind)
	assert.Equal(t, "completed", attrs(dispatch)["engine.outcome"])
	assert.Equal(t, "/hello", attrs(dispatch)["url.path"])
	assert.Equal(t, "HELLO", attrs(route)["engine.element.id"])
	assert.Equal(t, "instance", attrs(route)["engine.strategy"])
	assert.Equal(t, codes.Unset, dispatch.Status.Code)
}

func TestErrorAndSignalStatus(t *testing.T) {
	t.Parallel()
	tr, exporter := TestingTracer(t)
	g := newGate(t, tr)

	g.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	fail, ok := byName(exporter.GetSpans(), "route /fail")
	require.True(t, ok)
	assert.Equal(t, codes.Error, fail.Status.Code)
	assert.Equal(t, "broken", fail.Status.Description)
	require.NotEmpty(t, fail.Events, "error is recorded as an event")

	exporter.Reset()
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wizard", nil))
	assert.Equal(t, "step one", w.Body.String())

	route, ok := byName(exporter.GetSpans(), "route /wizard")
	require.True(t, ok)
	assert.Equal(t, codes.Unset, route.Status.Code, "pause is not an error")
	assert.Contains(t, attrs(route)["engine.signal"], "pause")
	dispatch, ok := byName(exporter.GetSpans(), "GET dispatch")
	require.True(t, ok)
	assert.Equal(t, "paused", attrs(dispatch)["engine.outcome"])
	assert.NotEmpty(t, attrs(dispatch)["engine.continuation.id"])
}

func TestUnhandledRequestOnlyDispatches(t *testing.T) {
	t.Parallel()
	tr, exporter := TestingTracer(t)
	g := newGate(t, tr)

	g.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "unhandled", attrs(spans[0])["engine.outcome"])
}

func TestTraceContextPropagation(t *testing.T) {
	t.Parallel()
	tr, exporter := TestingTracer(t)
	g := newGate(t, tr)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	g.ServeHTTP(httptest.NewRecorder(), req)

	for _, s := range exporter.GetSpans() {
		assert.Equal(t, traceID, s.SpanContext.TraceID().String(), s.Name)
	}

	dispatch, ok := byName(exporter.GetSpans(), "GET dispatch")
	require.True(t, ok)
	assert.Equal(t, "00f067aa0ba902b7", dispatch.Parent.SpanID().String())

	ctx := trace.ContextWithSpanContext(context.Background(), dispatch.SpanContext)
	assert.Equal(t, traceID, TraceID(ctx))
	assert.Equal(t, dispatch.SpanContext.SpanID().String(), SpanID(ctx))
	out := http.Header{}
	tr.Inject(ctx, out)
	assert.Contains(t, out.Get("traceparent"), traceID)

	assert.Empty(t, TraceID(context.Background()))
	assert.Empty(t, SpanID(context.Background()))
}

func TestSampleRateZero(t *testing.T) {
	t.Parallel()
	tr, exporter := TestingTracer(t, WithSampleRate(0))
	g := newGate(t, tr)

	g.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/hello", nil))
	assert.Empty(t, exporter.GetSpans())
}

func TestStdoutProvider(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	tr := MustNew(WithStdout(), WithStdoutWriter(&buf), WithServiceName("shop"))
	g := newGate(t, tr)

	g.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/hello", nil))
	require.NoError(t, tr.Shutdown(context.Background()))
	require.NoError(t, tr.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "route /hello")
	assert.Equal(t, StdoutProvider, tr.Provider())
}

func TestEventHandler(t *testing.T) {
	t.Parallel()
	var events []Event
	tr, err := New(WithEventHandler(func(e Event) { events = append(events, e) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
	require.NotEmpty(t, events)
	assert.Equal(t, EventInfo, events[len(events)-1].Type)
	assert.NotNil(t, tr.TracerProvider())
}
