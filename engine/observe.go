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

package engine

import (
	"context"
	"net/http"
	"time"
)

// Observer is notified once per request that reached the gate.
// Implementations must be safe for concurrent use.
type Observer interface {
	RequestHandled(r *http.Request, route *Route, outcome Outcome, elapsed time.Duration)
}

// Tracer opens spans around request dispatch and route processing.
type Tracer interface {
	StartDispatch(ctx context.Context, r *http.Request) (context.Context, Span)
	StartRoute(ctx context.Context, route *Route, pathInfo string) (context.Context, Span)
}

// Span is an open trace span.
type Span interface {
	SetAttribute(key, value string)
	End(err error)
}

type noopTracer struct{}

func (noopTracer) StartDispatch(ctx context.Context, _ *http.Request) (context.Context, Span) {
	return ctx, noopSpan{}
}

func (noopTracer) StartRoute(ctx context.Context, _ *Route, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) SetAttribute(string, string) {}
func (noopSpan) End(error)                   {}
