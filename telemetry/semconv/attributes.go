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

package semconv

// Service metadata, set once on the logger.
const (
	ServiceName    = "service"
	ServiceVersion = "version"
	Environment    = "env"
)

// HTTP attributes.
const (
	// HTTPRequestMethod is the request method, e.g. "GET".
	HTTPRequestMethod = "http.request.method"
	// URLPath is the request path as received.
	URLPath = "url.path"
)

// Trace correlation keys added to log records.
const (
	TraceID = "trace_id"
	SpanID  = "span_id"
)

// Engine attributes describe how a request was dispatched.
const (
	// EngineRoute is the path a route was registered under.
	EngineRoute = "engine.route"
	// EngineElementID is the element id of a route, empty when unset.
	EngineElementID = "engine.element.id"
	// EnginePathInfo is the part of the URL after the route path.
	EnginePathInfo = "engine.path_info"
	// EngineStrategy is how the route obtains its element: type, supplier
	// or instance.
	EngineStrategy = "engine.strategy"
	// EngineOutcome is the dispatch result: completed, paused, redirected,
	// deferred, unhandled, passthrough or error.
	EngineOutcome = "engine.outcome"
	// EngineSignal names the control flow signal that ended a route.
	EngineSignal = "engine.signal"
)

// Continuation attributes.
const (
	// ContinuationID is the id a paused continuation was stored under.
	ContinuationID = "engine.continuation.id"
	// ContinuationResumed is the id of the continuation a request resumed.
	ContinuationResumed = "engine.continuation.resumed"
	// ContinuationStep is the step label passed to Pause.
	ContinuationStep = "engine.step"
	// EvictReason tells why a continuation left the registry.
	EvictReason = "reason"
)

// Unmatched is the route value recorded for requests no route matched.
const Unmatched = "unmatched"
