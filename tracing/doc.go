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

// Package tracing opens OpenTelemetry spans around gate dispatch and route
// processing.
//
// A [Tracer] implements engine.Tracer. Dispatch spans continue the trace
// carried by incoming W3C traceparent headers; route spans are children of
// the dispatch span and carry the route path, element id and path-info.
//
//	tr := tracing.MustNew(tracing.WithOTLP("collector:4317", tracing.OTLPInsecure()))
//	defer tr.Shutdown(context.Background())
//	gate := engine.MustNewGate(site, engine.WithTracer(tr))
//
// Control signals such as pause or redirect end a span normally. Any other
// error is recorded on the span and sets its status to Error.
package tracing
