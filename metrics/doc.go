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

// Package metrics records engine activity as OpenTelemetry instruments.
//
// A [Recorder] observes the gate (one measurement per request, labelled with
// its outcome) and the continuation manager (pauses, resumptions, evictions
// and the number of stored continuations). Measurements are exported through
// Prometheus, OTLP over HTTP or stdout.
//
//	rec := metrics.MustNew(metrics.WithPrometheus(), metrics.WithServiceName("shop"))
//	defer rec.Shutdown(context.Background())
//
//	mgr := continuations.MustNewManager(continuations.WithObserver(rec))
//	rec.ObserveContinuations(mgr)
//	gate := engine.NewGate(site, engine.WithObserver(rec), engine.WithManager(mgr))
//
//	handler, _ := rec.Handler() // serves /metrics for the Prometheus provider
//
// # Global State
//
// New does not set the global OpenTelemetry meter provider unless
// [WithGlobalMeterProvider] is given, so several recorders can coexist.
package metrics
