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

// Package semconv defines the attribute keys shared by the engine's logs,
// metrics and traces.
//
// HTTP keys follow the OpenTelemetry semantic conventions. Engine keys
// describe routes, dispatch outcomes and continuations and live under the
// "engine." namespace:
//
//	logger.Info("request handled",
//	    semconv.HTTPRequestMethod, r.Method,
//	    semconv.EngineRoute, route.Path(),
//	    semconv.EngineOutcome, "paused",
//	)
//
// The same keys are used as metric and span attributes, so a dashboard
// can join a slow route in the metrics with its spans and log lines.
package semconv
