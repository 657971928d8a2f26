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

// Package logging configures the [slog.Logger] shared by the engine, its
// gate and its collaborators.
//
// A [Logger] owns the handler (JSON, text or console), the output (a writer
// or a rotated file) and the level, which can be changed at runtime:
//
//	logger := logging.MustNew(
//	    logging.WithConsoleHandler(),
//	    logging.WithServiceName("shop"),
//	    logging.WithFileRotation("/var/log/shop.log", 100, 5, 30),
//	)
//	defer logger.Shutdown(context.Background())
//
//	gate, err := engine.NewGate(site, engine.WithLogger(logger.Component("gate")))
//
// Attributes named like credentials are redacted before they reach the
// handler; see [WithRedactKeys].
package logging
