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

// Package app assembles a runnable server around an engine site.
//
// [New] turns a loaded config.Engine into the collaborators the gate needs
// (logger, metrics recorder, tracer, continuation manager, session store,
// template factory and compressor) and builds the gate itself. [App.Handler]
// mounts the gate behind a chi router next to /healthz and the Prometheus
// scrape endpoint; [App.Run] serves it with graceful shutdown.
//
//	cfg := config.MustLoad(ctx, config.WithFile("engine.yaml"), config.WithEnv("ENGINE_"))
//	a, err := app.New(cfg, site)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := a.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package app
