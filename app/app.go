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

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"rivaas.dev/engine/config"
	"rivaas.dev/engine/continuations"
	"rivaas.dev/engine/engine"
	"rivaas.dev/engine/logging"
	"rivaas.dev/engine/metrics"
	"rivaas.dev/engine/session"
	"rivaas.dev/engine/tracing"
)

// App owns a gate and the collaborators built for it.
type App struct {
	cfg  *config.Engine
	site *engine.Site

	serviceVersion string
	templateFS     fs.FS
	notFound       http.Handler
	bannerOut      io.Writer

	logging  *logging.Logger
	logger   *slog.Logger
	metrics  *metrics.Recorder
	tracing  *tracing.Tracer
	manager  *continuations.Manager
	sessions *session.Manager
	sweep    func() (int, error)
	closers  []func() error
	gate     *engine.Gate

	handlerOnce sync.Once
	handler     http.Handler
	shutdown    sync.Once
}

// New builds the application described by cfg around site. Components whose
// provider is "none" are left out. Anything already built is released when a
// later step fails.
func New(cfg *config.Engine, site *engine.Site, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if site == nil {
		return nil, ErrNilSite
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:            cfg,
		site:           site,
		serviceVersion: "dev",
		notFound:       http.NotFoundHandler(),
		bannerOut:      os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.build(); err != nil {
		_ = a.Shutdown(context.Background())
		return nil, err
	}
	return a, nil
}

// MustNew is like [New] but panics on error.
func MustNew(cfg *config.Engine, site *engine.Site, opts ...Option) *App {
	a, err := New(cfg, site, opts...)
	if err != nil {
		panic(fmt.Sprintf("app: %v", err))
	}
	return a
}

func (a *App) build() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"logging", a.buildLogging},
		{"metrics", a.buildMetrics},
		{"tracing", a.buildTracing},
		{"continuations", a.buildManager},
		{"sessions", a.buildSessions},
		{"gate", a.buildGate},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("build %s: %w", s.name, err)
		}
	}
	return nil
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Engine { return a.cfg }

// Gate returns the gate.
func (a *App) Gate() *engine.Gate { return a.gate }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Metrics returns the recorder, nil when metrics are disabled.
func (a *App) Metrics() *metrics.Recorder { return a.metrics }

// Tracing returns the tracer, nil when tracing is disabled.
func (a *App) Tracing() *tracing.Tracer { return a.tracing }

// Manager returns the continuation manager, nil when continuations are disabled.
func (a *App) Manager() *continuations.Manager { return a.manager }

// Sessions returns the session manager, nil without a session store.
func (a *App) Sessions() *session.Manager { return a.sessions }

// Shutdown flushes telemetry and closes stores. It is safe to call more
// than once; errors are joined.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.shutdown.Do(func() {
		if a.tracing != nil {
			if err := a.tracing.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracing: %w", err))
			}
		}
		if a.metrics != nil {
			if err := a.metrics.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("metrics: %w", err))
			}
		}
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		if a.logging != nil {
			if err := a.logging.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("logging: %w", err))
			}
		}
	})
	return errors.Join(errs...)
}
