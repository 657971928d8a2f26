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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rivaas.dev/engine/metrics"
)

// HealthPath is where the liveness endpoint is mounted.
const HealthPath = "/healthz"

// Health is the body served at [HealthPath].
type Health struct {
	Status        string `json:"status"`
	Routes        int    `json:"routes"`
	Continuations int    `json:"continuations"`
	Setup         string `json:"setup,omitempty"`
}

// Handler returns the root handler: request id and panic recovery
// middleware, /healthz, the Prometheus endpoint when enabled, and the gate
// for every other path. Requests the gate leaves unhandled reach the
// not-found or static handler.
func (a *App) Handler() http.Handler {
	a.handlerOnce.Do(func() {
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		if a.cfg.Logging.AccessLog {
			r.Use(accessLog(a.cfg.Logging, a.logger))
		}
		r.Use(middleware.Recoverer)

		r.Get(HealthPath, a.serveHealth)
		if a.metrics != nil {
			h, err := a.metrics.Handler()
			switch {
			case err == nil:
				r.Handle(a.cfg.Metrics.Path, h)
			case errors.Is(err, metrics.ErrNoHandler):
				a.logger.Info("metrics endpoint not mounted", "provider", a.cfg.Metrics.Provider, "reason", err)
			default:
				a.logger.Error("metrics endpoint failed", "path", a.cfg.Metrics.Path, "error", err)
			}
		}
		r.Handle("/*", a.gate.Wrap(a.notFound))
		a.handler = r
	})
	return a.handler
}

func (a *App) serveHealth(w http.ResponseWriter, _ *http.Request) {
	h := Health{Status: "ok", Routes: len(a.site.Routes())}
	if a.manager != nil {
		h.Continuations = a.manager.Len()
	}
	status := http.StatusOK
	if err := a.gate.SetupError(); err != nil {
		h.Status = "degraded"
		h.Setup = err.Error()
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(h); err != nil {
		a.logger.Warn("health response", "error", err)
	}
}
