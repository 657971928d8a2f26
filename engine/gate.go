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
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rivaas.dev/engine/compression"
	"rivaas.dev/engine/continuations"
	engineerrors "rivaas.dev/engine/errors"
	"rivaas.dev/engine/session"
	"rivaas.dev/engine/telemetry/semconv"
	"rivaas.dev/engine/template"
)

// Gate dispatches requests to a deployed [Site]. It is safe for concurrent use.
type Gate struct {
	site       *Site
	manager    *continuations.Manager
	managerSet bool
	sessions   *session.Manager
	templates  template.Factory
	compressor *compression.Compressor

	pretty         bool
	logExceptions  bool
	passThrough    []string
	properties     map[string]any
	redirectStatus int
	gateURL        string

	observer Observer
	tracer   Tracer
	logger   *slog.Logger

	setupErr error
}

// NewGate deploys site and returns a gate serving it.
//
// A failing setup is not fatal in pretty mode: the error is remembered and
// rendered as a diagnostic page for every request. Without pretty
// exceptions the setup error is returned.
func NewGate(site *Site, opts ...GateOption) (*Gate, error) {
	if site == nil {
		return nil, ErrNilSite
	}
	g := defaultGate(site)
	for _, opt := range opts {
		opt(g)
	}
	if !g.managerSet {
		m, err := continuations.NewManager(continuations.WithLogger(g.logger))
		if err != nil {
			return nil, err
		}
		g.manager = m
	}

	if err := site.Deploy(); err != nil {
		if !g.pretty {
			return nil, err
		}
		g.setupErr = err
		if g.logExceptions {
			g.logger.Error("site setup failed", "error", err)
		}
	}
	return g, nil
}

// MustNewGate is like [NewGate] but panics on error.
func MustNewGate(site *Site, opts ...GateOption) *Gate {
	g, err := NewGate(site, opts...)
	if err != nil {
		panic("engine: " + err.Error())
	}
	return g
}

// Site returns the served site.
func (g *Gate) Site() *Site { return g.site }

// Manager returns the continuations manager, nil when disabled.
func (g *Gate) Manager() *continuations.Manager { return g.manager }

// SetupError returns the remembered site setup failure.
func (g *Gate) SetupError() error { return g.setupErr }

// HandleRequest serves elementURL, a path relative to gateURL. It reports
// whether the request was handled; unhandled requests leave w untouched.
// In raw exception mode errors are answered with a bare 500.
func (g *Gate) HandleRequest(gateURL, elementURL string, w http.ResponseWriter, r *http.Request) bool {
	handled, err := g.Serve(gateURL, elementURL, w, r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return true
	}
	return handled
}

// Serve is like [Gate.HandleRequest] but returns the errors escaping the
// pipeline when pretty exceptions are off. Nothing has been written to w
// when an error is returned.
func (g *Gate) Serve(gateURL, elementURL string, w http.ResponseWriter, r *http.Request) (bool, error) {
	start := time.Now()
	elementURL = StripPathParameters(elementURL)

	if g.setupErr != nil {
		g.renderSetupError(w, r)
		return true, nil
	}
	if g.isPassThrough(elementURL) {
		g.report(r, nil, OutcomePassThrough, start)
		return false, nil
	}

	ctx, span := g.tracer.StartDispatch(r.Context(), r)
	r = r.WithContext(ctx)

	match, ok := g.site.Match(r.Method, elementURL)
	if !ok {
		span.SetAttribute(semconv.EngineOutcome, string(OutcomeUnhandled))
		span.End(nil)
		g.report(r, nil, OutcomeUnhandled, start)
		return false, nil
	}
	span.SetAttribute(semconv.EngineRoute, match.Route.Path())

	c := newContext(g, gateURL, elementURL, match, w, r)
	err := c.Process()
	outcome := outcomeOf(err)

	handled := true
	var raw error
	switch outcome {
	case OutcomePaused:
		c.setContinuationCookie()
		span.SetAttribute(semconv.ContinuationID, c.pausedID)
		c.finish()
	case OutcomeRedirected:
		var rs *RedirectSignal
		errors.As(err, &rs)
		c.commitSession()
		c.resp.redirect(r, rs.URL, rs.Status)
	case OutcomeDeferred:
		handled = false
	case OutcomeError:
		raw = g.handleException(c, err)
	default:
		c.expireContinuationCookie()
		c.finish()
	}

	span.SetAttribute(semconv.EngineOutcome, string(outcome))
	if outcome == OutcomeError {
		span.End(err)
	} else {
		span.End(nil)
	}
	g.report(r, match.Route, outcome, start)
	return handled, raw
}

func (g *Gate) report(r *http.Request, route *Route, outcome Outcome, start time.Time) {
	if g.observer != nil {
		g.observer.RequestHandled(r, route, outcome, time.Since(start))
	}
}

// handleException hands err to the closest exception route and otherwise
// renders it. It returns the error in raw mode.
func (g *Gate) handleException(c *Context, err error) error {
	route := c.match.Route
	ee := newEngineError(route.Path(), err, 1)
	if g.logExceptions {
		g.logger.Error("engine exception", "url", c.elementURL, "route", ee.Route, "error", err)
	}
	c.SetAttribute(ExceptionAttribute, ee)

	if ex := route.router.exceptionRoute(); ex != nil && ex != route {
		c.resp.Reset(false)
		c.resp.WriteHeader(engineerrors.Status(ee))
		exErr := c.processRoute(ex)
		if exErr == nil || errors.Is(exErr, SignalRespond) || errors.Is(exErr, SignalNext) {
			c.finish()
			return nil
		}
		g.logger.Error("exception route failed", "route", ex.Path(), "error", exErr)
	}

	if !g.pretty {
		return ee
	}
	formatter := engineerrors.ForContentType(c.resp.ContentType())
	resp := formatter.Format(c.req, ee)
	c.resp.Reset(true)
	for k, vals := range resp.Headers {
		c.resp.Header()[k] = vals
	}
	c.resp.SetContentType(resp.ContentType)
	c.resp.WriteHeader(resp.Status)
	_, _ = c.resp.Write(resp.Body)
	if cerr := c.resp.Close(); cerr != nil {
		g.logger.Debug("response write failed", "error", cerr)
	}
	return nil
}

func (g *Gate) renderSetupError(w http.ResponseWriter, r *http.Request) {
	resp := engineerrors.NewHTML().Format(r, g.setupErr)
	if err := engineerrors.Write(w, resp); err != nil {
		g.logger.Debug("response write failed", "error", err)
	}
}

// ServeHTTP serves r through the gate and answers 404 when it is unhandled.
func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.Wrap(http.NotFoundHandler()).ServeHTTP(w, r)
}

// Wrap returns a handler that serves requests through the gate and passes
// unhandled ones to next. In raw exception mode errors are re-raised as
// panics for the recovery middleware of the host.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		elementURL := r.URL.Path
		if g.gateURL != "" {
			rest, ok := strings.CutPrefix(elementURL, g.gateURL)
			if !ok || (rest != "" && rest[0] != '/') {
				next.ServeHTTP(w, r)
				return
			}
			elementURL = rest
		}
		handled, err := g.Serve(g.gateURL, elementURL, w, r)
		if err != nil {
			panic(err)
		}
		if !handled {
			next.ServeHTTP(w, r)
		}
	})
}
