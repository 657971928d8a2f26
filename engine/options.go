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
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"rivaas.dev/engine/compression"
	"rivaas.dev/engine/continuations"
	"rivaas.dev/engine/session"
	"rivaas.dev/engine/template"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// DefaultPassThroughSuffixes are the file suffixes the gate never routes.
var DefaultPassThroughSuffixes = []string{
	"gif", "png", "jpg", "jpeg", "bmp", "ico", "css", "js", "swf", "html",
	"htm", "htc", "class", "jar", "svg", "txt", "woff", "woff2",
}

// GateOption configures a [Gate].
type GateOption func(*Gate)

// WithManager sets the continuations manager. Passing nil disables
// continuations; without this option the gate creates its own manager.
func WithManager(m *continuations.Manager) GateOption {
	return func(g *Gate) {
		g.manager = m
		g.managerSet = true
	}
}

// WithSessions sets the session manager used by [Context.Session].
func WithSessions(m *session.Manager) GateOption {
	return func(g *Gate) {
		g.sessions = m
	}
}

// WithTemplates sets the factory used by [Context.Template].
func WithTemplates(f template.Factory) GateOption {
	return func(g *Gate) {
		g.templates = f
	}
}

// WithCompressor sets the response compressor. nil disables compression.
func WithCompressor(c *compression.Compressor) GateOption {
	return func(g *Gate) {
		g.compressor = c
	}
}

// WithPrettyExceptions selects between a diagnostic page (true, the
// default) and returning errors to the caller of [Gate.Serve].
func WithPrettyExceptions(pretty bool) GateOption {
	return func(g *Gate) {
		g.pretty = pretty
	}
}

// WithLogExceptions controls logging of errors escaping elements. On by default.
func WithLogExceptions(enabled bool) GateOption {
	return func(g *Gate) {
		g.logExceptions = enabled
	}
}

// WithPassThroughSuffixes replaces the suffixes of URLs the gate leaves
// unhandled without matching. No suffixes disables the check.
func WithPassThroughSuffixes(suffixes ...string) GateOption {
	return func(g *Gate) {
		g.passThrough = make([]string, 0, len(suffixes))
		for _, s := range suffixes {
			g.passThrough = append(g.passThrough, strings.ToLower(strings.TrimPrefix(s, ".")))
		}
	}
}

// WithProperties sets the properties available to elements.
func WithProperties(props map[string]any) GateOption {
	return func(g *Gate) {
		for k, v := range props {
			g.properties[k] = v
		}
	}
}

// WithRedirectStatus sets the status used by [Context.Redirect].
func WithRedirectStatus(status int) GateOption {
	return func(g *Gate) {
		g.redirectStatus = status
	}
}

// WithGateURL sets the URL prefix the gate is mounted under. [Gate.ServeHTTP]
// strips it before matching and [Context.URLFor] prepends it.
func WithGateURL(prefix string) GateOption {
	return func(g *Gate) {
		g.gateURL = strings.TrimSuffix(prefix, "/")
	}
}

// WithObserver registers a request observer.
func WithObserver(o Observer) GateOption {
	return func(g *Gate) {
		g.observer = o
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) GateOption {
	return func(g *Gate) {
		if t != nil {
			g.tracer = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func (g *Gate) isPassThrough(url string) bool {
	if len(g.passThrough) == 0 {
		return false
	}
	last := url[strings.LastIndexByte(url, '/')+1:]
	dot := strings.LastIndexByte(last, '.')
	if dot < 0 {
		return false
	}
	return slices.Contains(g.passThrough, strings.ToLower(last[dot+1:]))
}

func defaultGate(site *Site) *Gate {
	return &Gate{
		site:           site,
		compressor:     compression.New(),
		pretty:         true,
		logExceptions:  true,
		passThrough:    slices.Clone(DefaultPassThroughSuffixes),
		properties:     make(map[string]any),
		redirectStatus: http.StatusFound,
		tracer:         noopTracer{},
		logger:         noopLogger,
	}
}
