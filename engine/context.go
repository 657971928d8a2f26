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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cast"

	"rivaas.dev/engine/binding"
	"rivaas.dev/engine/continuations"
	"rivaas.dev/engine/session"
	"rivaas.dev/engine/telemetry/semconv"
	"rivaas.dev/engine/template"
)

const (
	// ExceptionAttribute is the attribute holding the error passed to an
	// exception route.
	ExceptionAttribute = "engine.exception"
	// ContinuationCookie carries the continuation id between requests.
	ContinuationCookie = "continuationId"
	// ContinuationParameter is the request parameter accepted in place of
	// the cookie. The cookie wins when both are present.
	ContinuationParameter = "contId"

	defaultMaxMemory = 32 << 20
)

var (
	// ErrSessionsNotConfigured indicates session access on a gate without a session manager.
	ErrSessionsNotConfigured = errors.New("sessions are not configured")

	// ErrMissingParameter indicates a required inbound parameter that is absent.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrTemplatesNotConfigured indicates template access on a gate without a template factory.
	ErrTemplatesNotConfigured = errors.New("templates are not configured")
)

// Context is the per-request state shared by the filters and the route of a
// request. It is not safe for concurrent use.
type Context struct {
	gate       *Gate
	req        *http.Request
	resp       *Response
	match      *RouteMatch
	gateURL    string
	elementURL string
	logger     *slog.Logger

	params      url.Values
	paramsReady bool
	outbound    url.Values
	attributes  map[string]any

	route   *Route
	element Element

	manager  *continuations.Manager
	active   *continuations.Continuation
	state    map[string]any
	pausedID string
	// completed is set once a resumed continuation ran to its end.
	completed bool

	session       *session.Session
	sessionLoaded bool
}

func newContext(g *Gate, gateURL, elementURL string, match *RouteMatch, w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		gate:       g,
		req:        r,
		resp:       newResponse(w, g.compressor, r.Header.Get("Accept-Encoding")),
		match:      match,
		gateURL:    strings.TrimSuffix(gateURL, "/"),
		elementURL: elementURL,
		logger:     g.logger,
		outbound:   make(url.Values),
		attributes: make(map[string]any),
		manager:    g.manager,
		state:      make(map[string]any),
	}
}

// Process runs the before filters, the matched route and the after
// filters. [SignalNext] moves on to the next route of the pipeline; any
// other signal or error stops it and is returned.
func (c *Context) Process() error {
	route := c.match.Route
	before := route.router.beforeFilters()
	after := route.router.afterFilters()
	chain := make([]*Route, 0, len(before)+1+len(after))
	chain = append(chain, before...)
	chain = append(chain, route)
	chain = append(chain, after...)

	for _, r := range chain {
		if err := c.processRoute(r); err != nil {
			if errors.Is(err, SignalNext) {
				continue
			}
			return err
		}
	}
	return nil
}

func (c *Context) processRoute(route *Route) (err error) {
	c.outbound = make(url.Values)
	c.route = route
	c.state = make(map[string]any)

	ctx, span := c.gate.tracer.StartRoute(c.req.Context(), route, c.match.PathInfo)
	req := c.req
	c.req = c.req.WithContext(ctx)
	defer func() {
		if v := recover(); v != nil {
			err = newEngineError(route.Path(), &panicError{value: v}, 2)
		}
		if c.active != nil {
			span.SetAttribute(semconv.ContinuationResumed, c.active.ParentID)
		}
		if c.pausedID != "" {
			span.SetAttribute(semconv.ContinuationID, c.pausedID)
		}
		c.active = nil
		c.req = req
		span.End(err)
	}()

	element := c.obtainElement(route)
	c.element = element

	if route.binder != nil {
		if err := route.binder.Prepare(element, c); err != nil {
			return err
		}
	}
	procErr := element.Process(c)
	if procErr != nil && !finalizes(procErr) {
		return procErr
	}
	if c.active != nil && c.active.Status() != continuations.Paused {
		if err := c.active.Complete(); err != nil {
			c.logger.Debug("continuation completion", "id", c.active.ID, "error", err)
		} else {
			c.completed = true
		}
	}
	if route.binder != nil {
		if err := route.binder.Finalize(element, c); err != nil {
			return err
		}
	}
	return procErr
}

// finalizes reports whether the output bindings still run after Process
// returned err.
func finalizes(err error) bool {
	return errors.Is(err, SignalNext) || errors.Is(err, SignalRespond) || errors.Is(err, SignalPause)
}

// obtainElement resumes the continuation named by the request when it
// belongs to route, and creates a new element otherwise.
func (c *Context) obtainElement(route *Route) Element {
	if !route.CanResume() || c.manager == nil {
		return route.newElement()
	}
	id := c.requestContinuationID()
	if id == "" {
		return route.newElement()
	}
	stored, ok := c.manager.Get(id)
	if !ok {
		c.logger.Debug("continuation not resumable", "id", id)
		return route.newElement()
	}
	if stored.Type() != route.ElementType() {
		c.logger.Debug("continuation belongs to another element", "id", id, "route", route.Path())
		return route.newElement()
	}
	cont, ok := c.manager.Resume(id)
	if !ok {
		c.logger.Debug("continuation not resumable", "id", id)
		return route.newElement()
	}
	element, isElement := cont.Continuable.(Element)
	if !isElement {
		return route.newElement()
	}
	if err := cont.Run(); err != nil {
		c.logger.Debug("continuation cannot run", "id", id, "error", err)
		return route.newElement()
	}
	clearGenerated(element, cont.State)
	c.active = cont
	c.state = cont.State
	return element
}

func (c *Context) requestContinuationID() string {
	if ck, err := c.req.Cookie(ContinuationCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	return c.Parameter(ContinuationParameter)
}

func clearGenerated(element any, state map[string]any) {
	template.ClearFields(element)
	template.ClearValues(state)
}

// Pause suspends the current element at step. The element and the values
// stored with [Context.Save] are kept by the continuations manager, and the
// returned [SignalPause] must be returned from Process. A later request
// carrying the continuation id resumes a copy of the element with
// [Context.Step] set to step.
//
// Only routes created from a type can pause; other routes get
// [ErrContinuationsNotActive].
func (c *Context) Pause(step string) error {
	if c.manager == nil || c.route == nil || !c.route.CanResume() || c.element == nil {
		return ErrContinuationsNotActive
	}
	cont := c.active
	if cont == nil {
		cont = continuations.New(c.manager.NewID(), c.element)
	}
	cont.State = c.state
	clearGenerated(c.element, cont.State)
	if err := cont.Pause(step); err != nil {
		return err
	}
	if err := c.manager.Add(cont); err != nil {
		return err
	}
	c.pausedID = cont.ID
	return SignalPause
}

// Step returns the step the current element was resumed at, or "" for a
// fresh element.
func (c *Context) Step() string {
	if c.active == nil {
		return ""
	}
	return c.active.Step
}

// Save keeps v under key across the next pause.
func (c *Context) Save(key string, v any) {
	c.state[key] = v
}

// Restore returns a value saved before the pause the element resumed from.
func (c *Context) Restore(key string) (any, bool) {
	v, ok := c.state[key]
	return v, ok
}

// ContinuationID returns the id registered by the last pause of this
// request, or the id of the continuation being executed.
func (c *Context) ContinuationID() string {
	if c.pausedID != "" {
		return c.pausedID
	}
	if c.active != nil {
		return c.active.ID
	}
	return ""
}

// Resumed reports whether the current element was resumed from a continuation.
func (c *Context) Resumed() bool {
	return c.active != nil
}

// Next stops the current route and continues the pipeline.
func (c *Context) Next() error { return SignalNext }

// Respond stops the pipeline and sends the response.
func (c *Context) Respond() error { return SignalRespond }

// Defer leaves the request unhandled. Nothing written so far is sent.
func (c *Context) Defer() error { return SignalDefer }

// Redirect stops the pipeline and redirects to url with the gate's
// redirect status.
func (c *Context) Redirect(url string) error {
	return newRedirect(url, c.gate.redirectStatus)
}

// RedirectStatus is like [Context.Redirect] with an explicit status.
func (c *Context) RedirectStatus(url string, status int) error {
	return newRedirect(url, status)
}

// Request returns the HTTP request.
func (c *Context) Request() *http.Request { return c.req }

// Context returns the request context.
func (c *Context) Context() context.Context { return c.req.Context() }

// Response returns the buffered response.
func (c *Context) Response() *Response { return c.resp }

// Route returns the route being processed.
func (c *Context) Route() *Route { return c.route }

// RouteMatch returns the match the request was dispatched with.
func (c *Context) RouteMatch() *RouteMatch { return c.match }

// Element returns the most recently processed element.
func (c *Context) Element() Element { return c.element }

// GateURL returns the URL prefix the gate is served under.
func (c *Context) GateURL() string { return c.gateURL }

// ElementURL returns the URL the route was matched against.
func (c *Context) ElementURL() string { return c.elementURL }

// PathInfo returns the part of the URL beyond the route path, without a
// leading slash.
func (c *Context) PathInfo() string { return c.match.PathInfo }

// Logger returns the gate logger.
func (c *Context) Logger() *slog.Logger { return c.logger }

func (c *Context) parameters() url.Values {
	if c.paramsReady {
		return c.params
	}
	c.paramsReady = true

	r := c.req
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(defaultMaxMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		c.logger.Debug("parse form", "error", err)
	}
	params := make(url.Values, len(r.Form))
	if r.Form != nil {
		maps.Copy(params, r.Form)
	} else {
		maps.Copy(params, r.URL.Query())
	}

	if c.match.Route.pathInfo.mode == PathInfoModeMap {
		for name, vals := range c.match.Route.pathInfo.parameters(c.match.PathInfo) {
			if _, exists := params[name]; !exists {
				params[name] = vals
			}
		}
	}
	c.params = params
	return params
}

// Parameter returns the first value of the inbound parameter name. Inbound
// parameters are the query and form values, plus the values captured by a
// path-info mapping when no parameter of the same name exists.
func (c *Context) Parameter(name string) string {
	return c.parameters().Get(name)
}

// ParameterValues returns all values of the inbound parameter name.
func (c *Context) ParameterValues(name string) []string {
	return c.parameters()[name]
}

// HasParameter reports whether the inbound parameter name is present.
func (c *Context) HasParameter(name string) bool {
	_, ok := c.parameters()[name]
	return ok
}

// Parameters returns a copy of the inbound parameters.
func (c *Context) Parameters() url.Values {
	return maps.Clone(c.parameters())
}

// ParameterInt returns the inbound parameter name as an int.
func (c *Context) ParameterInt(name string) (int, error) {
	v, ok := c.parameters()[name]
	if !ok || len(v) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrMissingParameter, name)
	}
	return cast.ToIntE(v[0])
}

// Header returns the request header name.
func (c *Context) Header(name string) string {
	return c.req.Header.Get(name)
}

// Cookie returns the value of the request cookie name.
func (c *Context) Cookie(name string) (string, bool) {
	ck, err := c.req.Cookie(name)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

// AddCookie sets a cookie on the response.
func (c *Context) AddCookie(ck *http.Cookie) {
	http.SetCookie(c.resp, ck)
}

// RemoveCookie expires the cookie name on the client.
func (c *Context) RemoveCookie(name string) {
	http.SetCookie(c.resp, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
}

// UploadedFile returns the uploaded file of the form field name.
func (c *Context) UploadedFile(name string) (*multipart.FileHeader, bool) {
	c.parameters()
	if c.req.MultipartForm == nil {
		return nil, false
	}
	files := c.req.MultipartForm.File[name]
	if len(files) == 0 {
		return nil, false
	}
	return files[0], true
}

// Session loads the session of the request, creating one when the client
// has none. Changes are saved when the response is sent.
func (c *Context) Session() (*session.Session, error) {
	if c.gate.sessions == nil {
		return nil, ErrSessionsNotConfigured
	}
	if c.sessionLoaded {
		return c.session, nil
	}
	s, err := c.gate.sessions.Load(c.req.Context(), c.req)
	if err != nil {
		return nil, err
	}
	c.session, c.sessionLoaded = s, true
	return s, nil
}

// Property returns a gate property.
func (c *Context) Property(name string) (any, bool) {
	v, ok := c.gate.properties[name]
	return v, ok
}

// Attribute returns a request attribute.
func (c *Context) Attribute(name string) (any, bool) {
	v, ok := c.attributes[name]
	return v, ok
}

// SetAttribute sets a request attribute. Attributes live for the request.
func (c *Context) SetAttribute(name string, v any) {
	c.attributes[name] = v
}

// SetOutbound sets an outbound parameter used by [Context.URLFor]. The
// outbound parameters are reset before every route.
func (c *Context) SetOutbound(name string, values ...string) {
	c.outbound[name] = values
}

// Outbound returns the values of an outbound parameter.
func (c *Context) Outbound(name string) []string {
	return c.outbound[name]
}

// URLFor builds the URL of route under the gate URL. Parameters consumed by
// a path-info mapping become path info; the others go to the query string.
// params take precedence over outbound parameters of the same name.
func (c *Context) URLFor(route *Route, params url.Values) string {
	merged := maps.Clone(c.outbound)
	maps.Copy(merged, params)

	u := c.gateURL + route.Path()
	if route.pathInfo.mode == PathInfoModeMap {
		if pathInfo, used, ok := route.pathInfo.build(merged); ok {
			u = strings.TrimSuffix(u, "/") + "/" + pathInfo
			for _, name := range used {
				delete(merged, name)
			}
		}
	}
	if len(merged) > 0 {
		u += "?" + merged.Encode()
	}
	return u
}

// Print writes the formatted operands to the response.
func (c *Context) Print(a ...any) {
	fmt.Fprint(c.resp, a...)
}

// Printf writes formatted output to the response.
func (c *Context) Printf(format string, a ...any) {
	fmt.Fprintf(c.resp, format, a...)
}

// PrintTemplate renders t to the response. The template's content type is
// used when none was set.
func (c *Context) PrintTemplate(t template.Template) error {
	if !c.resp.IsContentTypeSet() {
		c.resp.SetContentType(t.DefaultContentType())
	}
	return t.Render(c.resp)
}

// Template returns a template from the gate's template factory.
func (c *Context) Template(name string) (template.Template, error) {
	if c.gate.templates == nil {
		return nil, ErrTemplatesNotConfigured
	}
	return c.gate.templates.Get(name)
}

// SetContentType sets the response content type.
func (c *Context) SetContentType(contentType string) {
	c.resp.SetContentType(contentType)
}

// SetStatus sets the response status.
func (c *Context) SetStatus(status int) {
	c.resp.WriteHeader(status)
}

// SetHeader sets a response header.
func (c *Context) SetHeader(name, value string) {
	c.resp.Header().Set(name, value)
}

// AddHeader adds a response header value.
func (c *Context) AddHeader(name, value string) {
	c.resp.Header().Add(name, value)
}

// Lookup implements [binding.Source].
func (c *Context) Lookup(kind binding.Kind, key string) (any, bool) {
	switch kind {
	case binding.KindParameter:
		vals, ok := c.parameters()[key]
		return vals, ok && len(vals) > 0
	case binding.KindHeader:
		vals := c.req.Header.Values(key)
		if len(vals) == 0 {
			return nil, false
		}
		return vals[0], true
	case binding.KindCookie:
		return c.Cookie(key)
	case binding.KindSession:
		s, err := c.Session()
		if err != nil {
			return nil, false
		}
		return s.Get(key)
	case binding.KindPathInfo:
		return c.match.PathInfo, c.match.PathInfo != ""
	case binding.KindFile:
		return c.UploadedFile(key)
	case binding.KindProperty:
		return c.Property(key)
	default:
		return nil, false
	}
}

// Store implements [binding.Sink].
func (c *Context) Store(kind binding.Kind, key string, value any) error {
	switch kind {
	case binding.KindHeader:
		s, err := cast.ToStringE(value)
		if err != nil {
			return err
		}
		c.SetHeader(key, s)
	case binding.KindCookie:
		s, err := cast.ToStringE(value)
		if err != nil {
			return err
		}
		c.AddCookie(&http.Cookie{Name: key, Value: s, Path: "/"})
	case binding.KindSession:
		s, err := c.Session()
		if err != nil {
			return err
		}
		s.Set(key, value)
	case binding.KindBody:
		switch v := value.(type) {
		case []byte:
			_, err := c.resp.Write(v)
			return err
		case string:
			_, err := c.resp.WriteString(v)
			return err
		default:
			c.Print(v)
		}
	default:
		return fmt.Errorf("%w: %s", binding.ErrUnsupportedOutput, kind)
	}
	return nil
}

func (c *Context) commitSession() {
	if c.session != nil && c.gate.sessions != nil {
		if err := c.gate.sessions.Commit(c.req.Context(), c.resp, c.session); err != nil {
			c.logger.Error("session commit failed", "error", err)
		}
	}
}

// finish saves the session and sends the response.
func (c *Context) finish() {
	c.commitSession()
	if err := c.resp.Close(); err != nil {
		c.logger.Debug("response write failed", "error", err)
	}
}

// expireContinuationCookie drops the cookie of a resumed continuation that
// completed, so the next visit starts a fresh element.
func (c *Context) expireContinuationCookie() {
	if !c.completed || c.pausedID != "" {
		return
	}
	if _, err := c.req.Cookie(ContinuationCookie); err != nil {
		return
	}
	c.RemoveCookie(ContinuationCookie)
}

func (c *Context) setContinuationCookie() {
	if c.pausedID == "" || c.manager == nil {
		return
	}
	http.SetCookie(c.resp, &http.Cookie{
		Name:     ContinuationCookie,
		Value:    c.pausedID,
		Path:     "/",
		MaxAge:   int(c.manager.Duration().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
