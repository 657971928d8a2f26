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
	"fmt"
	"net/http"
	"strings"
)

// SetupFunc registers the routes of a router. It runs once, when the router
// is grouped into a parent or, for a [Site], when the site is deployed.
type SetupFunc func(r *Router) error

// Router holds routes, filters, exception and fallback routes, and child
// groups. Registration is not safe for concurrent use; it happens during
// setup, before the router is deployed.
type Router struct {
	parent *Router
	prefix string
	setup  SetupFunc

	routes    []*Route
	before    []*Route
	after     []*Route
	exception *Route
	fallbacks []*Route
	groups    []*Router

	namedRoutes  map[string]*Route
	namedRouters map[string]*Router

	deployed    bool
	setupDone   bool
	beforeChain []*Route
	afterChain  []*Route
	errs        []error
}

// NewRouter creates a router whose routes are registered by setup.
// The setup runs when the router is grouped, see [Router.Group].
func NewRouter(setup SetupFunc) *Router {
	return &Router{
		setup:        setup,
		namedRoutes:  make(map[string]*Route),
		namedRouters: make(map[string]*Router),
	}
}

// Parent returns the router this one was grouped into, or nil.
func (r *Router) Parent() *Router {
	return r.parent
}

// Prefix returns the prefix given to [Router.Group].
func (r *Router) Prefix() string {
	return r.prefix
}

// Deployed reports whether the router is sealed.
func (r *Router) Deployed() bool {
	return r.deployed
}

// Err returns the registration failures recorded so far, joined.
func (r *Router) Err() error {
	return errors.Join(r.errs...)
}

func (r *Router) record(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

func (r *Router) fullPrefix() string {
	var parts []string
	for n := r; n != nil; n = n.parent {
		if n.prefix != "" {
			parts = append(parts, n.prefix)
		}
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteString(parts[i])
	}
	return sb.String()
}

// NewRoute builds a route without registering it. An empty path is
// derived from the handler type, so a [Type] route for HandlerX defaults to
// "/handlerX".
func NewRoute(methods []string, path string, h Handler, opts ...RouteOption) (*Route, error) {
	route, err := buildRoute(methods, path, h, opts)
	if err != nil {
		return nil, err
	}
	switch {
	case route.localPath == "":
		return nil, ErrMissingPath
	case !strings.HasPrefix(route.localPath, "/"):
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, route.localPath)
	}
	return route, nil
}

func buildRoute(methods []string, path string, h Handler, opts []RouteOption) (*Route, error) {
	if !h.valid() {
		return nil, ErrNilHandler
	}
	route := &Route{
		methods:  normalizeMethods(methods),
		handler:  h,
		pathInfo: PathInfoNone(),
	}
	for _, opt := range opts {
		opt(route)
	}
	if path == "" {
		path = defaultPath(h.elementType)
	}
	route.localPath = path
	if route.binder != nil {
		if err := route.binder.Check(h.boundType()); err != nil {
			return nil, err
		}
	}
	if route.elementID == "" {
		route.elementID = h.elementID()
	}
	compiled, err := route.pathInfo.compile()
	if err != nil {
		return nil, err
	}
	route.pathInfo = compiled
	return route, nil
}

// Register adds a route built with [NewRoute]. Routes without path info go
// to the literal table, the others to the path-info table.
func (r *Router) Register(route *Route) error {
	switch {
	case r.deployed:
		return ErrRouterDeployed
	case route == nil:
		return ErrNilHandler
	case route.router != nil:
		return ErrRouteRegistered
	}
	route.router = r
	r.routes = append(r.routes, route)
	if route.name != "" {
		r.namedRoutes[route.name] = route
	}
	return nil
}

// Route registers h under path for the given methods; no methods means any
// method. See [NewRoute] for the path rules.
//
// It returns nil when registration fails. The failure is kept and reported
// by [Router.Err] and by deployment.
func (r *Router) Route(methods []string, path string, h Handler, opts ...RouteOption) *Route {
	err := ErrRouterDeployed
	var route *Route
	if !r.deployed {
		route, err = NewRoute(methods, path, h, opts...)
		if err == nil {
			err = r.Register(route)
		}
	}
	if err != nil {
		r.record(fmt.Errorf("register %q: %w", path, err))
		return nil
	}
	return route
}

// Get registers a GET route. GET routes also answer HEAD requests.
func (r *Router) Get(path string, h Handler, opts ...RouteOption) *Route {
	return r.Route([]string{http.MethodGet}, path, h, opts...)
}

// Post registers a POST route.
func (r *Router) Post(path string, h Handler, opts ...RouteOption) *Route {
	return r.Route([]string{http.MethodPost}, path, h, opts...)
}

// Put registers a PUT route.
func (r *Router) Put(path string, h Handler, opts ...RouteOption) *Route {
	return r.Route([]string{http.MethodPut}, path, h, opts...)
}

// Delete registers a DELETE route.
func (r *Router) Delete(path string, h Handler, opts ...RouteOption) *Route {
	return r.Route([]string{http.MethodDelete}, path, h, opts...)
}

// Patch registers a PATCH route.
func (r *Router) Patch(path string, h Handler, opts ...RouteOption) *Route {
	return r.Route([]string{http.MethodPatch}, path, h, opts...)
}

// Any registers a route for every method.
func (r *Router) Any(path string, h Handler, opts ...RouteOption) *Route {
	return r.Route(nil, path, h, opts...)
}

func (r *Router) filter(list *[]*Route, h Handler, opts []RouteOption) *Route {
	err := ErrRouterDeployed
	var route *Route
	if !r.deployed {
		route, err = buildRoute(nil, "", h, opts)
	}
	if err != nil {
		r.record(fmt.Errorf("register filter: %w", err))
		return nil
	}
	route.router = r
	*list = append(*list, route)
	return route
}

// Before adds a filter that runs ahead of every route of this router and
// of its groups.
func (r *Router) Before(h Handler, opts ...RouteOption) *Route {
	return r.filter(&r.before, h, opts)
}

// After adds a filter that runs after every route of this router and of
// its groups.
func (r *Router) After(h Handler, opts ...RouteOption) *Route {
	return r.filter(&r.after, h, opts)
}

// Exception sets the route that handles errors escaping the routes of this
// router. The error is available as the [ExceptionAttribute] attribute.
func (r *Router) Exception(h Handler, opts ...RouteOption) *Route {
	var list []*Route
	route := r.filter(&list, h, opts)
	if route != nil {
		r.exception = route
	}
	return route
}

// Fallback registers a route for unmatched URLs below prefix. The longest
// matching prefix wins and the rest of the URL becomes the path info.
func (r *Router) Fallback(prefix string, h Handler, opts ...RouteOption) *Route {
	if prefix == "" {
		prefix = "/"
	}
	opts = append([]RouteOption{WithPathInfo(PathInfoCapture())}, opts...)
	err := ErrRouterDeployed
	var route *Route
	if !r.deployed {
		route, err = NewRoute(nil, prefix, h, opts...)
	}
	if err != nil {
		r.record(fmt.Errorf("register fallback %q: %w", prefix, err))
		return nil
	}
	route.router = r
	r.fallbacks = append(r.fallbacks, route)
	return route
}

// Group attaches child under prefix. The child's setup runs first, then its
// routes become reachable under prefix + their path. A router can only be
// grouped once.
//
// Example:
//
//	admin := engine.NewRouter(func(r *engine.Router) error {
//	    r.Get("/users", engine.Type[Users]())
//	    return nil
//	})
//	site.Group("/admin", admin) // serves /admin/users
func (r *Router) Group(prefix string, child *Router) error {
	err := r.group(prefix, child)
	r.record(err)
	return err
}

func (r *Router) group(prefix string, child *Router) error {
	switch {
	case r.deployed:
		return ErrRouterDeployed
	case child == nil:
		return ErrNilHandler
	case child.parent != nil || child == r:
		return ErrRouterAlreadyGrouped
	case prefix != "" && !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("%w: %q", ErrInvalidPath, prefix)
	}
	child.parent = r
	child.prefix = strings.TrimSuffix(prefix, "/")
	r.groups = append(r.groups, child)
	if err := child.runSetup(); err != nil {
		return fmt.Errorf("group %q: %w", prefix, err)
	}
	return nil
}

func (r *Router) runSetup() error {
	if r.setupDone {
		return r.Err()
	}
	r.setupDone = true
	if r.setup != nil {
		if err := callSetup(r.setup, r); err != nil {
			r.record(err)
		}
	}
	return r.Err()
}

func callSetup(setup SetupFunc, r *Router) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = newEngineError("", &panicError{value: v}, 2)
		}
	}()
	return setup(r)
}

// Name records route under name for [Router.Resolve].
func (r *Router) Name(name string, route *Route) {
	if route != nil {
		r.namedRoutes[name] = route
	}
}

// NameRouter records router under name for [Router.Resolve].
func (r *Router) NameRouter(name string, router *Router) {
	if router != nil {
		r.namedRouters[name] = router
	}
}

// Groups returns the child routers in grouping order.
func (r *Router) Groups() []*Router {
	return append([]*Router(nil), r.groups...)
}

// Deploy seals the router and its groups. Groups inherit the before
// filters of their ancestors ahead of their own and the after filters
// behind their own. Deploying twice is a no-op.
func (r *Router) Deploy() error {
	if r.deployed {
		return r.Err()
	}
	var parentBefore, parentAfter []*Route
	if r.parent != nil {
		parentBefore, parentAfter = r.parent.beforeFilters(), r.parent.afterFilters()
	}
	r.beforeChain = append(append([]*Route(nil), parentBefore...), r.before...)
	r.afterChain = append(append([]*Route(nil), r.after...), parentAfter...)
	r.deployed = true

	errs := []error{r.Err()}
	for _, g := range r.groups {
		errs = append(errs, g.Deploy())
	}
	return errors.Join(errs...)
}

func (r *Router) beforeFilters() []*Route {
	if r.deployed {
		return r.beforeChain
	}
	var chain []*Route
	if r.parent != nil {
		chain = r.parent.beforeFilters()
	}
	return append(append([]*Route(nil), chain...), r.before...)
}

func (r *Router) afterFilters() []*Route {
	if r.deployed {
		return r.afterChain
	}
	chain := append([]*Route(nil), r.after...)
	if r.parent != nil {
		chain = append(chain, r.parent.afterFilters()...)
	}
	return chain
}

// exceptionRoute returns the closest exception route, walking up to the site.
func (r *Router) exceptionRoute() *Route {
	for n := r; n != nil; n = n.parent {
		if n.exception != nil {
			return n.exception
		}
	}
	return nil
}

// walk visits r and its groups, parents first.
func (r *Router) walk(fn func(*Router)) {
	fn(r)
	for _, g := range r.groups {
		g.walk(fn)
	}
}
