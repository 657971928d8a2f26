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
	"net/http"
	"slices"
	"strings"
	"sync"
)

// RouteMatch is a route together with the path info it was matched with.
type RouteMatch struct {
	Route    *Route
	PathInfo string
}

// RouteInfo describes a route for listings.
type RouteInfo struct {
	Methods   []string `json:"methods,omitempty" yaml:"methods,omitempty"`
	Path      string   `json:"path" yaml:"path"`
	PathInfo  string   `json:"pathInfo" yaml:"pathInfo"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	ElementID string   `json:"elementId,omitempty" yaml:"elementId,omitempty"`
	Strategy  string   `json:"strategy" yaml:"strategy"`
	Kind      string   `json:"kind" yaml:"kind"`
}

// Site is the root router. Deploying it seals the tree and builds the
// lookup tables used by [Site.Match].
type Site struct {
	*Router

	deployOnce sync.Once
	deployErr  error
	index      *routeIndex
}

// NewSite creates a site whose routes are registered by setup when the
// site is deployed. setup may be nil when routes are registered directly.
//
// Example:
//
//	site := engine.NewSite(func(r *engine.Router) error {
//	    r.Get("/hello", engine.Func(func(c *engine.Context) error {
//	        c.Print("Hello")
//	        return nil
//	    }))
//	    return nil
//	})
func NewSite(setup SetupFunc) *Site {
	return &Site{Router: NewRouter(setup)}
}

// Deploy runs the setup, seals every router and builds the lookup tables.
// It runs once; later calls return the first result.
func (s *Site) Deploy() error {
	s.deployOnce.Do(func() {
		if err := s.runSetup(); err != nil {
			s.deployErr = err
			return
		}
		if err := s.Router.Deploy(); err != nil {
			s.deployErr = err
			return
		}
		s.index = buildIndex(s.Router)
	})
	return s.deployErr
}

// Match resolves method and url to a route. It returns false when nothing
// matches or the site is not deployed.
//
// Literal routes are tried first at the full URL, also without a trailing
// slash. Path-info routes are tried next, walking up one segment at a
// time; candidates at the same path are tried in registration order and
// a mapped route only takes path info one of its mappings accepts. When
// nothing matches the fallback with the longest prefix is used.
func (s *Site) Match(method, url string) (*RouteMatch, bool) {
	idx := s.index
	if idx == nil {
		return nil, false
	}
	url = StripPathParameters(url)
	if url == "" {
		url = "/"
	}

	if route := idx.literalRoute(method, url); route != nil {
		return &RouteMatch{Route: route}, true
	}

	candidate := url
	for {
		pathInfo := strings.TrimPrefix(url[len(candidate):], "/")
		if route := idx.pathInfoRoute(method, candidate, pathInfo); route != nil {
			return &RouteMatch{Route: route, PathInfo: pathInfo}, true
		}
		if candidate == "/" {
			break
		}
		i := strings.LastIndexByte(candidate, '/')
		if i < 0 {
			break
		}
		candidate = candidate[:i]
		if candidate == "" {
			candidate = "/"
		}
	}

	if route, prefix := idx.fallback(url); route != nil {
		return &RouteMatch{Route: route, PathInfo: strings.TrimPrefix(url[len(prefix):], "/")}, true
	}
	return nil, false
}

// Routes lists the deployed routes in lookup order, followed by filters,
// exception and fallback routes.
func (s *Site) Routes() []RouteInfo {
	idx := s.index
	if idx == nil {
		return nil
	}
	return slices.Clone(idx.infos)
}

// StripPathParameters removes ";name=value" path parameters from url.
func StripPathParameters(url string) string {
	if i := strings.IndexByte(url, ';'); i >= 0 {
		return url[:i]
	}
	return url
}

type routeIndex struct {
	literal   map[string][]*Route
	pathInfo  map[string][]*Route
	fallbacks map[string]*Route
	prefixes  []string
	infos     []RouteInfo
}

func buildIndex(root *Router) *routeIndex {
	idx := &routeIndex{
		literal:   make(map[string][]*Route),
		pathInfo:  make(map[string][]*Route),
		fallbacks: make(map[string]*Route),
	}
	var filters []RouteInfo
	root.walk(func(r *Router) {
		for _, route := range r.routes {
			path := route.Path()
			if route.pathInfo.mode == PathInfoModeNone {
				idx.literal[path] = append(idx.literal[path], route)
			} else {
				idx.pathInfo[path] = append(idx.pathInfo[path], route)
			}
			idx.infos = append(idx.infos, routeInfo(route, "route"))
		}
		for _, route := range r.fallbacks {
			// Parents are walked first, so their fallbacks win on equal prefixes.
			path := route.Path()
			if _, ok := idx.fallbacks[path]; !ok {
				idx.fallbacks[path] = route
				idx.prefixes = append(idx.prefixes, path)
			}
			filters = append(filters, routeInfo(route, "fallback"))
		}
		for _, route := range r.before {
			filters = append(filters, routeInfo(route, "before"))
		}
		for _, route := range r.after {
			filters = append(filters, routeInfo(route, "after"))
		}
		if r.exception != nil {
			filters = append(filters, routeInfo(r.exception, "exception"))
		}
	})
	slices.SortStableFunc(idx.prefixes, func(a, b string) int {
		return len(b) - len(a)
	})
	idx.infos = append(idx.infos, filters...)
	return idx
}

func routeInfo(r *Route, kind string) RouteInfo {
	info := RouteInfo{
		Methods:   r.Methods(),
		Path:      r.Path(),
		PathInfo:  r.pathInfo.String(),
		Name:      r.name,
		ElementID: r.elementID,
		Strategy:  r.Strategy().String(),
		Kind:      kind,
	}
	if kind == "before" || kind == "after" || kind == "exception" {
		info.Path = r.router.fullPrefix()
		if info.Path == "" {
			info.Path = "/"
		}
	}
	return info
}

func (idx *routeIndex) literalRoute(method, url string) *Route {
	if route := firstForMethod(idx.literal[url], method); route != nil {
		return route
	}
	if len(url) > 1 && strings.HasSuffix(url, "/") {
		stripped := url[:len(url)-1]
		// A dot in the last segment means a file name, not a directory.
		if strings.LastIndexByte(stripped, '.') <= strings.LastIndexByte(stripped, '/') {
			return firstForMethod(idx.literal[stripped], method)
		}
	}
	return nil
}

func (idx *routeIndex) pathInfoRoute(method, path, pathInfo string) *Route {
	return firstMatching(idx.pathInfo[path], method, func(route *Route) bool {
		return route.pathInfo.accepts(pathInfo)
	})
}

func (idx *routeIndex) fallback(url string) (*Route, string) {
	for _, prefix := range idx.prefixes {
		if prefix == "/" || url == prefix || strings.HasPrefix(url, prefix+"/") {
			return idx.fallbacks[prefix], prefix
		}
	}
	return nil, ""
}

func firstForMethod(routes []*Route, method string) *Route {
	return firstMatching(routes, method, func(*Route) bool { return true })
}

// firstMatching returns the first route serving method that accept takes.
// A HEAD request is answered by a GET route when no route serves HEAD.
func firstMatching(routes []*Route, method string, accept func(*Route) bool) *Route {
	for _, m := range methodCandidates(method) {
		for _, route := range routes {
			if route.matchesMethod(m) && accept(route) {
				return route
			}
		}
	}
	return nil
}

func methodCandidates(method string) []string {
	if method == http.MethodHead {
		return []string{http.MethodHead, http.MethodGet}
	}
	return []string{method}
}
