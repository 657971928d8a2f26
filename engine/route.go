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
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"rivaas.dev/engine/binding"
)

// Element handles requests routed to it.
type Element interface {
	Process(c *Context) error
}

// ElementFunc adapts a function to [Element].
type ElementFunc func(c *Context) error

// Process calls f(c).
func (f ElementFunc) Process(c *Context) error {
	return f(c)
}

// Strategy is how a route obtains its element for each processing.
type Strategy int

const (
	// StrategyType creates a fresh element of a declared type per processing.
	// Only these routes can pause and resume.
	StrategyType Strategy = iota
	// StrategySupplier calls a supplier function per processing.
	StrategySupplier
	// StrategyInstance reuses one pre-built element.
	StrategyInstance
)

// String returns the lower-case strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyType:
		return "type"
	case StrategySupplier:
		return "supplier"
	case StrategyInstance:
		return "instance"
	default:
		return "unknown"
	}
}

// Handler tells a route how to obtain its element. Build it with [Type],
// [Factory], [Supplier], [Instance] or [Func].
type Handler struct {
	strategy    Strategy
	create      func() Element
	instance    Element
	elementType reflect.Type
}

// Type registers the element type T; *T must implement [Element]. Each
// processing gets a new zero *T, and continuations can resume it.
//
// Example:
//
//	site.Get("/wizard", engine.Type[Wizard]())
func Type[T any, PT interface {
	*T
	Element
}]() Handler {
	return Handler{
		strategy:    StrategyType,
		create:      func() Element { return PT(new(T)) },
		elementType: reflect.TypeFor[PT](),
	}
}

// Factory registers a constructor for elements of type E. The route behaves
// like a [Type] route and can resume continuations of E.
func Factory[E Element](fn func() E) Handler {
	if fn == nil {
		return Handler{strategy: StrategyType}
	}
	h := Handler{
		strategy: StrategyType,
		create:   func() Element { return fn() },
	}
	// An interface type cannot be compared with a continuable's dynamic type.
	if t := reflect.TypeFor[E](); t.Kind() != reflect.Interface {
		h.elementType = t
	}
	return h
}

// Supplier registers a function called for every processing. Supplied
// elements cannot resume continuations.
func Supplier(fn func() Element) Handler {
	h := Handler{strategy: StrategySupplier}
	if fn != nil {
		h.create = fn
	}
	return h
}

// Instance registers a pre-built element shared by all requests.
func Instance(e Element) Handler {
	return Handler{strategy: StrategyInstance, instance: e}
}

// Func registers a function as a shared element.
func Func(fn func(c *Context) error) Handler {
	if fn == nil {
		return Handler{strategy: StrategyInstance}
	}
	return Instance(ElementFunc(fn))
}

// boundType is the dynamic type of the elements the handler yields, or nil
// when it is only known per request.
func (h Handler) boundType() reflect.Type {
	if h.elementType != nil {
		return h.elementType
	}
	if h.instance != nil {
		return reflect.TypeOf(h.instance)
	}
	return nil
}

func (h Handler) elementID() string {
	if h.elementType != nil {
		return qualifiedTypeName(h.elementType)
	}
	if h.instance != nil {
		if _, ok := h.instance.(ElementFunc); !ok {
			return qualifiedTypeName(reflect.TypeOf(h.instance))
		}
	}
	return ""
}

func (h Handler) valid() bool {
	if h.strategy == StrategyInstance {
		return h.instance != nil
	}
	return h.create != nil
}

// Route binds an element to a method filter, path and path-info handling.
type Route struct {
	router    *Router
	methods   []string
	localPath string
	pathInfo  PathInfoHandling
	handler   Handler
	name      string
	elementID string
	binder    binding.Binder
}

// RouteOption configures a route at registration.
type RouteOption func(*Route)

// WithPathInfo sets the path-info handling of the route.
func WithPathInfo(h PathInfoHandling) RouteOption {
	return func(r *Route) {
		r.pathInfo = h
	}
}

// WithName records the route under name in its router's named-route
// registry, see [Router.Resolve].
func WithName(name string) RouteOption {
	return func(r *Route) {
		r.name = name
	}
}

// WithBinding attaches a binding descriptor run before and after Process.
//
// Example:
//
//	site.Post("/signup", engine.Type[Signup](), engine.WithBinding(
//	    binding.For[*Signup]().
//	        Param("email", binding.String(func(s *Signup, v string) { s.Email = v })).
//	        Validate("email", "required,email"),
//	))
func WithBinding(b binding.Binder) RouteOption {
	return func(r *Route) {
		r.binder = b
	}
}

// WithElementID overrides the element id derived from the handler type.
func WithElementID(id string) RouteOption {
	return func(r *Route) {
		r.elementID = id
	}
}

// Router returns the router that registered the route.
func (r *Route) Router() *Router {
	return r.router
}

// Path returns the full path of the route, including group prefixes.
func (r *Route) Path() string {
	prefix := r.router.fullPrefix()
	if prefix != "" && r.localPath == "/" {
		return prefix
	}
	return prefix + r.localPath
}

// Methods returns the accepted methods; empty means any.
func (r *Route) Methods() []string {
	return slices.Clone(r.methods)
}

// PathInfo returns the path-info handling.
func (r *Route) PathInfo() PathInfoHandling {
	return r.pathInfo
}

// Name returns the name given with [WithName], if any.
func (r *Route) Name() string {
	return r.name
}

// ElementID identifies the element, by default its type name.
func (r *Route) ElementID() string {
	return r.elementID
}

// ElementType returns the declared element type of [Type] and [Factory]
// routes, nil otherwise.
func (r *Route) ElementType() reflect.Type {
	return r.handler.elementType
}

// Strategy returns how the route obtains its element.
func (r *Route) Strategy() Strategy {
	return r.handler.strategy
}

// CanResume reports whether the route can resume continuations.
func (r *Route) CanResume() bool {
	return r.handler.strategy == StrategyType && r.handler.elementType != nil
}

func (r *Route) matchesMethod(method string) bool {
	if len(r.methods) == 0 {
		return true
	}
	return slices.Contains(r.methods, method)
}

func (r *Route) newElement() Element {
	if r.handler.strategy == StrategyInstance {
		return r.handler.instance
	}
	return r.handler.create()
}

// typeName returns the bare name of t, dereferencing pointers.
func typeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// qualifiedTypeName returns "pkg.Name" for t, dereferencing pointers.
func qualifiedTypeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.String()
}

// defaultPath derives "/handlerX" from a type named HandlerX.
func defaultPath(t reflect.Type) string {
	name := typeName(t)
	if name == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(name)
	return "/" + string(unicode.ToLower(first)) + name[size:]
}

func normalizeMethods(methods []string) []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" && !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}
