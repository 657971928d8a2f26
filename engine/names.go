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

// Resolve finds a named route relative to r.
//
// The expression is a sequence of tokens separated by dots. "^" moves to
// the parent router and can be repeated ("^^"), a name moves to the child
// router recorded under it, and the last token may name a route:
//
//	r.Resolve("login")         // route "login" of r
//	r.Resolve("^.home")        // route "home" of r's parent
//	r.Resolve("admin.users")   // route "users" of the router named "admin"
//
// It reports false for unknown names and for a route token that is not
// the last one.
func (r *Router) Resolve(expr string) (*Route, bool) {
	_, route, ok := r.resolve(expr)
	if !ok || route == nil {
		return nil, false
	}
	return route, true
}

// ResolveRouter is like [Router.Resolve] for expressions naming a router.
// "." and "" resolve to r itself.
func (r *Router) ResolveRouter(expr string) (*Router, bool) {
	router, route, ok := r.resolve(expr)
	if !ok || route != nil {
		return nil, false
	}
	return router, true
}

func (r *Router) resolve(expr string) (*Router, *Route, bool) {
	current := r
	var found *Route
	for _, tok := range tokenize(expr) {
		if found != nil {
			return nil, nil, false
		}
		if tok == "^" {
			if current.parent == nil {
				return nil, nil, false
			}
			current = current.parent
			continue
		}
		if child, ok := current.namedRouters[tok]; ok {
			current = child
			continue
		}
		if route, ok := current.namedRoutes[tok]; ok {
			found = route
			continue
		}
		return nil, nil, false
	}
	return current, found, true
}

func tokenize(expr string) []string {
	var tokens []string
	start := 0
	flush := func(end int) {
		if end > start {
			tokens = append(tokens, expr[start:end])
		}
	}
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '.':
			flush(i)
			start = i + 1
		case '^':
			flush(i)
			tokens = append(tokens, "^")
			start = i + 1
		}
	}
	flush(len(expr))
	return tokens
}
