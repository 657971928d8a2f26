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
	"runtime"
	"strconv"
)

var (
	// ErrRouterDeployed indicates a registration on a router that was already deployed.
	ErrRouterDeployed = errors.New("router is already deployed")

	// ErrRouterAlreadyGrouped indicates that a router was grouped into a second parent.
	ErrRouterAlreadyGrouped = errors.New("router already belongs to a group")

	// ErrInvalidPathInfoPattern indicates a path-info mapping that does not compile.
	ErrInvalidPathInfoPattern = errors.New("invalid path-info pattern")

	// ErrContinuationsNotActive indicates a pause outside a route that can resume.
	ErrContinuationsNotActive = errors.New("continuations are not active for this route")

	// ErrNilHandler indicates a route registered without an element.
	ErrNilHandler = errors.New("route handler must not be nil")

	// ErrMissingPath indicates a route whose path cannot be derived from its handler.
	ErrMissingPath = errors.New("route path is required for this handler")

	// ErrInvalidPath indicates a route path that does not start with a slash.
	ErrInvalidPath = errors.New("route path must start with '/'")

	// ErrRouteRegistered indicates a route that already belongs to a router.
	ErrRouteRegistered = errors.New("route is already registered")

	// ErrNilSite indicates that a gate was created without a site.
	ErrNilSite = errors.New("site must not be nil")
)

// EngineError wraps an unexpected error raised while processing a route.
// It records the route and the stack at the point of failure.
type EngineError struct {
	// Route is the path of the route being processed.
	Route string
	// Err is the underlying error.
	Err error

	stack []string
}

func newEngineError(route string, err error, skip int) *EngineError {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee
	}
	return &EngineError{Route: route, Err: err, stack: callers(skip + 1)}
}

// Error implements error.
func (e *EngineError) Error() string {
	if e.Route == "" {
		return "engine: " + e.Err.Error()
	}
	return fmt.Sprintf("engine: processing %s: %v", e.Route, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// StackTrace returns the captured frames as "function\n\tfile:line".
func (e *EngineError) StackTrace() []string {
	return e.stack
}

// panicError carries a recovered panic value.
type panicError struct {
	value any
}

func (p *panicError) Error() string {
	if err, ok := p.value.(error); ok {
		return "panic: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", p.value)
}

func (p *panicError) Unwrap() error {
	err, _ := p.value.(error)
	return err
}

func callers(skip int) []string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var out []string
	for {
		f, more := frames.Next()
		if f.Function != "" {
			out = append(out, f.Function+"\n\t"+f.File+":"+strconv.Itoa(f.Line))
		}
		if !more {
			break
		}
	}
	return out
}
