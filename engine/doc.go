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

// Package engine routes HTTP requests to elements and drives their execution,
// including suspension and resumption through continuations.
//
// A [Site] is the root [Router]. Routers register routes, before and after
// filters, an exception route and fallback routes, and can be nested with
// [Router.Group]. After [Site.Deploy] the route table is sealed and
// [Site.Match] resolves a method and URL to a [RouteMatch].
//
// A [Gate] is the entrypoint for requests. For every matched request it
// builds a [Context] and runs the pipeline: before filters, the route, then
// after filters. Elements steer the pipeline by returning control signals:
//
//   - [Context.Next]: stop the current route, continue the pipeline
//   - [Context.Respond]: stop the pipeline and send what was written
//   - [Context.Pause]: suspend the element in a continuation
//   - [Context.Redirect]: answer with a redirect
//   - [Context.Defer]: leave the request unhandled
//
// # Path info
//
// Routes registered with [WithPathInfo] also match URLs that extend their
// path. [PathInfoCapture] accepts any remainder. [PathInfoMap] accepts only
// remainders matching one of its mappings and binds the captured segments as
// parameters:
//
//	site.Get("/article", engine.Type[Article](),
//	    engine.WithPathInfo(engine.PathInfoMap(
//	        engine.Mapping().Slash().Param("year").Slash().ParamPattern("slug", `[a-z-]+`),
//	    )))
//
// # Continuations
//
// Elements created per request from a type ([Type] or [Factory]) can pause.
// The paused element is stored by the gate's continuations manager and a
// continuationId cookie is sent. The next request carrying the id resumes a
// copy of the element; Process switches on [Context.Step] to continue where
// it left off:
//
//	func (e *Wizard) Process(c *engine.Context) error {
//	    switch c.Step() {
//	    case "":
//	        c.Print("step one")
//	        return c.Pause("two")
//	    case "two":
//	        c.Print("step two")
//	    }
//	    return nil
//	}
package engine
