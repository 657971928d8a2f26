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

// Package binding moves values between a request and an element's fields
// through explicit descriptors.
//
// A [Descriptor] is built once, when a route is registered, and lists every
// input binding (where a value comes from, how it is converted and which
// field receives it) and every output binding (which field is written to a
// header, cookie, session attribute or the response body). Nothing is
// discovered at request time; the engine calls [Descriptor.Prepare] before
// an element processes and [Descriptor.Finalize] after it.
//
// # Example
//
//	type Greeting struct {
//	    Name  string
//	    Count int
//	}
//
//	desc := binding.For[*Greeting]().
//	    Param("name", binding.String(func(g *Greeting, v string) { g.Name = v })).
//	    Cookie("count", binding.Int(func(g *Greeting, v int) { g.Count = v })).
//	    Validate("name", "required,max=64").
//	    OutCookie("count", func(g *Greeting) (any, bool) { return g.Count + 1, true })
//
// Conversion goes through github.com/spf13/cast, validation through
// github.com/go-playground/validator/v10. Failures of both are collected
// into an [Errors] value so that every problem is reported at once.
package binding
