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

// Package errors renders engine errors as HTTP responses.
//
// The engine uses these formatters when an unexpected error escapes an
// element and "pretty exceptions" mode is on. Three formats are provided:
//   - HTML: a diagnostic page showing the error chain and stack, with a
//     dedicated layout for template syntax errors
//   - XML: the same information for clients that already announced XML
//   - Simple: a compact JSON object for API style clients
//
// Domain errors can implement optional interfaces to shape the output:
//
//   - ErrorType: declare the HTTP status code
//   - ErrorDetails: provide structured details
//   - ErrorCode: provide a machine-readable code
//   - StackTracer: expose the stack captured when the error was created
//   - TemplateSyntax: mark template parse failures
//
// # Quick Start
//
//	formatter := errors.NewHTML()
//	resp := formatter.Format(r, err)
//	errors.Write(w, resp)
//
// Choosing by response content type, the way the engine does it:
//
//	f := errors.ForContentType(w.Header().Get("Content-Type"))
//	errors.Write(w, f.Format(r, err))
package errors
