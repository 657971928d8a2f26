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

package errors

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
)

// Formatter turns an error into an HTTP response.
type Formatter interface {
	Format(req *http.Request, err error) Response
}

// Response is a rendered error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the rendered response body.
	Body []byte

	// Headers contains additional headers to set (optional).
	Headers http.Header
}

// ErrorType allows errors to declare their own HTTP status code.
//
// Example:
//
//	func (e ValidationError) HTTPStatus() int {
//		return http.StatusBadRequest
//	}
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails allows errors to provide additional structured information.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// StackTracer is implemented by errors that captured the call stack when
// they were created. Each entry is one "function\n\tfile:line" frame.
type StackTracer interface {
	error
	StackTrace() []string
}

// TemplateSyntax is implemented by template parse errors. They get their
// own diagnostic layout since the fix is in a template file, not in code.
type TemplateSyntax interface {
	error
	TemplateSyntax() bool
}

// Link is one error of an unwrapped chain.
type Link struct {
	Type    string `json:"type" xml:"type,attr"`
	Message string `json:"message" xml:",chardata"`
}

// Chain flattens err into the list of errors it wraps, outermost first.
// Joined errors are walked depth first.
func Chain(err error) []Link {
	var links []Link
	var walk func(error)
	walk = func(e error) {
		for e != nil {
			links = append(links, Link{Type: typeName(e), Message: e.Error()})
			switch u := e.(type) {
			case interface{ Unwrap() []error }:
				for _, inner := range u.Unwrap() {
					walk(inner)
				}
				return
			case interface{ Unwrap() error }:
				e = u.Unwrap()
			default:
				return
			}
		}
	}
	walk(err)
	return links
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	name := t.String()
	return strings.TrimPrefix(name, "*")
}

// IsTemplateSyntax reports whether any error in the chain is a template syntax error.
func IsTemplateSyntax(err error) bool {
	var ts TemplateSyntax
	return errors.As(err, &ts) && ts.TemplateSyntax()
}

// Stack returns the stack trace of the first StackTracer in the chain.
func Stack(err error) []string {
	var st StackTracer
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return nil
}

// Status resolves the HTTP status of err: the first ErrorType in the chain
// wins, otherwise 500.
func Status(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// ForContentType picks the formatter matching an already chosen response
// content type: XML for XML-like types, HTML otherwise.
func ForContentType(contentType string) Formatter {
	ct := strings.ToLower(contentType)
	if strings.HasPrefix(ct, "text/xml") ||
		strings.HasPrefix(ct, "application/xml") ||
		strings.HasPrefix(ct, "application/xhtml+xml") ||
		strings.HasSuffix(strings.SplitN(ct, ";", 2)[0], "+xml") {
		return NewXML()
	}
	return NewHTML()
}

// Write sends resp to w.
func Write(w http.ResponseWriter, resp Response) error {
	for k, vals := range resp.Headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)
	_, err := w.Write(resp.Body)
	return err
}

// WithStatus wraps an error with an explicit HTTP status code.
// If err is nil, the status text is used as the message.
//
// Example:
//
//	return errors.WithStatus(err, http.StatusNotFound)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) HTTPStatus() int {
	return e.status
}
