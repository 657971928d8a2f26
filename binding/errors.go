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

package binding

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies where an input value comes from or an output value goes to.
type Kind int

const (
	// KindUnknown is an unspecified kind.
	KindUnknown Kind = iota

	// KindParameter is a query or form parameter.
	KindParameter

	// KindHeader is an HTTP header.
	KindHeader

	// KindCookie is an HTTP cookie.
	KindCookie

	// KindSession is a session attribute.
	KindSession

	// KindPathInfo is the residual path-info of the matched route.
	KindPathInfo

	// KindFile is an uploaded multipart file.
	KindFile

	// KindProperty is a site or route property.
	KindProperty

	// KindBody is the response body (output only).
	KindBody
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindHeader:
		return "header"
	case KindCookie:
		return "cookie"
	case KindSession:
		return "session"
	case KindPathInfo:
		return "pathinfo"
	case KindFile:
		return "file"
	case KindProperty:
		return "property"
	case KindBody:
		return "body"
	default:
		return "unknown"
	}
}

// Static errors for binding operations.
var (
	ErrElementType       = errors.New("element type does not match descriptor")
	ErrUnsupportedOutput = errors.New("output kind not supported")
	ErrNilSetter         = errors.New("setter must not be nil")
	ErrNilGetter         = errors.New("getter must not be nil")
	ErrUnsupportedType   = errors.New("unsupported value type")
)

// FieldError describes one binding that failed to convert or validate.
//
// Use [errors.As] to inspect it:
//
//	var fe *binding.FieldError
//	if errors.As(err, &fe) {
//	    fmt.Println(fe.Kind, fe.Key)
//	}
type FieldError struct {
	Kind  Kind   // Where the value came from
	Key   string // Parameter, header, cookie ... name
	Value any    // Raw value that failed
	Rule  string // Validation rule, empty for conversion failures
	Err   error  // Underlying error
}

// Error returns a formatted error message.
func (e *FieldError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("binding %s %q: violates %q: %v", e.Kind, e.Key, e.Rule, e.Err)
	}
	return fmt.Sprintf("binding %s %q: cannot convert %v: %v", e.Kind, e.Key, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// HTTPStatus reports 400 Bad Request.
func (e *FieldError) HTTPStatus() int {
	return 400
}

// Errors collects every failure of a Prepare or Finalize call.
type Errors []*FieldError

// Error joins the individual messages.
func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e Errors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, fe := range e {
		errs[i] = fe
	}
	return errs
}

// HTTPStatus reports 400 Bad Request.
func (e Errors) HTTPStatus() int {
	return 400
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
