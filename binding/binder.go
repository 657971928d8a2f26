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
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Binder is the type-erased view of a [Descriptor] used by the engine.
type Binder interface {
	// Check reports construction errors and whether elements of type t can
	// be bound. A nil t is accepted and checked per request.
	Check(t reflect.Type) error
	Prepare(element any, src Source) error
	Finalize(element any, dst Sink) error
}

type input[T any] struct {
	kind Kind
	key  string
	set  Setter[T]
}

type output[T any] struct {
	kind Kind
	key  string
	get  Getter[T]
}

// Descriptor lists the input and output bindings of one element type.
// Build it at setup time; it is safe for concurrent use once built.
type Descriptor[T any] struct {
	inputs  []input[T]
	outputs []output[T]
	rules   map[string]string
	err     error
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// For starts a descriptor for element type T, usually a struct pointer.
func For[T any]() *Descriptor[T] {
	return &Descriptor[T]{rules: make(map[string]string)}
}

func (d *Descriptor[T]) in(kind Kind, key string, set Setter[T]) *Descriptor[T] {
	if set == nil && d.err == nil {
		d.err = fmt.Errorf("%w: %s %q", ErrNilSetter, kind, key)
	}
	d.inputs = append(d.inputs, input[T]{kind: kind, key: key, set: set})
	return d
}

func (d *Descriptor[T]) out(kind Kind, key string, get Getter[T]) *Descriptor[T] {
	if get == nil && d.err == nil {
		d.err = fmt.Errorf("%w: %s %q", ErrNilGetter, kind, key)
	}
	d.outputs = append(d.outputs, output[T]{kind: kind, key: key, get: get})
	return d
}

// Param binds a query or form parameter.
func (d *Descriptor[T]) Param(key string, set Setter[T]) *Descriptor[T] {
	return d.in(KindParameter, key, set)
}

// Header binds a request header.
func (d *Descriptor[T]) Header(key string, set Setter[T]) *Descriptor[T] {
	return d.in(KindHeader, key, set)
}

// Cookie binds a request cookie.
func (d *Descriptor[T]) Cookie(key string, set Setter[T]) *Descriptor[T] {
	return d.in(KindCookie, key, set)
}

// Session binds a session attribute.
func (d *Descriptor[T]) Session(key string, set Setter[T]) *Descriptor[T] {
	return d.in(KindSession, key, set)
}

// PathInfo binds the residual path-info.
func (d *Descriptor[T]) PathInfo(set Setter[T]) *Descriptor[T] {
	return d.in(KindPathInfo, "", set)
}

// File binds an uploaded file.
func (d *Descriptor[T]) File(key string, set Setter[T]) *Descriptor[T] {
	return d.in(KindFile, key, set)
}

// Property binds a route property.
func (d *Descriptor[T]) Property(key string, set Setter[T]) *Descriptor[T] {
	return d.in(KindProperty, key, set)
}

// Validate attaches a validator rule (for example "required,min=1") to every
// input bound under key. Missing values are validated as the empty string,
// so "required" reports them.
func (d *Descriptor[T]) Validate(key, rule string) *Descriptor[T] {
	d.rules[key] = rule
	return d
}

// OutHeader writes a response header after processing.
func (d *Descriptor[T]) OutHeader(key string, get Getter[T]) *Descriptor[T] {
	return d.out(KindHeader, key, get)
}

// OutCookie writes a response cookie after processing.
func (d *Descriptor[T]) OutCookie(key string, get Getter[T]) *Descriptor[T] {
	return d.out(KindCookie, key, get)
}

// OutSession writes a session attribute after processing.
func (d *Descriptor[T]) OutSession(key string, get Getter[T]) *Descriptor[T] {
	return d.out(KindSession, key, get)
}

// OutBody appends to the response body after processing.
func (d *Descriptor[T]) OutBody(get Getter[T]) *Descriptor[T] {
	return d.out(KindBody, "", get)
}

// Err returns the first construction error, such as a nil setter.
func (d *Descriptor[T]) Err() error {
	return d.err
}

// Check returns [Descriptor.Err], or [ErrElementType] when elements of type
// t are not T.
func (d *Descriptor[T]) Check(t reflect.Type) error {
	if d.err != nil {
		return d.err
	}
	if t == nil {
		return nil
	}
	want := reflect.TypeFor[T]()
	if want.Kind() == reflect.Interface {
		if t.Implements(want) {
			return nil
		}
	} else if t == want {
		return nil
	}
	return fmt.Errorf("%w: %s is not %s", ErrElementType, t, want)
}

// Len returns the number of input and output bindings.
func (d *Descriptor[T]) Len() (inputs, outputs int) {
	return len(d.inputs), len(d.outputs)
}

// Prepare assigns every input binding found in src to element and then
// checks the validation rules. All failures are returned together as [Errors].
func (d *Descriptor[T]) Prepare(element any, src Source) error {
	elem, ok := element.(T)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrElementType, element)
	}
	if d.err != nil {
		return d.err
	}

	var errs Errors
	for _, in := range d.inputs {
		raw, found := src.Lookup(in.kind, in.key)
		rule := d.rules[in.key]
		if !found {
			if rule != "" {
				if err := validatorInstance().Var("", rule); err != nil {
					errs = append(errs, &FieldError{Kind: in.kind, Key: in.key, Rule: rule, Err: err})
				}
			}
			continue
		}
		converted, err := in.set(elem, raw)
		if err != nil {
			errs = append(errs, &FieldError{Kind: in.kind, Key: in.key, Value: raw, Err: err})
			continue
		}
		if rule != "" {
			if err := validatorInstance().Var(converted, rule); err != nil {
				errs = append(errs, &FieldError{Kind: in.kind, Key: in.key, Value: raw, Rule: rule, Err: err})
			}
		}
	}
	return errs.orNil()
}

// Finalize writes every output binding of element to dst.
func (d *Descriptor[T]) Finalize(element any, dst Sink) error {
	elem, ok := element.(T)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrElementType, element)
	}
	if d.err != nil {
		return d.err
	}

	var errs Errors
	for _, out := range d.outputs {
		v, ok := out.get(elem)
		if !ok {
			continue
		}
		if err := dst.Store(out.kind, out.key, v); err != nil {
			errs = append(errs, &FieldError{Kind: out.kind, Key: out.key, Value: v, Err: err})
		}
	}
	return errs.orNil()
}
