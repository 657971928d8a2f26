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

package template

import (
	"reflect"
	"unsafe"
)

var clearableType = reflect.TypeFor[Clearable]()

// visit identifies a pointer already walked. The type is part of the key
// because a struct and its first field share an address.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

// ClearFields calls ClearGenerated on every field of the struct pointed to
// by v whose value implements [Clearable], descending into embedded and
// nested structs, slices and arrays. Unexported fields are reached as long
// as their struct is addressable.
//
// It returns the number of values cleared. Non-struct values are cleared
// directly when they implement Clearable.
func ClearFields(v any) int {
	if v == nil {
		return 0
	}
	return clearValue(reflect.ValueOf(v), make(map[visit]bool))
}

// ClearValues clears every Clearable among vals, for example the state
// saved by a paused element.
func ClearValues[M ~map[string]any](vals M) int {
	n := 0
	for _, v := range vals {
		n += ClearFields(v)
	}
	return n
}

func clearValue(rv reflect.Value, seen map[visit]bool) int {
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return 0
		}
		key := visit{ptr: rv.Pointer(), typ: rv.Type()}
		if seen[key] {
			return 0
		}
		seen[key] = true
		if c, ok := asClearable(rv); ok {
			c.ClearGenerated()
			return 1
		}
		return clearValue(rv.Elem(), seen)
	case reflect.Interface:
		if rv.IsNil() {
			return 0
		}
		return clearValue(rv.Elem(), seen)
	case reflect.Struct:
		n := 0
		for i := range rv.NumField() {
			f := rv.Field(i)
			if !f.CanInterface() {
				if !f.CanAddr() {
					continue
				}
				f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
			}
			if f.Kind() == reflect.Struct && f.CanAddr() {
				n += clearValue(f.Addr(), seen)
				continue
			}
			n += clearValue(f, seen)
		}
		return n
	case reflect.Slice, reflect.Array:
		n := 0
		for i := range rv.Len() {
			n += clearValue(rv.Index(i), seen)
		}
		return n
	default:
		return 0
	}
}

func asClearable(rv reflect.Value) (Clearable, bool) {
	if !rv.CanInterface() || !rv.Type().Implements(clearableType) {
		return nil, false
	}
	c, ok := rv.Interface().(Clearable)
	return c, ok
}
