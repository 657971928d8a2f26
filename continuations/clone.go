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

package continuations

import (
	"reflect"
	"strings"
	"unsafe"
)

var clonerType = reflect.TypeFor[Cloner]()

// cloneContinuable returns a deep copy of v. See [copier] for the rules.
func cloneContinuable(v any) any {
	if v == nil {
		return nil
	}
	return newCopier().value(reflect.ValueOf(v)).Interface()
}

// cloneState deep copies the values saved with a continuation. Values shared
// between entries stay shared in the copy.
func cloneState(state map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	cp := newCopier()
	out := make(map[string]any, len(state))
	for k, v := range state {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = cp.value(reflect.ValueOf(v)).Interface()
	}
	return out
}

type visit struct {
	ptr uintptr
	typ reflect.Type
}

// copier deep copies values by reflection:
//
//   - a value implementing [Cloner], or with a Clone method returning its own
//     type, is copied by that method;
//   - pointers, maps, slices, arrays, interfaces and structs are walked,
//     including unexported fields;
//   - standard library struct types are copied by value and pointers to
//     them are shared, as are functions and channels.
//
// Aliased pointers and maps stay aliased in the copy, which also keeps
// cycles finite.
type copier struct {
	seen map[visit]reflect.Value
}

func newCopier() *copier {
	return &copier{seen: make(map[visit]reflect.Value)}
}

func (cp *copier) value(src reflect.Value) reflect.Value {
	if !src.IsValid() {
		return src
	}
	if out, ok := cp.byMethod(src); ok {
		return out
	}

	switch src.Kind() {
	case reflect.Pointer:
		if src.IsNil() || opaque(src.Type().Elem()) {
			return src
		}
		key := visit{ptr: src.Pointer(), typ: src.Type()}
		if out, ok := cp.seen[key]; ok {
			return out
		}
		out := reflect.New(src.Type().Elem())
		cp.seen[key] = out
		out.Elem().Set(cp.value(src.Elem()))
		return out
	case reflect.Interface:
		if src.IsNil() {
			return src
		}
		out := reflect.New(src.Type()).Elem()
		out.Set(cp.value(src.Elem()))
		return out
	case reflect.Map:
		if src.IsNil() {
			return src
		}
		key := visit{ptr: src.Pointer(), typ: src.Type()}
		if out, ok := cp.seen[key]; ok {
			return out
		}
		out := reflect.MakeMapWithSize(src.Type(), src.Len())
		cp.seen[key] = out
		iter := src.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cp.value(iter.Value()))
		}
		return out
	case reflect.Slice:
		if src.IsNil() {
			return src
		}
		out := reflect.MakeSlice(src.Type(), src.Len(), src.Cap())
		for i := range src.Len() {
			out.Index(i).Set(cp.value(src.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(src.Type()).Elem()
		for i := range src.Len() {
			out.Index(i).Set(cp.value(src.Index(i)))
		}
		return out
	case reflect.Struct:
		out := reflect.New(src.Type()).Elem()
		out.Set(src)
		if opaque(src.Type()) {
			return out
		}
		for i := range out.NumField() {
			f := out.Field(i)
			if !f.CanSet() {
				f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
			}
			f.Set(cp.value(f))
		}
		return out
	default:
		return src
	}
}

// byMethod copies src with its own clone method when it has one.
func (cp *copier) byMethod(src reflect.Value) (reflect.Value, bool) {
	if !src.CanInterface() || src.Kind() == reflect.Interface {
		return reflect.Value{}, false
	}
	if src.Kind() == reflect.Pointer && src.IsNil() {
		return reflect.Value{}, false
	}
	if src.Type().Implements(clonerType) {
		out := reflect.ValueOf(src.Interface().(Cloner).CloneContinuable())
		if out.IsValid() && out.Type().AssignableTo(src.Type()) {
			return out, true
		}
		return reflect.Value{}, false
	}
	m := src.MethodByName("Clone")
	if !m.IsValid() {
		return reflect.Value{}, false
	}
	mt := m.Type()
	if mt.NumIn() != 0 || mt.NumOut() != 1 || mt.Out(0) != src.Type() {
		return reflect.Value{}, false
	}
	return m.Call(nil)[0], true
}

// opaque reports whether t is a named struct type of the standard library,
// whose internals are left alone.
func opaque(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	pkg := t.PkgPath()
	if pkg == "" || pkg == "main" {
		return false
	}
	first, _, _ := strings.Cut(pkg, "/")
	return !strings.Contains(first, ".")
}
