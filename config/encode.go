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

package config

import (
	"reflect"
	"time"

	"rivaas.dev/engine/config/codec"
)

// Encode renders e as a document of type t, with the same keys [Load]
// accepts. Durations are written as strings such as "20m0s".
func Encode(e *Engine, t codec.Type) ([]byte, error) {
	c, err := codec.Get(t)
	if err != nil {
		return nil, err
	}
	return c.Encode(ToMap(e))
}

// ToMap converts e to the nested map form used by sources.
func ToMap(e *Engine) map[string]any {
	return structToMap(reflect.ValueOf(e).Elem())
}

func structToMap(v reflect.Value) map[string]any {
	out := make(map[string]any, v.NumField())
	t := v.Type()
	for i := range v.NumField() {
		key := t.Field(i).Tag.Get("config")
		if key == "" || !t.Field(i).IsExported() {
			continue
		}
		f := v.Field(i)
		switch {
		case f.Kind() == reflect.Struct:
			out[key] = structToMap(f)
		case f.Type() == durationType:
			out[key] = time.Duration(f.Int()).String()
		case f.Kind() == reflect.Slice && f.IsNil(), f.Kind() == reflect.Map && f.IsNil():
			continue
		default:
			out[key] = f.Interface()
		}
	}
	return out
}
