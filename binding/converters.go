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
	"mime/multipart"
	"time"

	"github.com/spf13/cast"
)

// Setter converts a raw value and assigns it to the element.
// It returns the converted value, which is what validation rules see.
type Setter[T any] func(elem T, raw any) (any, error)

// Getter reads an output value from the element. Returning false skips the output.
type Getter[T any] func(elem T) (any, bool)

// scalar reduces multi-valued parameters to their first value.
func scalar(raw any) any {
	if ss, ok := raw.([]string); ok {
		if len(ss) == 0 {
			return ""
		}
		return ss[0]
	}
	return raw
}

// String converts the value with cast.ToStringE.
func String[T any](fn func(T, string)) Setter[T] {
	return func(elem T, raw any) (any, error) {
		v, err := cast.ToStringE(scalar(raw))
		if err != nil {
			return nil, err
		}
		fn(elem, v)
		return v, nil
	}
}

// Int converts the value with cast.ToIntE. Leading zeros are read as decimal.
func Int[T any](fn func(T, int)) Setter[T] {
	return func(elem T, raw any) (any, error) {
		v, err := cast.ToIntE(scalar(raw))
		if err != nil {
			return nil, err
		}
		fn(elem, v)
		return v, nil
	}
}

// Int64 converts the value with cast.ToInt64E.
func Int64[T any](fn func(T, int64)) Setter[T] {
	return func(elem T, raw any) (any, error) {
		v, err := cast.ToInt64E(scalar(raw))
		if err != nil {
			return nil, err
		}
		fn(elem, v)
		return v, nil
	}
}

// Float converts the value with cast.ToFloat64E.
func Float[T any](fn func(T, float64)) Setter[T] {
	return func(elem T, raw any) (any, error) {
		v, err := cast.ToFloat64E(scalar(raw))
		if err != nil {
			return nil, err
		}
		fn(elem, v)
		return v, nil
	}
}

// Bool converts the value with cast.ToBoolE. An empty string, as sent by a
// bare checkbox parameter, counts as true.
func Bool[T any](fn func(T, bool)) Setter[T] {
	return func(elem T, raw any) (any, error) {
		s := scalar(raw)
		if str, ok := s.(string); ok && str == "" {
			fn(elem, true)
			return true, nil
		}
		v, err := cast.ToBoolE(s)
		if err != nil {
			return nil, err
		}
		fn(elem, v)
		return v, nil
	}
}

// Duration converts the value with cast.ToDurationE.
func Duration[T any](fn func(T, time.Duration)) Setter[T] {
	return func(elem T, raw any) (any, error) {
		v, err := cast.ToDurationE(scalar(raw))
		if err != nil {
			return nil, err
		}
		fn(elem, v)
		return v, nil
	}
}

// Time converts the value with cast.ToTimeE.
func Time[T any](fn func(T, time.Time)) Setter[T] {
	return func(elem T, raw any) (any, error) {
		v, err := cast.ToTimeE(scalar(raw))
		if err != nil {
			return nil, err
		}
		fn(elem, v)
		return v, nil
	}
}

// Strings keeps every value of a multi-valued parameter.
func Strings[T any](fn func(T, []string)) Setter[T] {
	return func(elem T, raw any) (any, error) {
		v, err := cast.ToStringSliceE(raw)
		if err != nil {
			return nil, err
		}
		fn(elem, v)
		return v, nil
	}
}

// File assigns an uploaded file header.
func File[T any](fn func(T, *multipart.FileHeader)) Setter[T] {
	return func(elem T, raw any) (any, error) {
		fh, ok := raw.(*multipart.FileHeader)
		if !ok {
			return nil, ErrUnsupportedType
		}
		fn(elem, fh)
		return fh, nil
	}
}

// Value assigns the raw value unchanged.
func Value[T any](fn func(T, any)) Setter[T] {
	return func(elem T, raw any) (any, error) {
		fn(elem, raw)
		return raw, nil
	}
}
