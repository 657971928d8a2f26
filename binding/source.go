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

// Source supplies raw input values.
//
// Lookup returns the value of key from the given kind and whether it was
// present. Parameters are returned as []string (all values in order),
// headers, cookies and path-info as string, uploaded files as
// *multipart.FileHeader, session attributes and properties as stored.
// The key is ignored for [KindPathInfo].
type Source interface {
	Lookup(kind Kind, key string) (any, bool)
}

// Sink receives output values.
type Sink interface {
	Store(kind Kind, key string, value any) error
}

// MapSource is a Source backed by nested maps, mostly useful in tests.
type MapSource map[Kind]map[string]any

// Lookup implements Source.
func (m MapSource) Lookup(kind Kind, key string) (any, bool) {
	vals, ok := m[kind]
	if !ok {
		return nil, false
	}
	v, ok := vals[key]
	return v, ok
}

// MapSink records stored values per kind, mostly useful in tests.
type MapSink map[Kind]map[string]any

// Store implements Sink.
func (m MapSink) Store(kind Kind, key string, value any) error {
	if m[kind] == nil {
		m[kind] = make(map[string]any)
	}
	m[kind][key] = value
	return nil
}
