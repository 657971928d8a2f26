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

// Package codec converts configuration documents to and from maps.
//
// Codecs register themselves by [Type]; [ForPath] picks one from a file
// extension.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Type names a codec.
type Type string

// Encoder turns a value into a document.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// Decoder fills v, usually a *map[string]any, from a document.
type Decoder interface {
	Decode(data []byte, v any) error
}

// Codec encodes and decodes one format.
type Codec interface {
	Encoder
	Decoder
}

// ErrUnknownType indicates a codec type nobody registered.
var ErrUnknownType = errors.New("unknown codec type")

var (
	mu       sync.RWMutex
	registry = map[Type]Codec{}
)

// Register makes c available under t, replacing an earlier registration.
func Register(t Type, c Codec) {
	mu.Lock()
	registry[t] = c
	mu.Unlock()
}

// Get returns the codec registered under t.
func Get(t Type) (Codec, error) {
	mu.RLock()
	c, ok := registry[t]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return c, nil
}

// ForPath returns the codec type matching the extension of path.
func ForPath(path string) (Type, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return TypeYAML, nil
	case ".json":
		return TypeJSON, nil
	case ".toml":
		return TypeTOML, nil
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnknownType, ext)
	}
}
