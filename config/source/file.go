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

// Package source loads raw configuration maps from files, the process
// environment, in-memory maps and Consul.
package source

import (
	"context"
	"fmt"
	"maps"
	"os"

	"rivaas.dev/engine/config/codec"
)

// File loads a document from disk or from memory.
type File struct {
	path    string
	data    []byte
	decoder codec.Decoder
}

// NewFile reads path on every Load. The decoder is chosen from the
// extension.
func NewFile(path string) (*File, error) {
	t, err := codec.ForPath(path)
	if err != nil {
		return nil, err
	}
	return NewFileAs(path, t)
}

// NewFileAs is like [NewFile] with an explicit codec type.
func NewFileAs(path string, t codec.Type) (*File, error) {
	dec, err := codec.Get(t)
	if err != nil {
		return nil, err
	}
	return &File{path: os.ExpandEnv(path), decoder: dec}, nil
}

// NewContent decodes data on every Load.
func NewContent(data []byte, t codec.Type) (*File, error) {
	dec, err := codec.Get(t)
	if err != nil {
		return nil, err
	}
	return &File{data: data, decoder: dec}, nil
}

// Load implements config.Source.
func (f *File) Load(context.Context) (map[string]any, error) {
	data := f.data
	if f.path != "" {
		var err error
		if data, err = os.ReadFile(f.path); err != nil {
			return nil, fmt.Errorf("read %s: %w", f.path, err)
		}
	}
	var m map[string]any
	if err := f.decoder.Decode(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.name(), err)
	}
	return m, nil
}

func (f *File) name() string {
	if f.path != "" {
		return f.path
	}
	return "content"
}

// Map serves a fixed map. Load returns a copy.
type Map map[string]any

// Load implements config.Source.
func (m Map) Load(context.Context) (map[string]any, error) {
	return maps.Clone(map[string]any(m)), nil
}
