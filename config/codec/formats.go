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

package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// Built-in document formats.
const (
	TypeJSON Type = "json"
	TypeYAML Type = "yaml"
	TypeTOML Type = "toml"
)

func init() {
	Register(TypeJSON, jsonCodec{})
	Register(TypeYAML, yamlCodec{})
	Register(TypeTOML, tomlCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// Decode rejects trailing content after the first document.
func (jsonCodec) Decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("json: unexpected data after document")
	}
	return nil
}

type yamlCodec struct{}

func (yamlCodec) Encode(v any) ([]byte, error) {
	return yaml.MarshalWithOptions(v, yaml.Indent(2), yaml.IndentSequence(true))
}

func (yamlCodec) Decode(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return yaml.Unmarshal(data, v)
}

type tomlCodec struct{}

func (tomlCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode fails on keys declared twice.
func (tomlCodec) Decode(data []byte, v any) error {
	_, err := toml.Decode(string(data), v)
	return err
}
