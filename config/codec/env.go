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
	"errors"
	"fmt"
	"strings"
)

// TypeEnv is the environment variable codec.
const TypeEnv Type = "env"

func init() {
	Register(TypeEnv, EnvCodec{})
}

// EnvCodec decodes KEY=value lines into a nested map. Keys are lower
// cased and every underscore opens a level: SERVER_ADDR=:80 becomes
// {"server": {"addr": ":80"}}. Values stay strings.
type EnvCodec struct{}

// Encode is not supported.
func (EnvCodec) Encode(any) ([]byte, error) {
	return nil, errors.New("env codec: encoding is not supported")
}

// Decode implements [Decoder]. v must be a *map[string]any.
func (EnvCodec) Decode(data []byte, v any) error {
	out, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("env codec: expected *map[string]any, got %T", v)
	}
	conf := make(map[string]any)
	for line := range strings.SplitSeq(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		var parts []string
		for p := range strings.SplitSeq(strings.ToLower(strings.TrimSpace(key)), "_") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		cur := conf
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = strings.TrimSpace(value)
	}
	*out = conf
	return nil
}
