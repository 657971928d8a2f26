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

package session

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// envelope is the persisted form of a session.
type envelope struct {
	Attrs   map[string]any `msgpack:"a"`
	Expires int64          `msgpack:"e,omitempty"` // unix nanoseconds, zero when the backend expires keys itself
}

func encode(attrs map[string]any, expires time.Time) ([]byte, error) {
	env := envelope{Attrs: attrs}
	if !expires.IsZero() {
		env.Expires = expires.UnixNano()
	}
	b, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return b, nil
}

func decode(b []byte) (envelope, error) {
	var env envelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return envelope{}, fmt.Errorf("decode session: %w", err)
	}
	if env.Attrs == nil {
		env.Attrs = make(map[string]any)
	}
	return env, nil
}
