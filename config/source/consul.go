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

package source

import (
	"context"
	"fmt"

	"github.com/hashicorp/consul/api"

	"rivaas.dev/engine/config/codec"
)

// ConsulKV is the part of the Consul KV API a [Consul] source needs.
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// Consul loads a document stored under one Consul key. A missing key
// yields an empty map.
type Consul struct {
	kv        ConsulKV
	key       string
	decoder   codec.Decoder
	lastIndex uint64
}

// NewConsul creates a Consul source decoding the value of key with the
// codec of type t. A nil kv uses a client configured from the standard
// CONSUL_HTTP_ADDR and CONSUL_HTTP_TOKEN variables.
func NewConsul(kv ConsulKV, key string, t codec.Type) (*Consul, error) {
	dec, err := codec.Get(t)
	if err != nil {
		return nil, err
	}
	if kv == nil {
		client, err := api.NewClient(api.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("consul client: %w", err)
		}
		kv = client.KV()
	}
	return &Consul{kv: kv, key: key, decoder: dec}, nil
}

// LastIndex returns the Consul index of the last successful read.
func (c *Consul) LastIndex() uint64 {
	return c.lastIndex
}

// Load implements config.Source.
func (c *Consul) Load(ctx context.Context) (map[string]any, error) {
	pair, meta, err := c.kv.Get(c.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("consul get %s: %w", c.key, err)
	}
	if meta != nil {
		c.lastIndex = meta.LastIndex
	}
	if pair == nil || len(pair.Value) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := c.decoder.Decode(pair.Value, &m); err != nil {
		return nil, fmt.Errorf("decode consul key %s: %w", c.key, err)
	}
	return m, nil
}
