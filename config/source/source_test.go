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

//go:build !integration

package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/engine/config/codec"
)

func TestFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o600))

	f, err := NewFile(path)
	require.NoError(t, err)
	m, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ":9000", m["server"].(map[string]any)["addr"])

	_, err = NewFile(filepath.Join(dir, "engine.conf"))
	require.ErrorIs(t, err, codec.ErrUnknownType)

	missing, err := NewFile(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	_, err = missing.Load(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)

	bad, err := NewContent([]byte("{"), codec.TypeJSON)
	require.NoError(t, err)
	_, err = bad.Load(context.Background())
	require.ErrorContains(t, err, "decode content")
}

func TestMap(t *testing.T) {
	t.Parallel()

	src := Map{"gate": map[string]any{"url": "/app"}}
	m, err := src.Load(context.Background())
	require.NoError(t, err)
	m["extra"] = true
	assert.NotContains(t, src, "extra")
}

func TestEnv(t *testing.T) {
	t.Parallel()

	e := NewEnv("ENGINE_")
	e.environ = func() []string {
		return []string{
			"ENGINE_CONTINUATIONS_DURATION=5m",
			"ENGINE_GATE_URL=/app",
			"OTHER_VALUE=1",
			"ENGINE=bare",
		}
	}
	m, err := e.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"continuations": map[string]any{"duration": "5m"},
		"gate":          map[string]any{"url": "/app"},
	}, m)
}

type fakeKV struct {
	pair *api.KVPair
	err  error
}

func (f fakeKV) Get(string, *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error) {
	return f.pair, &api.QueryMeta{LastIndex: 7}, f.err
}

func TestConsul(t *testing.T) {
	t.Parallel()

	c, err := NewConsul(fakeKV{pair: &api.KVPair{Key: "engine/config", Value: []byte(`{"metrics":{"provider":"prometheus"}}`)}}, "engine/config", codec.TypeJSON)
	require.NoError(t, err)
	m, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "prometheus", m["metrics"].(map[string]any)["provider"])
	assert.Equal(t, uint64(7), c.LastIndex())

	c, err = NewConsul(fakeKV{}, "engine/config", codec.TypeYAML)
	require.NoError(t, err)
	m, err = c.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m)

	c, err = NewConsul(fakeKV{err: errors.New("unreachable")}, "engine/config", codec.TypeYAML)
	require.NoError(t, err)
	_, err = c.Load(context.Background())
	require.ErrorContains(t, err, "unreachable")
}
