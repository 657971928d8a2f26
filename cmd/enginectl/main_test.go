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

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"rivaas.dev/engine/engine"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoutesCommand(t *testing.T) {
	t.Parallel()

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, "routes", "--format", "yaml")
		require.NoError(t, err)

		var routes []engine.RouteInfo
		require.NoError(t, yaml.Unmarshal([]byte(out), &routes))
		paths := make(map[string]engine.RouteInfo, len(routes))
		for _, r := range routes {
			paths[r.Path+"#"+r.Kind] = r
		}
		assert.Contains(t, paths, "/hello#route")
		assert.Contains(t, paths, "/api/status#route")
		assert.Equal(t, "GUESS", paths["/guess#route"].ElementID)
		assert.Equal(t, "type", paths["/guess#route"].Strategy)
		assert.Contains(t, paths["/posts#route"].PathInfo, "map(")
	})

	t.Run("table", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, "routes")
		require.NoError(t, err)
		assert.Contains(t, out, "/api/status")
		assert.Contains(t, out, "Strategy")
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, "routes", "--format", "xml")
		require.ErrorContains(t, err, "unknown format")
	})
}

func TestConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0o600))

	out, err := execute(t, "config", "--config", path, "--format", "json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	server, ok := doc["server"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ":9999", server["addr"])

	t.Setenv("ENGINE_SERVER_ADDR", ":7777")
	out, err = execute(t, "config", "--config", path, "--format", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, ":7777", "environment wins over the file")

	_, err = execute(t, "config", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Go version:")
}

func TestDemoSite(t *testing.T) {
	t.Parallel()

	gate, err := engine.NewGate(demoSite())
	require.NoError(t, err)
	srv := httptest.NewServer(gate)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	_, body := get("/hello?name=gopher")
	assert.Equal(t, "hello gopher", body)

	_, body = get("/posts/2024/intro")
	assert.Equal(t, "post intro from 2024", body)

	_, body = get("/api/status")
	assert.JSONEq(t, `{"status":"ok"}`, body)

	status, body := get("/boom")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "boom")

	_, body = get("/guess")
	assert.Contains(t, body, "guess a number")
	_, body = get("/guess?n=10")
	assert.Equal(t, "10 is too low", body)
	_, body = get("/guess?n=90")
	assert.Equal(t, "90 is too high", body)
	_, body = get("/guess?n=42")
	assert.Equal(t, "found 42 after 3 tries", body)

	// The finished game drops its cookie, so the next visit starts over.
	_, body = get("/guess")
	assert.Contains(t, body, "guess a number")
	_, body = get("/guess?n=42")
	assert.Equal(t, "found 42 after 1 tries", body)
}
