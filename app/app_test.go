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

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/engine/config"
	"rivaas.dev/engine/engine"
	"rivaas.dev/engine/logging"
)

// counter pauses after every visit and reports how many it has seen.
type counter struct {
	Count int
}

func (e *counter) Process(c *engine.Context) error {
	e.Count++
	c.Printf("count=%d", e.Count)
	return c.Pause("again")
}

func testSite() *engine.Site {
	return engine.NewSite(func(r *engine.Router) error {
		r.Get("/hello", engine.Func(func(c *engine.Context) error {
			c.Print("hello")
			return nil
		}), engine.WithName("hello"))
		r.Get("/counter", engine.Type[counter]())
		r.Get("/visits", engine.Func(func(c *engine.Context) error {
			s, err := c.Session()
			if err != nil {
				return err
			}
			n, _ := s.Get("n")
			visits := cast.ToInt(n) + 1
			s.Set("n", visits)
			c.Printf("visits=%d", visits)
			return nil
		}))
		r.Get("/page", engine.Func(func(c *engine.Context) error {
			t, err := c.Template("page")
			if err != nil {
				return err
			}
			t.Set("name", c.Parameter("name"))
			return c.PrintTemplate(t)
		}))
		return nil
	})
}

func testConfig() *config.Engine {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = time.Second
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Engine, opts ...Option) (*App, *bytes.Buffer) {
	t.Helper()
	logger, buf := logging.NewTestLogger()
	a, err := New(cfg, testSite(), append([]Option{WithLogging(logger), WithBannerOutput(nil)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a, buf
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, testSite())
	require.ErrorIs(t, err, ErrNilConfig)

	_, err = New(testConfig(), nil)
	require.ErrorIs(t, err, ErrNilSite)

	cfg := testConfig()
	cfg.Continuations.Duration = 0
	_, err = New(cfg, testSite())
	require.ErrorIs(t, err, config.ErrInvalid)

	cfg = testConfig()
	cfg.Logging.Level = "loud"
	_, err = New(cfg, testSite())
	require.ErrorIs(t, err, logging.ErrInvalidLevel)

	cfg = testConfig()
	cfg.Session.Store = "redis"
	cfg.Session.RedisAddr = "127.0.0.1:1"
	_, err = New(cfg, testSite(), WithLogging(logging.MustNew(logging.WithOutput(io.Discard))))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build sessions")

	assert.Panics(t, func() { MustNew(nil, testSite()) })
}

func TestDefaultsBuildMinimalApp(t *testing.T) {
	t.Parallel()
	a, _ := newTestApp(t, testConfig())

	assert.NotNil(t, a.Gate())
	assert.NotNil(t, a.Manager())
	assert.Same(t, a.Manager(), a.Gate().Manager())
	assert.Nil(t, a.Metrics())
	assert.Nil(t, a.Tracing())
	assert.Nil(t, a.Sessions())
	assert.NotNil(t, a.Logger())
	assert.Equal(t, "127.0.0.1:0", a.Config().Server.Addr)
}

func TestHandlerRoutes(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Metrics.Provider = "prometheus"
	a, _ := newTestApp(t, cfg)
	h := a.Handler()
	assert.Same(t, h, a.Handler())

	w := get(t, h, "/hello")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Content-Type"))

	w = get(t, h, "/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(t, h, HealthPath)
	require.Equal(t, http.StatusOK, w.Code)
	var health Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 4, health.Routes)

	w = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `outcome="completed"`)
	assert.Contains(t, w.Body.String(), `outcome="unhandled"`)
}

func TestPauseAndResumeAcrossRequests(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Continuations.IDGenerator = "ulid"
	a, _ := newTestApp(t, cfg)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	for want := 1; want <= 3; want++ {
		resp, err := client.Get(srv.URL + "/counter")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, resp.Body.Close())
		require.NoError(t, err)
		assert.Equal(t, "count="+string(rune('0'+want)), string(body))

		var id string
		for _, ck := range resp.Cookies() {
			if ck.Name == engine.ContinuationCookie {
				id = ck.Value
			}
		}
		assert.Len(t, id, 26, "ulid continuation ids")
	}
	assert.Equal(t, 3, a.Manager().Len())
}

func TestContinuationsDisabled(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Continuations.Enabled = false
	cfg.Gate.PrettyExceptions = false
	cfg.Gate.LogExceptions = false
	a, _ := newTestApp(t, cfg)

	assert.Nil(t, a.Manager())
	w := get(t, a.Handler(), "/counter")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSessionStores(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	tests := []struct {
		name  string
		setup func(*testing.T, *config.Engine)
	}{
		{"memory", func(_ *testing.T, c *config.Engine) { c.Session.Store = "memory" }},
		{"redis", func(_ *testing.T, c *config.Engine) {
			c.Session.Store = "redis"
			c.Session.RedisAddr = mr.Addr()
		}},
		{"bolt", func(t *testing.T, c *config.Engine) {
			c.Session.Store = "bolt"
			c.Session.BoltPath = filepath.Join(t.TempDir(), "sessions.db")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			cfg.Session.CookieName = "SID"
			tt.setup(t, cfg)
			a, _ := newTestApp(t, cfg)
			require.NotNil(t, a.Sessions())

			srv := httptest.NewServer(a.Handler())
			t.Cleanup(srv.Close)
			jar, err := cookiejar.New(nil)
			require.NoError(t, err)
			client := &http.Client{Jar: jar}

			var last string
			for range 2 {
				resp, err := client.Get(srv.URL + "/visits")
				require.NoError(t, err)
				body, _ := io.ReadAll(resp.Body)
				_ = resp.Body.Close()
				last = string(body)
			}
			assert.Equal(t, "visits=2", last)
		})
	}
}

func TestTemplatesAndStatic(t *testing.T) {
	t.Parallel()
	templates := fstest.MapFS{"page.html": {Data: []byte("<p>hi {{.name}}</p>")}}
	static := fstest.MapFS{"robots.txt": {Data: []byte("User-agent: *")}}
	a, _ := newTestApp(t, testConfig(), WithTemplateFS(templates), WithStatic(static))
	h := a.Handler()

	w := get(t, h, "/page?name=%3Cb%3E")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<p>hi &lt;b&gt;</p>", w.Body.String())

	w = get(t, h, "/robots.txt")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User-agent: *", w.Body.String())
}

func TestTemplateDirFromConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(dir, "page.html"), "dir {{.name}}"))
	cfg := testConfig()
	cfg.Gate.TemplateDir = dir
	a, _ := newTestApp(t, cfg)

	w := get(t, a.Handler(), "/page?name=x")
	assert.Equal(t, "dir x", w.Body.String())
}

func TestCompressionFromConfig(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Compression.Brotli = false
	cfg.Compression.MimeTypes = []string{"text/plain"}
	a, _ := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	req.Header.Set("Accept-Encoding", "br, gzip")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestGatePrefix(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Gate.URL = "/app"
	a, _ := newTestApp(t, cfg)
	h := a.Handler()

	assert.Equal(t, "hello", get(t, h, "/app/hello").Body.String())
	assert.Equal(t, http.StatusNotFound, get(t, h, "/hello").Code)
	assert.Equal(t, http.StatusOK, get(t, h, HealthPath).Code)
}

func TestHealthReportsSetupFailure(t *testing.T) {
	t.Parallel()
	site := engine.NewSite(func(*engine.Router) error { return errors.New("no database") })
	logger, _ := logging.NewTestLogger()
	a, err := New(testConfig(), site, WithLogging(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	w := get(t, a.Handler(), HealthPath)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "no database")
}

func TestObservabilityProviders(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Metrics.Provider = "stdout"
	cfg.Tracing.Provider = "stdout"
	a, logs := newTestApp(t, cfg)

	require.NotNil(t, a.Metrics())
	require.NotNil(t, a.Tracing())
	assert.Equal(t, http.StatusOK, get(t, a.Handler(), "/hello").Code)
	assert.Equal(t, http.StatusNotFound, get(t, a.Handler(), "/metrics").Code, "no scrape endpoint without prometheus")

	entries, err := logging.ParseJSONLogEntries(logs)
	require.NoError(t, err)
	var reported bool
	for _, e := range entries {
		if e.Message == "metrics endpoint not mounted" {
			reported = true
			assert.Equal(t, "stdout", e.Attrs["provider"])
		}
	}
	assert.True(t, reported, "a missing scrape endpoint is logged")
}

func TestServeAndShutdown(t *testing.T) {
	t.Parallel()
	for _, h2c := range []bool{false, true} {
		cfg := testConfig()
		cfg.Server.H2C = h2c
		cfg.Session.Store = "memory"
		a, logs := newTestApp(t, cfg)

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- a.Serve(ctx, ln) }()

		resp, err := http.Get("http://" + ln.Addr().String() + "/hello")
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, "hello", string(body))

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
		assert.Contains(t, logs.String(), "server starting")
		assert.Contains(t, logs.String(), "server exited")
	}
}

func TestRunListenError(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Server.Addr = "256.0.0.1:bad"
	a, _ := newTestApp(t, cfg)
	require.Error(t, a.Run(context.Background()))
}

func TestBanner(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Metrics.Provider = "prometheus"
	cfg.Session.Store = "memory"
	a, _ := newTestApp(t, cfg, WithServiceVersion("1.2.3"))

	var buf bytes.Buffer
	a.PrintBanner(&buf, "[::]:8080")
	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "colors are stripped outside a terminal")
	assert.Contains(t, out, "1.2.3")
	assert.Contains(t, out, "http://0.0.0.0:8080")
	assert.Contains(t, out, "http://0.0.0.0:8080/metrics")
	assert.Contains(t, out, "20m0s ttl")
	assert.Contains(t, out, "memory")
	assert.Contains(t, out, "/counter")

	buf.Reset()
	a.PrintRoutes(&buf)
	out = buf.String()
	for _, want := range []string{"Methods", "/hello", "hello", "/counter", "type", "instance"} {
		assert.Contains(t, out, want)
	}

	buf.Reset()
	PrintRoutes(&buf, nil)
	assert.Equal(t, "No routes registered\n", buf.String())
	assert.True(t, strings.Contains(onOff(true), "Enabled"))
}

func TestAccessLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		errorsOnly bool
		target     string
		wantLevel  string
	}{
		{"success", false, "/hello", "INFO"},
		{"not found", false, "/missing", "WARN"},
		{"errors only skips success", true, "/hello", ""},
		{"errors only keeps client errors", true, "/missing", "WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			cfg.Logging.AccessLog = true
			cfg.Logging.AccessLogErrorsOnly = tt.errorsOnly
			a, buf := newTestApp(t, cfg)

			get(t, a.Handler(), tt.target)

			entries, err := logging.ParseJSONLogEntries(buf)
			require.NoError(t, err)
			var access []logging.LogEntry
			for _, e := range entries {
				if e.Message == "access" {
					access = append(access, e)
				}
			}
			if tt.wantLevel == "" {
				assert.Empty(t, access)
				return
			}
			require.Len(t, access, 1)
			assert.Equal(t, tt.wantLevel, access[0].Level)
			assert.Equal(t, tt.target, access[0].Attrs["url.path"])
			assert.Equal(t, http.MethodGet, access[0].Attrs["http.request.method"])
			assert.NotEmpty(t, access[0].Attrs["request_id"])
		})
	}
}

func TestSampled(t *testing.T) {
	t.Parallel()

	assert.True(t, sampled("", 0.1), "requests without id are kept")
	assert.True(t, sampled("abc", 1))
	assert.False(t, sampled("abc", 0))
	assert.Equal(t, sampled("req-42", 0.5), sampled("req-42", 0.5), "sampling is stable per id")

	kept := 0
	for i := range 1000 {
		if sampled(fmt.Sprintf("req-%d", i), 0.25) {
			kept++
		}
	}
	assert.InDelta(t, 250, kept, 80)
}
