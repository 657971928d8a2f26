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

package engine

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchLiteral(t *testing.T) {
	t.Parallel()

	var hello, root, file *Route
	site := deployedSite(t, func(r *Router) error {
		root = r.Get("/", text("root"))
		hello = r.Get("/hello", text("hello"))
		file = r.Get("/file.txt", text("file"))
		return nil
	})

	tests := []struct {
		name   string
		method string
		url    string
		want   *Route
	}{
		{"exact", http.MethodGet, "/hello", hello},
		{"head follows get", http.MethodHead, "/hello", hello},
		{"other method", http.MethodPost, "/hello", nil},
		{"trailing slash", http.MethodGet, "/hello/", hello},
		{"trailing slash after a file name", http.MethodGet, "/file.txt/", nil},
		{"file name", http.MethodGet, "/file.txt", file},
		{"path parameters", http.MethodGet, "/hello;jsessionid=abc", hello},
		{"empty url", http.MethodGet, "", root},
		{"literal never takes path info", http.MethodGet, "/hello/world", nil},
		{"unknown", http.MethodGet, "/nope", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, ok := site.Match(tt.method, tt.url)
			if tt.want == nil {
				assert.False(t, ok)
				assert.Nil(t, m)
				return
			}
			require.True(t, ok)
			assert.Same(t, tt.want, m.Route)
			assert.Empty(t, m.PathInfo)
		})
	}
}

func TestMatchMethodDisambiguation(t *testing.T) {
	t.Parallel()

	var get, post *Route
	site := deployedSite(t, func(r *Router) error {
		get = r.Get("/form", text("get"))
		post = r.Post("/form", text("post"))
		return nil
	})

	m, ok := site.Match(http.MethodGet, "/form")
	require.True(t, ok)
	assert.Same(t, get, m.Route)
	m, ok = site.Match(http.MethodPost, "/form")
	require.True(t, ok)
	assert.Same(t, post, m.Route)
	_, ok = site.Match(http.MethodPut, "/form")
	assert.False(t, ok)
}

func TestMatchHeadPrefersExplicitRoute(t *testing.T) {
	t.Parallel()

	var get, head, files, filesHead *Route
	site := deployedSite(t, func(r *Router) error {
		get = r.Get("/page", text("get"))
		head = r.Route([]string{http.MethodHead}, "/page", text("head"))
		files = r.Get("/files", text("files"), WithPathInfo(PathInfoCapture()))
		filesHead = r.Route([]string{http.MethodHead}, "/files", text("head"), WithPathInfo(PathInfoCapture()))
		r.Get("/only-get", text("only"))
		return nil
	})

	tests := []struct {
		name   string
		method string
		url    string
		want   *Route
	}{
		{"get", http.MethodGet, "/page", get},
		{"head registered after get", http.MethodHead, "/page", head},
		{"path info get", http.MethodGet, "/files/a.txt", files},
		{"path info head", http.MethodHead, "/files/a.txt", filesHead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, ok := site.Match(tt.method, tt.url)
			require.True(t, ok)
			assert.Same(t, tt.want, m.Route)
		})
	}

	m, ok := site.Match(http.MethodHead, "/only-get")
	require.True(t, ok, "HEAD falls back to GET")
	assert.Equal(t, []string{http.MethodGet}, m.Route.Methods())
}

func TestMatchPathInfo(t *testing.T) {
	t.Parallel()

	var x, capture *Route
	site := deployedSite(t, func(r *Router) error {
		x = r.Get("", Type[HandlerX](), WithPathInfo(PathInfoMap(Mapping().Slash().Param("id"))))
		capture = r.Get("/files", text("files"), WithPathInfo(PathInfoCapture()))
		return nil
	})

	m, ok := site.Match(http.MethodGet, "/handlerX/42")
	require.True(t, ok)
	assert.Same(t, x, m.Route)
	assert.Equal(t, "42", m.PathInfo)

	_, ok = site.Match(http.MethodGet, "/handlerX/42/43")
	assert.False(t, ok, "mapping does not accept two segments")

	m, ok = site.Match(http.MethodGet, "/files/a/b/c.txt")
	require.True(t, ok)
	assert.Same(t, capture, m.Route)
	assert.Equal(t, "a/b/c.txt", m.PathInfo)

	m, ok = site.Match(http.MethodGet, "/files")
	require.True(t, ok)
	assert.Same(t, capture, m.Route)
	assert.Empty(t, m.PathInfo)
}

func TestMatchPathInfoPrecedence(t *testing.T) {
	t.Parallel()

	t.Run("mapped route first", func(t *testing.T) {
		t.Parallel()
		var mapped, capture *Route
		site := deployedSite(t, func(r *Router) error {
			mapped = r.Get("/docs", text("mapped"), WithPathInfo(PathInfoMap(Mapping().ParamPattern("id", `\d+`))))
			capture = r.Get("/docs", text("capture"), WithPathInfo(PathInfoCapture()))
			return nil
		})

		m, ok := site.Match(http.MethodGet, "/docs/12")
		require.True(t, ok)
		assert.Same(t, mapped, m.Route)

		m, ok = site.Match(http.MethodGet, "/docs/intro")
		require.True(t, ok)
		assert.Same(t, capture, m.Route, "unmatched path info moves on to the next candidate")
	})

	t.Run("capture route first", func(t *testing.T) {
		t.Parallel()
		var capture *Route
		site := deployedSite(t, func(r *Router) error {
			capture = r.Get("/docs", text("capture"), WithPathInfo(PathInfoCapture()))
			r.Get("/docs", text("mapped"), WithPathInfo(PathInfoMap(Mapping().ParamPattern("id", `\d+`))))
			return nil
		})

		m, ok := site.Match(http.MethodGet, "/docs/12")
		require.True(t, ok)
		assert.Same(t, capture, m.Route, "registration order decides")
	})

	t.Run("method filter applies first", func(t *testing.T) {
		t.Parallel()
		var post *Route
		site := deployedSite(t, func(r *Router) error {
			r.Get("/docs", text("get"), WithPathInfo(PathInfoCapture()))
			post = r.Post("/docs", text("post"), WithPathInfo(PathInfoCapture()))
			return nil
		})

		m, ok := site.Match(http.MethodPost, "/docs/1")
		require.True(t, ok)
		assert.Same(t, post, m.Route)
	})

	t.Run("deeper path wins over shorter", func(t *testing.T) {
		t.Parallel()
		var deep *Route
		site := deployedSite(t, func(r *Router) error {
			r.Get("/a", text("a"), WithPathInfo(PathInfoCapture()))
			deep = r.Get("/a/b", text("ab"), WithPathInfo(PathInfoCapture()))
			return nil
		})

		m, ok := site.Match(http.MethodGet, "/a/b/c")
		require.True(t, ok)
		assert.Same(t, deep, m.Route)
		assert.Equal(t, "c", m.PathInfo)
	})
}

func TestMatchRootCapture(t *testing.T) {
	t.Parallel()

	var root *Route
	site := deployedSite(t, func(r *Router) error {
		root = r.Get("/", text("root"), WithPathInfo(PathInfoCapture()))
		return nil
	})

	m, ok := site.Match(http.MethodGet, "/anything/else")
	require.True(t, ok)
	assert.Same(t, root, m.Route)
	assert.Equal(t, "anything/else", m.PathInfo)
}

func TestMatchGroups(t *testing.T) {
	t.Parallel()

	site := deployedSite(t, func(r *Router) error {
		return r.Group("/g", NewRouter(func(r *Router) error {
			r.Get("/a", text("a"))
			r.Get("/b", text("b"))
			return nil
		}))
	})

	for _, url := range []string{"/g/a", "/g/b"} {
		_, ok := site.Match(http.MethodGet, url)
		assert.True(t, ok, url)
	}
	for _, url := range []string{"/a", "/b", "/g"} {
		_, ok := site.Match(http.MethodGet, url)
		assert.False(t, ok, url)
	}
}

func TestMatchParentWinsOnCollision(t *testing.T) {
	t.Parallel()

	var parent *Route
	site := deployedSite(t, func(r *Router) error {
		parent = r.Get("/same", text("parent"))
		return r.Group("", NewRouter(func(r *Router) error {
			r.Get("/same", text("child"))
			return nil
		}))
	})

	m, ok := site.Match(http.MethodGet, "/same")
	require.True(t, ok)
	assert.Same(t, parent, m.Route)
}

func TestMatchFallback(t *testing.T) {
	t.Parallel()

	var all, docs, groupFallback *Route
	site := deployedSite(t, func(r *Router) error {
		all = r.Fallback("/", text("all"))
		docs = r.Fallback("/docs", text("docs"))
		r.Get("/docs/index", text("index"))
		return r.Group("/g", NewRouter(func(r *Router) error {
			groupFallback = r.Fallback("/", text("group"))
			return nil
		}))
	})

	tests := []struct {
		url      string
		want     *Route
		pathInfo string
	}{
		{"/nothing/here", all, "nothing/here"},
		{"/docs/a/b", docs, "a/b"},
		{"/docs", docs, ""},
		{"/docsx", all, "docsx"},
		{"/g/x", groupFallback, "x"},
	}
	for _, tt := range tests {
		m, ok := site.Match(http.MethodGet, tt.url)
		require.True(t, ok, tt.url)
		assert.Same(t, tt.want, m.Route, tt.url)
		assert.Equal(t, tt.pathInfo, m.PathInfo, tt.url)
	}

	m, ok := site.Match(http.MethodGet, "/docs/index")
	require.True(t, ok)
	assert.NotSame(t, docs, m.Route, "routes win over fallbacks")
}

func TestMatchFallbackFirstRegistrationWins(t *testing.T) {
	t.Parallel()

	var parent *Route
	site := deployedSite(t, func(r *Router) error {
		parent = r.Fallback("/g", text("parent"))
		return r.Group("/g", NewRouter(func(r *Router) error {
			r.Fallback("/", text("child"))
			return nil
		}))
	})

	m, ok := site.Match(http.MethodGet, "/g/x")
	require.True(t, ok)
	assert.Same(t, parent, m.Route)
}

func TestMatchIsIdempotent(t *testing.T) {
	t.Parallel()

	site := deployedSite(t, func(r *Router) error {
		r.Get("/a", text("a"), WithPathInfo(PathInfoCapture()))
		r.Get("/a", text("b"), WithPathInfo(PathInfoCapture()))
		return nil
	})

	first, ok := site.Match(http.MethodGet, "/a/b/c")
	require.True(t, ok)
	for range 10 {
		again, ok := site.Match(http.MethodGet, "/a/b/c")
		require.True(t, ok)
		assert.Same(t, first.Route, again.Route)
		assert.Equal(t, first.PathInfo, again.PathInfo)
	}
}

func TestMatchBeforeDeploy(t *testing.T) {
	t.Parallel()

	site := NewSite(nil)
	site.Get("/a", text("a"))
	_, ok := site.Match(http.MethodGet, "/a")
	assert.False(t, ok)

	require.NoError(t, site.Deploy())
	_, ok = site.Match(http.MethodGet, "/a")
	assert.True(t, ok)
}

func TestSiteDeployRemembersFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	site := NewSite(func(r *Router) error {
		calls++
		r.Get("relative", text("x"))
		return nil
	})
	err := site.Deploy()
	require.ErrorIs(t, err, ErrInvalidPath)
	require.ErrorIs(t, site.Deploy(), ErrInvalidPath)
	assert.Equal(t, 1, calls)
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	site := deployedSite(t, func(r *Router) error {
		r.Get("/hello", text("hello"), WithName("hello"))
		r.Post("", Type[HandlerX](), WithPathInfo(PathInfoMap(Mapping().Slash().Param("id"))))
		r.Before(text("before"))
		r.Exception(text("oops"))
		r.Fallback("/", text("fallback"))
		return nil
	})

	routes := site.Routes()
	require.Len(t, routes, 5)
	assert.Equal(t, RouteInfo{
		Methods: []string{"GET"}, Path: "/hello", PathInfo: "none", Name: "hello",
		Strategy: "instance", Kind: "route",
	}, routes[0])
	assert.Equal(t, RouteInfo{
		Methods: []string{"POST"}, Path: "/handlerX", PathInfo: "map(/{id})",
		ElementID: "engine.HandlerX", Strategy: "type", Kind: "route",
	}, routes[1])
	assert.Equal(t, "fallback", routes[2].Kind)
	assert.Equal(t, "before", routes[3].Kind)
	assert.Equal(t, "exception", routes[4].Kind)
}
