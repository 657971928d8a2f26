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

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerRequiresStore(t *testing.T) {
	t.Parallel()
	_, err := NewManager(nil)
	require.ErrorIs(t, err, ErrNilStore)
}

func TestManagerRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, err := NewManager(NewMemoryStore(), WithTTL(time.Hour), WithIDFunc(func() string { return "sid-1" }))
	require.NoError(t, err)

	// First request: no cookie, new session.
	s, err := m.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, s.IsNew())
	assert.Equal(t, "sid-1", s.ID())
	s.Set("user", "ada")

	w := httptest.NewRecorder()
	require.NoError(t, m.Commit(ctx, w, s))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Equal(t, "sid-1", cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)

	// Second request presents the cookie.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	s2, err := m.Load(ctx, r)
	require.NoError(t, err)
	assert.False(t, s2.IsNew())
	v, ok := s2.Get("user")
	require.True(t, ok)
	assert.Equal(t, "ada", v)

	// Unchanged sessions are not rewritten and no cookie is sent again.
	w2 := httptest.NewRecorder()
	require.NoError(t, m.Commit(ctx, w2, s2))
	assert.Empty(t, w2.Result().Cookies())
}

func TestManagerUnknownCookieStartsFresh(t *testing.T) {
	t.Parallel()
	m, err := NewManager(NewMemoryStore())
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "gone"})
	s, err := m.Load(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, s.IsNew())
	assert.NotEqual(t, "gone", s.ID())
}

func TestManagerEmptyNewSessionIsNotStored(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore()
	m, err := NewManager(store)
	require.NoError(t, err)

	s, err := m.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	w := httptest.NewRecorder()
	require.NoError(t, m.Commit(context.Background(), w, s))
	assert.Empty(t, w.Result().Cookies())
	_, err = store.Load(context.Background(), s.ID())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "sid", map[string]any{"a": 1}, time.Hour))

	m, err := NewManager(store, WithCookieName("S"))
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "S", Value: "sid"})
	s, err := m.Load(ctx, r)
	require.NoError(t, err)

	s.Invalidate()
	assert.True(t, s.Invalidated())
	assert.Empty(t, s.Attributes())

	w := httptest.NewRecorder()
	require.NoError(t, m.Commit(ctx, w, s))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)
	_, err = store.Load(ctx, "sid")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRemove(t *testing.T) {
	t.Parallel()
	s := &Session{attrs: map[string]any{"a": 1}}
	s.Remove("missing")
	assert.False(t, s.Dirty())
	s.Remove("a")
	assert.True(t, s.Dirty())
	_, ok := s.Get("a")
	assert.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "a", map[string]any{"k": "v"}, time.Minute))
	require.NoError(t, store.Save(ctx, "b", map[string]any{"k": "v"}, time.Hour))

	now = now.Add(2 * time.Minute)
	_, err := store.Load(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, store.Sweep())

	attrs, err := store.Load(ctx, "b")
	require.NoError(t, err)
	attrs["k"] = "mutated"
	again, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "v", again["k"], "store must hand out copies")
}
