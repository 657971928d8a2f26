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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// DefaultCookieName is the cookie carrying the session id.
const DefaultCookieName = "SESSIONID"

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

// Store persists session attributes.
type Store interface {
	// Load returns the attributes of id, or ErrNotFound.
	Load(ctx context.Context, id string) (map[string]any, error)
	// Save replaces the attributes of id and refreshes its lifetime.
	Save(ctx context.Context, id string, attrs map[string]any, ttl time.Duration) error
	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// Session is the attribute set of one client. It is owned by a single
// request and is not safe for concurrent use.
type Session struct {
	id          string
	attrs       map[string]any
	isNew       bool
	dirty       bool
	invalidated bool
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool { return s.isNew }

// Dirty reports whether attributes changed since loading.
func (s *Session) Dirty() bool { return s.dirty }

// Get returns an attribute.
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.attrs[key]
	return v, ok
}

// Set stores an attribute.
func (s *Session) Set(key string, value any) {
	s.attrs[key] = value
	s.dirty = true
}

// Remove deletes an attribute.
func (s *Session) Remove(key string) {
	if _, ok := s.attrs[key]; ok {
		delete(s.attrs, key)
		s.dirty = true
	}
}

// Attributes returns a copy of all attributes.
func (s *Session) Attributes() map[string]any {
	return maps.Clone(s.attrs)
}

// Invalidate drops every attribute; the session is deleted on commit.
func (s *Session) Invalidate() {
	clear(s.attrs)
	s.invalidated = true
}

// Invalidated reports whether Invalidate was called.
func (s *Session) Invalidated() bool { return s.invalidated }

// Manager binds sessions to requests.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	newID      func() string
	logger     *slog.Logger
}

// Option configures a [Manager].
type Option func(*Manager)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) { m.cookieName = name }
}

// WithTTL sets the idle lifetime of sessions.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// WithIDFunc replaces the uuid based id generator.
func WithIDFunc(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a session manager on top of store.
func NewManager(store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	m := &Manager{
		store:      store,
		cookieName: DefaultCookieName,
		ttl:        DefaultTTL,
		newID:      uuid.NewString,
		logger:     noopLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string { return m.cookieName }

// Load returns the session of r. A missing cookie, or an id the store no
// longer knows, yields a new empty session. Store failures are returned.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		attrs, err := m.store.Load(ctx, c.Value)
		switch {
		case err == nil:
			return &Session{id: c.Value, attrs: attrs}, nil
		case errors.Is(err, ErrNotFound):
			m.logger.Debug("session cookie refers to unknown session", "id", c.Value)
		default:
			return nil, fmt.Errorf("load session: %w", err)
		}
	}
	return &Session{id: m.newID(), attrs: make(map[string]any), isNew: true}, nil
}

// Commit persists s and maintains the cookie. A new session is only stored
// once it carries attributes; an invalidated one is deleted and its cookie
// expired.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s == nil {
		return nil
	}
	if s.invalidated {
		if err := m.store.Delete(ctx, s.id); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		http.SetCookie(w, m.cookie("", -1))
		return nil
	}
	if !s.dirty {
		return nil
	}
	if err := m.store.Save(ctx, s.id, s.attrs, m.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.dirty = false
	if s.isNew {
		http.SetCookie(w, m.cookie(s.id, int(m.ttl/time.Second)))
	}
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
