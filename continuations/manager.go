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

package continuations

import (
	"container/list"
	"io"
	"log/slog"
	"sync"
	"time"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// EvictReason tells why a continuation left the registry.
type EvictReason string

const (
	// EvictExpired is used when the time to live elapsed.
	EvictExpired EvictReason = "expired"
	// EvictCapacity is used when the least recently used entry made room.
	EvictCapacity EvictReason = "capacity"
	// EvictRemoved is used for explicit removal.
	EvictRemoved EvictReason = "removed"
)

// Observer receives registry events. Implementations must be safe for
// concurrent use and must not call back into the manager.
type Observer interface {
	ContinuationAdded(c *Continuation)
	ContinuationResumed(c *Continuation)
	ContinuationEvicted(c *Continuation, reason EvictReason)
}

type entry struct {
	cont *Continuation
	elem *list.Element
}

// Manager is a concurrent registry of paused continuations with time to
// live expiry and least recently used eviction.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List // front is most recently used; values are ids
	adds    uint64

	duration       time.Duration
	purgeFrequency int
	purgeScale     int
	maxEntries     int
	ids            IDGenerator
	now            func() time.Time
	logger         *slog.Logger
	observer       Observer
}

// NewManager creates a manager with the given options.
// It returns an error if the options are inconsistent.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		entries:        make(map[string]*entry),
		lru:            list.New(),
		duration:       DefaultDuration,
		purgeFrequency: DefaultPurgeFrequency,
		purgeScale:     DefaultPurgeScale,
		maxEntries:     DefaultMaxEntries,
		ids:            UUIDGenerator{},
		now:            time.Now,
		logger:         noopLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNewManager is like [NewManager] but panics on invalid options.
func MustNewManager(opts ...Option) *Manager {
	m, err := NewManager(opts...)
	if err != nil {
		panic("continuations: " + err.Error())
	}
	return m
}

func (m *Manager) validate() error {
	if m.duration <= 0 {
		return ErrInvalidDuration
	}
	if m.purgeFrequency <= 0 || m.purgeScale <= 0 || m.purgeFrequency > m.purgeScale {
		return ErrInvalidPurgeRate
	}
	if m.maxEntries < 0 {
		return ErrInvalidMaxEntries
	}
	return nil
}

// Duration returns the configured time to live.
func (m *Manager) Duration() time.Duration {
	return m.duration
}

// NewID returns a fresh identifier from the configured generator.
func (m *Manager) NewID() string {
	return m.ids.NewID()
}

// ValidID reports whether id is well formed for the configured generator.
func (m *Manager) ValidID(id string) bool {
	return id != "" && m.ids.Valid(id)
}

// IsExpired reports whether c is older than the configured duration.
func (m *Manager) IsExpired(c *Continuation) bool {
	return m.now().Sub(c.Created) > m.duration
}

// Add stores c under its id, making it resumable by later requests.
// A zero Created time is set to now. Adding may trigger a purge of expired
// entries and evicts least recently used entries beyond MaxEntries.
func (m *Manager) Add(c *Continuation) error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if c.Continuable == nil {
		return ErrNilContinuable
	}
	if c.Created.IsZero() {
		c.Created = m.now()
	}

	var evicted []*Continuation
	var reasons []EvictReason

	m.mu.Lock()
	if old, ok := m.entries[c.ID]; ok {
		old.cont = c
		m.lru.MoveToFront(old.elem)
	} else {
		m.entries[c.ID] = &entry{cont: c, elem: m.lru.PushFront(c.ID)}
	}
	m.adds++
	if m.adds%uint64(m.purgeInterval()) == 0 {
		for _, e := range m.purgeLocked(m.now()) {
			evicted = append(evicted, e)
			reasons = append(reasons, EvictExpired)
		}
	}
	for m.maxEntries > 0 && len(m.entries) > m.maxEntries {
		e := m.removeOldestLocked()
		evicted = append(evicted, e)
		reasons = append(reasons, EvictCapacity)
	}
	m.mu.Unlock()

	m.logger.Debug("continuation added", "id", c.ID, "step", c.Step)
	if m.observer != nil {
		m.observer.ContinuationAdded(c)
		for i, e := range evicted {
			m.observer.ContinuationEvicted(e, reasons[i])
		}
	}
	return nil
}

// Resume looks up id and returns a clone of the stored continuation under a
// fresh id, in the Resumed state. The stored continuation stays in place so
// the same id can be resumed again. Unknown, malformed and expired ids
// return false; an expired entry is removed on the way.
func (m *Manager) Resume(id string) (*Continuation, bool) {
	if !m.ValidID(id) {
		return nil, false
	}

	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return nil, false
	}
	if m.IsExpired(e.cont) {
		m.removeLocked(e)
		m.mu.Unlock()
		m.logger.Debug("continuation expired on resume", "id", id)
		if m.observer != nil {
			m.observer.ContinuationEvicted(e.cont, EvictExpired)
		}
		return nil, false
	}
	m.lru.MoveToFront(e.elem)
	resumed := e.cont.clone(m.ids.NewID())
	m.mu.Unlock()

	m.logger.Debug("continuation resumed", "id", id, "clone", resumed.ID, "step", resumed.Step)
	if m.observer != nil {
		m.observer.ContinuationResumed(resumed)
	}
	return resumed, true
}

// Get returns the stored continuation for id without cloning or touching
// its recency. Expired entries are reported as absent.
func (m *Manager) Get(id string) (*Continuation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || m.IsExpired(e.cont) {
		return nil, false
	}
	return e.cont, true
}

// Remove deletes id from the registry. It reports whether an entry existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	e, ok := m.entries[id]
	if ok {
		m.removeLocked(e)
	}
	m.mu.Unlock()
	if ok && m.observer != nil {
		m.observer.ContinuationEvicted(e.cont, EvictRemoved)
	}
	return ok
}

// Len returns the number of stored continuations, expired ones included
// until the next purge.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Purge removes every continuation expired at now and returns how many
// were removed.
func (m *Manager) Purge(now time.Time) int {
	m.mu.Lock()
	evicted := m.purgeLocked(now)
	m.mu.Unlock()

	if len(evicted) > 0 {
		m.logger.Debug("continuations purged", "count", len(evicted))
	}
	if m.observer != nil {
		for _, c := range evicted {
			m.observer.ContinuationEvicted(c, EvictExpired)
		}
	}
	return len(evicted)
}

func (m *Manager) purgeInterval() int {
	n := m.purgeScale / m.purgeFrequency
	if n < 1 {
		return 1
	}
	return n
}

func (m *Manager) purgeLocked(now time.Time) []*Continuation {
	var evicted []*Continuation
	// Walk from the back: least recently used entries are the likeliest to be stale.
	for el := m.lru.Back(); el != nil; {
		prev := el.Prev()
		e := m.entries[el.Value.(string)]
		if now.Sub(e.cont.Created) > m.duration {
			m.removeLocked(e)
			evicted = append(evicted, e.cont)
		}
		el = prev
	}
	return evicted
}

func (m *Manager) removeOldestLocked() *Continuation {
	el := m.lru.Back()
	e := m.entries[el.Value.(string)]
	m.removeLocked(e)
	return e.cont
}

func (m *Manager) removeLocked(e *entry) {
	m.lru.Remove(e.elem)
	delete(m.entries, e.cont.ID)
}
