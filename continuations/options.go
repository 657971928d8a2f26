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
	"log/slog"
	"time"
)

const (
	// DefaultDuration is how long a paused continuation stays resumable.
	DefaultDuration = 20 * time.Minute
	// DefaultPurgeFrequency is the numerator of the purge rate.
	DefaultPurgeFrequency = 20
	// DefaultPurgeScale is the denominator of the purge rate.
	DefaultPurgeScale = 1000
	// DefaultMaxEntries bounds the registry size.
	DefaultMaxEntries = 10000
)

// Option configures a [Manager].
type Option func(*Manager)

// WithDuration sets the time to live of stored continuations.
//
// Example:
//
//	mgr := continuations.MustNewManager(continuations.WithDuration(5 * time.Minute))
func WithDuration(d time.Duration) Option {
	return func(m *Manager) {
		m.duration = d
	}
}

// WithPurgeFrequency sets how many purges happen per PurgeScale additions.
// With the defaults (20 per 1000) expired entries are swept every 50 additions.
func WithPurgeFrequency(frequency int) Option {
	return func(m *Manager) {
		m.purgeFrequency = frequency
	}
}

// WithPurgeScale sets the denominator of the purge rate.
func WithPurgeScale(scale int) Option {
	return func(m *Manager) {
		m.purgeScale = scale
	}
}

// WithMaxEntries bounds the number of stored continuations.
// Zero disables the bound and leaves only time based expiry.
func WithMaxEntries(n int) Option {
	return func(m *Manager) {
		m.maxEntries = n
	}
}

// WithIDGenerator replaces the default UUID generator.
//
// Example:
//
//	mgr := continuations.MustNewManager(
//	    continuations.WithIDGenerator(continuations.NewULIDGenerator()),
//	)
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

// WithClock overrides the time source. Tests use it to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger used for purge and eviction events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithObserver registers an observer notified of additions, resumptions
// and evictions.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}
