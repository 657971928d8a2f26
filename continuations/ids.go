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
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces continuation identifiers and recognizes well-formed ones.
// Valid lets the manager reject malformed ids before touching the registry.
type IDGenerator interface {
	NewID() string
	Valid(id string) bool
}

// UUIDGenerator generates random RFC 4122 version 4 identifiers.
type UUIDGenerator struct{}

// NewID returns a new UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Valid reports whether id parses as a UUID.
func (UUIDGenerator) Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ULIDGenerator generates lexicographically sortable identifiers.
// Continuations created later sort after earlier ones, which makes ids
// easy to correlate in logs.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULIDGenerator creates a ULID generator backed by crypto/rand.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewID returns a new ULID string.
func (g *ULIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// Valid reports whether id is a strictly encoded ULID.
func (g *ULIDGenerator) Valid(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
