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

// Package session is the session collaborator of the engine.
//
// A [Manager] resolves the session of a request from its cookie, loads the
// attributes lazily from a [Store] and writes them back at the end of the
// request when they changed. Three stores are bundled:
//
//   - [MemoryStore]: process local, for development and tests
//   - [RedisStore]: shared between instances, backed by github.com/go-redis/redis
//   - [BoltStore]: single node persistent storage in a go.etcd.io/bbolt file
//
// The Redis and bbolt stores encode attributes with MessagePack
// (github.com/vmihailenco/msgpack/v5), so attribute values must be
// msgpack-encodable: strings, numbers, booleans, slices, maps and structs
// with exported fields.
package session
