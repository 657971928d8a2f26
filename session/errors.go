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

import "errors"

var (
	// ErrNotFound indicates that the store holds no session for the id.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidated indicates use of a session after Invalidate.
	ErrInvalidated = errors.New("session invalidated")

	// ErrNilStore indicates that a manager was created without a store.
	ErrNilStore = errors.New("session store must not be nil")
)
