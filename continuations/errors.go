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

import "errors"

var (
	// ErrInvalidTransition indicates a continuation status change the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid continuation state transition")

	// ErrNilContinuable indicates that a continuation was created without an element instance.
	ErrNilContinuable = errors.New("continuable must not be nil")

	// ErrEmptyID indicates that a continuation was added without an identifier.
	ErrEmptyID = errors.New("continuation id must not be empty")

	// ErrInvalidDuration indicates a non-positive continuation duration.
	ErrInvalidDuration = errors.New("continuation duration must be positive")

	// ErrInvalidPurgeRate indicates that purge frequency and scale are inconsistent.
	ErrInvalidPurgeRate = errors.New("purge frequency must be positive and not exceed purge scale")

	// ErrInvalidMaxEntries indicates a negative maximum entry count.
	ErrInvalidMaxEntries = errors.New("max entries must not be negative")
)
