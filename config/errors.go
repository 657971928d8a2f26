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

package config

import (
	"errors"
	"fmt"
)

var (
	// ErrNilSource indicates a nil source passed to [WithSource].
	ErrNilSource = errors.New("source cannot be nil")

	// ErrInvalid indicates a configuration value outside its allowed range.
	ErrInvalid = errors.New("invalid configuration")
)

// Error tells which stage of loading failed and for which source.
type Error struct {
	Source    string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config error in %s during %s: %v", e.Source, e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(source, operation string, err error) *Error {
	return &Error{Source: source, Operation: operation, Err: err}
}
