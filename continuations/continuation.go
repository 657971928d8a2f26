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
	"fmt"
	"reflect"
	"time"
)

// Status is the position of a continuation in the suspension state machine.
type Status int

const (
	// Running means the continuable is executing and has not paused yet.
	Running Status = iota
	// Paused means the continuable yielded and is waiting in the registry.
	Paused
	// Resumed means a request picked the continuation up again.
	Resumed
	// Completed means the continuable ran to its end.
	Completed
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Resumed:
		return "resumed"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// transitions lists the allowed status changes.
var transitions = map[Status][]Status{
	Running:   {Paused, Completed},
	Paused:    {Resumed},
	Resumed:   {Running, Paused, Completed},
	Completed: {},
}

// Cloner can be implemented by continuables, or by values they hold, to
// take over the copy made on resume. Without it the value is deep copied
// by reflection.
type Cloner interface {
	CloneContinuable() any
}

// Continuation is a suspended element execution.
//
// The continuable is the element instance itself; Step names the resume
// point that the element's Process method switches on, and State carries the
// values the element explicitly saved before yielding.
type Continuation struct {
	// ID identifies the continuation towards the client.
	ID string
	// ParentID is the id this continuation was cloned from on resume, or empty.
	ParentID string
	// Step is the resume point token.
	Step string
	// State holds explicitly saved values.
	State map[string]any
	// Continuable is the suspended element instance.
	Continuable any
	// Created is when the continuation was first paused; expiry counts from here.
	Created time.Time

	status Status
}

// New creates a running continuation for the given continuable.
func New(id string, continuable any) *Continuation {
	return &Continuation{
		ID:          id,
		State:       make(map[string]any),
		Continuable: continuable,
		status:      Running,
	}
}

// Status returns the current state machine position.
func (c *Continuation) Status() Status {
	return c.status
}

// Type returns the dynamic type of the continuable.
func (c *Continuation) Type() reflect.Type {
	if c.Continuable == nil {
		return nil
	}
	return reflect.TypeOf(c.Continuable)
}

// Pause moves a running or resumed continuation to Paused at the given step.
// Created is reset so the manager stamps the new pause point on Add.
func (c *Continuation) Pause(step string) error {
	if err := c.transition(Paused); err != nil {
		return err
	}
	c.Step = step
	c.Created = time.Time{}
	return nil
}

// Complete marks the continuation as finished.
func (c *Continuation) Complete() error {
	return c.transition(Completed)
}

// Run marks a resumed continuation as executing again.
func (c *Continuation) Run() error {
	return c.transition(Running)
}

func (c *Continuation) transition(to Status) error {
	for _, allowed := range transitions[c.status] {
		if allowed == to {
			c.status = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.status, to)
}

// clone copies the continuation under a new id in the Resumed state.
// The continuable and the saved state are deep copied so nothing the resumed
// execution touches is reachable from the stored original.
func (c *Continuation) clone(id string) *Continuation {
	return &Continuation{
		ID:          id,
		ParentID:    c.ID,
		Step:        c.Step,
		State:       cloneState(c.State),
		Continuable: cloneContinuable(c.Continuable),
		Created:     c.Created,
		status:      Resumed,
	}
}
