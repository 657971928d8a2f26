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

package engine

import (
	"errors"
	"net/http"
)

// signal is the type of the pipeline control values. They travel as errors
// so elements can return them, but they never reach the exception handling.
type signal string

func (s signal) Error() string {
	return "engine signal: " + string(s)
}

// Control signals. Match them with errors.Is.
var (
	// SignalNext stops the current route and continues with the rest of the pipeline.
	SignalNext error = signal("next")
	// SignalRespond stops the pipeline and sends what has been written.
	SignalRespond error = signal("respond")
	// SignalPause stops the pipeline after a continuation has been registered.
	SignalPause error = signal("pause")
	// SignalRedirect stops the pipeline and sends a redirect.
	SignalRedirect error = signal("redirect")
	// SignalDefer stops the pipeline and leaves the request unhandled.
	SignalDefer error = signal("defer")
)

// RedirectSignal is returned by [Context.Redirect]. It matches [SignalRedirect].
type RedirectSignal struct {
	URL    string
	Status int
}

func (r *RedirectSignal) Error() string {
	return "engine signal: redirect to " + r.URL
}

// Is reports whether target is [SignalRedirect].
func (r *RedirectSignal) Is(target error) bool {
	return target == SignalRedirect
}

func newRedirect(url string, status int) *RedirectSignal {
	if status == 0 {
		status = http.StatusFound
	}
	return &RedirectSignal{URL: url, Status: status}
}

// IsSignal reports whether err is one of the control signals.
func IsSignal(err error) bool {
	var s signal
	if errors.As(err, &s) {
		return true
	}
	return errors.Is(err, SignalRedirect)
}

// Outcome summarizes how a request left the gate.
type Outcome string

// Outcomes reported to observers and tracers.
const (
	OutcomeCompleted   Outcome = "completed"
	OutcomePaused      Outcome = "paused"
	OutcomeRedirected  Outcome = "redirected"
	OutcomeDeferred    Outcome = "deferred"
	OutcomeUnhandled   Outcome = "unhandled"
	OutcomePassThrough Outcome = "passthrough"
	OutcomeError       Outcome = "error"
)

func outcomeOf(err error) Outcome {
	switch {
	case err == nil, errors.Is(err, SignalRespond), errors.Is(err, SignalNext):
		return OutcomeCompleted
	case errors.Is(err, SignalPause):
		return OutcomePaused
	case errors.Is(err, SignalRedirect):
		return OutcomeRedirected
	case errors.Is(err, SignalDefer):
		return OutcomeDeferred
	default:
		return OutcomeError
	}
}
