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

// Package continuations keeps suspended element executions between requests.
//
// A handler that wants to span several requests is written as an explicit
// sequence of steps. When it pauses, the engine stores a [Continuation]
// holding the element instance (the continuable), the step to re-enter and
// whatever state the element saved. The continuation id is handed to the
// client; a later request that presents it resumes the element at that step
// instead of creating a fresh one.
//
// # Manager
//
// [Manager] is the process-wide registry. It is safe for concurrent use and
// bounds its size two ways:
//
//   - Time to live: a continuation older than the configured duration is
//     expired. Expired entries are never returned and are purged
//     periodically, every PurgeScale/PurgeFrequency additions.
//   - Maximum entries: when the registry grows past MaxEntries the least
//     recently used continuations are evicted.
//
// Resuming never removes the stored continuation. [Manager.Resume] returns
// a deep copy under a fresh id, so the same id can be resumed again (for
// example after the user pressed the back button) and concurrent resumes
// never share state. Values can take over their copy with [Cloner] or a
// Clone method returning their own type.
//
// # Example
//
//	mgr := continuations.MustNewManager(
//	    continuations.WithDuration(10*time.Minute),
//	    continuations.WithMaxEntries(5000),
//	)
//
//	c := continuations.New(mgr.NewID(), element)
//	c.Step = "confirm"
//	mgr.Add(c)
//
//	if resumed, ok := mgr.Resume(c.ID); ok {
//	    // resumed.Step == "confirm", resumed.ID != c.ID
//	}
package continuations
