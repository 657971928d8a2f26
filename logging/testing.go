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

package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// LogEntry is a parsed JSON record.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   map[string]any
}

// NewTestLogger returns a debug level JSON logger writing to the returned
// buffer.
func NewTestLogger(opts ...Option) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	all := append([]Option{WithJSONHandler(), WithOutput(buf), WithLevel(LevelDebug)}, opts...)
	return MustNew(all...), buf
}

// ParseJSONLogEntries parses the JSON records in buf without consuming it.
func ParseJSONLogEntries(buf *bytes.Buffer) ([]LogEntry, error) {
	var entries []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		var raw map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			return nil, fmt.Errorf("parse log line: %w", err)
		}
		e := LogEntry{Attrs: make(map[string]any)}
		for k, v := range raw {
			switch k {
			case "time":
				if s, ok := v.(string); ok {
					e.Time, _ = time.Parse(time.RFC3339Nano, s)
				}
			case "level":
				e.Level, _ = v.(string)
			case "msg":
				e.Message, _ = v.(string)
			default:
				e.Attrs[k] = v
			}
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
