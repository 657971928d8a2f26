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

// Package config loads the engine configuration.
//
// Sources are read in order and merged, later sources overriding earlier
// ones. Keys are case-insensitive, so a YAML file may say prettyExceptions
// while the environment says ENGINE_GATE_PRETTYEXCEPTIONS:
//
//	cfg, err := config.Load(ctx,
//	    config.WithFile("engine.yaml"),
//	    config.WithEnv("ENGINE_"),
//	)
//
// The merged document is checked against an embedded JSON schema, decoded
// into [Engine] over its defaults and validated with [Engine.Validate].
package config
