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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"

	"rivaas.dev/engine/config/codec"
	"rivaas.dev/engine/config/source"
)

// Source provides one raw configuration document.
type Source interface {
	Load(ctx context.Context) (map[string]any, error)
}

// Option configures [Load].
type Option func(*loader) error

type loader struct {
	sources    []Source
	validators []func(map[string]any) error
}

// WithSource adds a source. Later sources override earlier ones.
func WithSource(src Source) Option {
	return func(l *loader) error {
		if src == nil {
			return ErrNilSource
		}
		l.sources = append(l.sources, src)
		return nil
	}
}

// WithFile adds a file source; the format follows the extension. The path
// may reference environment variables.
//
// Example:
//
//	cfg, err := config.Load(ctx, config.WithFile("${CONFIG_DIR}/engine.yaml"))
func WithFile(path string) Option {
	return func(l *loader) error {
		f, err := source.NewFile(path)
		if err != nil {
			return newError("file "+path, "open", err)
		}
		l.sources = append(l.sources, f)
		return nil
	}
}

// WithFileAs is like [WithFile] with an explicit format.
func WithFileAs(path string, t codec.Type) Option {
	return func(l *loader) error {
		f, err := source.NewFileAs(path, t)
		if err != nil {
			return newError("file "+path, "open", err)
		}
		l.sources = append(l.sources, f)
		return nil
	}
}

// WithContent adds an in-memory document.
func WithContent(data []byte, t codec.Type) Option {
	return func(l *loader) error {
		f, err := source.NewContent(data, t)
		if err != nil {
			return newError("content", "open", err)
		}
		l.sources = append(l.sources, f)
		return nil
	}
}

// WithEnv adds the environment variables starting with prefix.
func WithEnv(prefix string) Option {
	return WithSource(source.NewEnv(prefix))
}

// WithMap adds a fixed map, for flags and tests.
func WithMap(m map[string]any) Option {
	return WithSource(source.Map(m))
}

// WithConsul adds the document stored under key in Consul. A nil kv uses
// the client configured by the CONSUL_HTTP_ADDR environment.
func WithConsul(kv source.ConsulKV, key string, t codec.Type) Option {
	return func(l *loader) error {
		c, err := source.NewConsul(kv, key, t)
		if err != nil {
			return newError("consul "+key, "open", err)
		}
		l.sources = append(l.sources, c)
		return nil
	}
}

// WithValidator adds a check run on the merged document before decoding.
func WithValidator(fn func(map[string]any) error) Option {
	return func(l *loader) error {
		if fn != nil {
			l.validators = append(l.validators, fn)
		}
		return nil
	}
}

// Load reads, merges, checks and decodes the configured sources. Without
// sources it returns [Default].
func Load(ctx context.Context, opts ...Option) (*Engine, error) {
	l := &loader{}
	var errs error
	for _, opt := range opts {
		if opt != nil {
			errs = errors.Join(errs, opt(l))
		}
	}
	if errs != nil {
		return nil, errs
	}

	merged, err := l.merge(ctx)
	if err != nil {
		return nil, err
	}
	schema, err := engineSchema()
	if err != nil {
		return nil, newError("schema", "compile", err)
	}
	if err := schema.Validate(merged); err != nil {
		return nil, newError("schema", "validate", err)
	}
	for i, fn := range l.validators {
		if err := fn(merged); err != nil {
			return nil, newError(fmt.Sprintf("validator[%d]", i), "validate", err)
		}
	}

	e := Default()
	if err := decode(merged, e); err != nil {
		return nil, newError("engine", "decode", err)
	}
	if err := e.Validate(); err != nil {
		return nil, newError("engine", "validate", err)
	}
	return e, nil
}

// MustLoad is like [Load] but panics on error.
func MustLoad(ctx context.Context, opts ...Option) *Engine {
	e, err := Load(ctx, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func (l *loader) merge(ctx context.Context) (map[string]any, error) {
	merged := make(map[string]any)
	for i, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := src.Load(ctx)
		if err != nil {
			return nil, newError(fmt.Sprintf("source[%d]", i), "load", err)
		}
		if err := mergo.Map(&merged, normalizeKeys(m), mergo.WithOverride); err != nil {
			return nil, newError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}
	return merged, nil
}

// normalizeKeys returns a deep copy of m with lower case keys.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeKeys(nested)
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

func decode(in map[string]any, out *Engine) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		WeaklyTypedInput: true,
		ErrorUnused:      false,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
