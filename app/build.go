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

package app

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"rivaas.dev/engine/compression"
	"rivaas.dev/engine/config"
	"rivaas.dev/engine/continuations"
	"rivaas.dev/engine/engine"
	"rivaas.dev/engine/logging"
	"rivaas.dev/engine/metrics"
	"rivaas.dev/engine/session"
	"rivaas.dev/engine/template"
	"rivaas.dev/engine/tracing"
)

const redisKeyPrefix = "engine:session:"

func (a *App) serviceName() string {
	return a.cfg.Metrics.ServiceName
}

func (a *App) buildLogging() error {
	if a.logging == nil {
		l, err := newLogger(a.cfg.Logging, a.serviceName(), a.serviceVersion)
		if err != nil {
			return err
		}
		a.logging = l
	}
	a.logger = a.logging.Logger()
	return nil
}

func newLogger(cfg config.Logging, service, version string) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := []logging.Option{
		logging.WithHandlerType(logging.HandlerType(cfg.Format)),
		logging.WithLevel(level),
		logging.WithServiceName(service),
		logging.WithServiceVersion(version),
	}
	if cfg.File != "" {
		opts = append(opts, logging.WithFileRotation(cfg.File, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays))
	} else {
		opts = append(opts, logging.WithOutput(os.Stderr))
	}
	return logging.New(opts...)
}

func (a *App) buildMetrics() error {
	cfg := a.cfg.Metrics
	opts := []metrics.Option{
		metrics.WithServiceName(cfg.ServiceName),
		metrics.WithServiceVersion(a.serviceVersion),
		metrics.WithLogger(a.logging.Component("metrics")),
	}
	switch cfg.Provider {
	case config.ProviderNone:
		return nil
	case "prometheus":
		opts = append(opts, metrics.WithPrometheus())
	case "otlp":
		opts = append(opts, metrics.WithOTLP(cfg.Endpoint))
	case "stdout":
		opts = append(opts, metrics.WithStdout())
	default:
		return fmt.Errorf("unknown metrics provider %q", cfg.Provider)
	}
	rec, err := metrics.New(opts...)
	if err != nil {
		return err
	}
	a.metrics = rec
	return nil
}

func (a *App) buildTracing() error {
	cfg := a.cfg.Tracing
	opts := []tracing.Option{
		tracing.WithServiceName(cfg.ServiceName),
		tracing.WithServiceVersion(a.serviceVersion),
		tracing.WithSampleRate(cfg.SampleRate),
		tracing.WithLogger(a.logging.Component("tracing")),
	}
	switch cfg.Provider {
	case config.ProviderNone:
		return nil
	case "stdout":
		opts = append(opts, tracing.WithStdout())
	case "otlp":
		var otlpOpts []tracing.OTLPOption
		if cfg.Insecure {
			otlpOpts = append(otlpOpts, tracing.OTLPInsecure())
		}
		opts = append(opts, tracing.WithOTLP(cfg.Endpoint, otlpOpts...))
	case "otlp-http":
		opts = append(opts, tracing.WithOTLPHTTP(cfg.Endpoint))
	default:
		return fmt.Errorf("unknown tracing provider %q", cfg.Provider)
	}
	tr, err := tracing.New(opts...)
	if err != nil {
		return err
	}
	a.tracing = tr
	return nil
}

func (a *App) buildManager() error {
	cfg := a.cfg.Continuations
	if !cfg.Enabled {
		return nil
	}
	opts := []continuations.Option{
		continuations.WithDuration(cfg.Duration),
		continuations.WithPurgeFrequency(cfg.PurgeFrequency),
		continuations.WithPurgeScale(cfg.PurgeScale),
		continuations.WithMaxEntries(cfg.MaxEntries),
		continuations.WithLogger(a.logging.Component("continuations")),
	}
	if cfg.IDGenerator == "ulid" {
		opts = append(opts, continuations.WithIDGenerator(continuations.NewULIDGenerator()))
	}
	if a.metrics != nil {
		opts = append(opts, continuations.WithObserver(a.metrics))
	}
	m, err := continuations.NewManager(opts...)
	if err != nil {
		return err
	}
	a.manager = m
	if a.metrics != nil {
		return a.metrics.ObserveContinuations(m)
	}
	return nil
}

func (a *App) buildSessions() error {
	cfg := a.cfg.Session
	var store session.Store
	switch cfg.Store {
	case config.ProviderNone:
		return nil
	case "memory":
		mem := session.NewMemoryStore()
		a.sweep = func() (int, error) { return mem.Sweep(), nil }
		store = mem
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		store = session.NewRedisStore(client, redisKeyPrefix)
	case "bolt":
		bolt, err := session.OpenBoltStore(cfg.BoltPath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, bolt.Close)
		a.sweep = bolt.Sweep
		store = bolt
	default:
		return fmt.Errorf("unknown session store %q", cfg.Store)
	}
	m, err := session.NewManager(store,
		session.WithCookieName(cfg.CookieName),
		session.WithTTL(cfg.TTL),
		session.WithSecureCookie(cfg.Secure),
		session.WithLogger(a.logging.Component("session")),
	)
	if err != nil {
		return err
	}
	a.sessions = m
	return nil
}

func (a *App) templates() template.Factory {
	switch {
	case a.templateFS != nil:
		return template.NewHTMLFactory(a.templateFS)
	case a.cfg.Gate.TemplateDir != "":
		return template.NewHTMLFactory(os.DirFS(a.cfg.Gate.TemplateDir))
	default:
		return nil
	}
}

func (a *App) compressor() *compression.Compressor {
	cfg := a.cfg.Compression
	if !cfg.Enabled {
		return nil
	}
	opts := []compression.Option{
		compression.WithGzipLevel(cfg.GzipLevel),
		compression.WithMinSize(cfg.MinSize),
		compression.WithLogger(a.logging.Component("compression")),
	}
	if len(cfg.MimeTypes) > 0 {
		opts = append(opts, compression.WithMimeTypes(cfg.MimeTypes...))
	}
	if !cfg.Brotli {
		opts = append(opts, compression.WithBrotliDisabled())
	}
	return compression.New(opts...)
}

func (a *App) buildGate() error {
	cfg := a.cfg.Gate
	opts := []engine.GateOption{
		engine.WithLogger(a.logging.Component("gate")),
		engine.WithManager(a.manager),
		engine.WithPrettyExceptions(cfg.PrettyExceptions),
		engine.WithLogExceptions(cfg.LogExceptions),
		engine.WithRedirectStatus(cfg.RedirectStatus),
		engine.WithGateURL(cfg.URL),
	}
	if len(cfg.PassThroughSuffixes) > 0 {
		opts = append(opts, engine.WithPassThroughSuffixes(cfg.PassThroughSuffixes...))
	}
	if len(cfg.Properties) > 0 {
		opts = append(opts, engine.WithProperties(cfg.Properties))
	}
	if a.sessions != nil {
		opts = append(opts, engine.WithSessions(a.sessions))
	}
	if f := a.templates(); f != nil {
		opts = append(opts, engine.WithTemplates(f))
	}
	if c := a.compressor(); c != nil {
		opts = append(opts, engine.WithCompressor(c))
	}
	if a.metrics != nil {
		opts = append(opts, engine.WithObserver(a.metrics))
	}
	if a.tracing != nil {
		opts = append(opts, engine.WithTracer(a.tracing))
	}
	g, err := engine.NewGate(a.site, opts...)
	if err != nil {
		return err
	}
	a.gate = g
	return nil
}
