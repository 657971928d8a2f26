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
	"fmt"
	"slices"
	"time"
)

// Engine is the complete engine configuration.
type Engine struct {
	Gate          Gate          `config:"gate"`
	Continuations Continuations `config:"continuations"`
	Compression   Compression   `config:"compression"`
	Session       Session       `config:"session"`
	Logging       Logging       `config:"logging"`
	Metrics       Metrics       `config:"metrics"`
	Tracing       Tracing       `config:"tracing"`
	Server        Server        `config:"server"`
}

// Gate configures request dispatch.
type Gate struct {
	URL                 string         `config:"url"`
	PrettyExceptions    bool           `config:"prettyexceptions" default:"true"`
	LogExceptions       bool           `config:"logexceptions" default:"true"`
	RedirectStatus      int            `config:"redirectstatus" default:"302"`
	PassThroughSuffixes []string       `config:"passthroughsuffixes"`
	TemplateDir         string         `config:"templatedir"`
	Properties          map[string]any `config:"properties"`
}

// Continuations configures the continuation manager.
type Continuations struct {
	Enabled        bool          `config:"enabled" default:"true"`
	Duration       time.Duration `config:"duration" default:"20m"`
	PurgeFrequency int           `config:"purgefrequency" default:"20"`
	PurgeScale     int           `config:"purgescale" default:"1000"`
	MaxEntries     int           `config:"maxentries" default:"10000"`
	IDGenerator    string        `config:"idgenerator" default:"uuid"`
}

// Compression configures response compression.
type Compression struct {
	Enabled   bool     `config:"enabled" default:"true"`
	MimeTypes []string `config:"mimetypes"`
	GzipLevel int      `config:"gziplevel" default:"-1"`
	Brotli    bool     `config:"brotli" default:"true"`
	MinSize   int      `config:"minsize"`
}

// Session configures the session store.
type Session struct {
	Store      string        `config:"store" default:"none"`
	CookieName string        `config:"cookiename" default:"SESSIONID"`
	TTL        time.Duration `config:"ttl" default:"30m"`
	Secure     bool          `config:"secure"`
	RedisAddr  string        `config:"redisaddr" default:"localhost:6379"`
	BoltPath   string        `config:"boltpath" default:"sessions.db"`
}

// Logging configures the logger.
type Logging struct {
	Level      string `config:"level" default:"info"`
	Format     string `config:"format" default:"json"`
	File       string `config:"file"`
	MaxSizeMB  int    `config:"maxsizemb" default:"100"`
	MaxBackups int    `config:"maxbackups" default:"3"`
	MaxAgeDays int    `config:"maxagedays" default:"28"`

	// AccessLog enables one log record per request served by the app.
	AccessLog           bool          `config:"accesslog"`
	AccessLogErrorsOnly bool          `config:"accesslogerrorsonly"`
	AccessLogSlow       time.Duration `config:"accesslogslow"`
	AccessLogSampleRate float64       `config:"accesslogsamplerate" default:"1"`
}

// Metrics configures the metrics exporter.
type Metrics struct {
	Provider    string `config:"provider" default:"none"`
	Endpoint    string `config:"endpoint"`
	Path        string `config:"path" default:"/metrics"`
	ServiceName string `config:"servicename" default:"engine"`
}

// Tracing configures the span exporter.
type Tracing struct {
	Provider    string  `config:"provider" default:"none"`
	Endpoint    string  `config:"endpoint"`
	Insecure    bool    `config:"insecure"`
	SampleRate  float64 `config:"samplerate" default:"1"`
	ServiceName string  `config:"servicename" default:"engine"`
}

// Server configures the HTTP server of the app.
type Server struct {
	Addr              string        `config:"addr" default:":8080"`
	H2C               bool          `config:"h2c"`
	ReadHeaderTimeout time.Duration `config:"readheadertimeout" default:"10s"`
	ShutdownTimeout   time.Duration `config:"shutdowntimeout" default:"15s"`
}

// ProviderNone disables an optional component.
const ProviderNone = "none"

// Allowed values of the enumerated settings.
var (
	IDGenerators     = []string{"uuid", "ulid"}
	SessionStores    = []string{"none", "memory", "redis", "bolt"}
	LogFormats       = []string{"json", "text", "console"}
	MetricsProviders = []string{"none", "prometheus", "otlp", "stdout"}
	TracingProviders = []string{"none", "stdout", "otlp", "otlp-http"}
)

// Default returns the configuration used when no source sets anything.
func Default() *Engine {
	e := &Engine{}
	if err := applyDefaults(e); err != nil {
		panic("config: " + err.Error())
	}
	return e
}

// Validate checks ranges and cross-field constraints.
func (e *Engine) Validate() error {
	c := e.Continuations
	switch {
	case c.Duration <= 0:
		return fmt.Errorf("%w: continuations.duration must be positive", ErrInvalid)
	case c.PurgeFrequency <= 0 || c.PurgeScale <= 0 || c.PurgeFrequency > c.PurgeScale:
		return fmt.Errorf("%w: continuations.purgefrequency must be in 1..purgescale", ErrInvalid)
	case c.MaxEntries < 0:
		return fmt.Errorf("%w: continuations.maxentries must not be negative", ErrInvalid)
	case !slices.Contains(IDGenerators, c.IDGenerator):
		return fmt.Errorf("%w: continuations.idgenerator %q", ErrInvalid, c.IDGenerator)
	}
	if s := e.Gate.RedirectStatus; s < 300 || s > 399 {
		return fmt.Errorf("%w: gate.redirectstatus %d is not a redirect", ErrInvalid, s)
	}
	if l := e.Compression.GzipLevel; l < -2 || l > 9 {
		return fmt.Errorf("%w: compression.gziplevel %d", ErrInvalid, l)
	}
	if !slices.Contains(SessionStores, e.Session.Store) {
		return fmt.Errorf("%w: session.store %q", ErrInvalid, e.Session.Store)
	}
	if !slices.Contains(LogFormats, e.Logging.Format) {
		return fmt.Errorf("%w: logging.format %q", ErrInvalid, e.Logging.Format)
	}
	if !slices.Contains(MetricsProviders, e.Metrics.Provider) {
		return fmt.Errorf("%w: metrics.provider %q", ErrInvalid, e.Metrics.Provider)
	}
	if !slices.Contains(TracingProviders, e.Tracing.Provider) {
		return fmt.Errorf("%w: tracing.provider %q", ErrInvalid, e.Tracing.Provider)
	}
	if r := e.Logging.AccessLogSampleRate; r < 0 || r > 1 {
		return fmt.Errorf("%w: logging.accesslogsamplerate %v", ErrInvalid, r)
	}
	if r := e.Tracing.SampleRate; r < 0 || r > 1 {
		return fmt.Errorf("%w: tracing.samplerate %v", ErrInvalid, r)
	}
	return nil
}
