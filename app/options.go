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
	"io"
	"io/fs"
	"net/http"

	"rivaas.dev/engine/logging"
)

// Option configures an [App].
type Option func(*App)

// WithLogging uses logger instead of one built from the logging section.
func WithLogging(logger *logging.Logger) Option {
	return func(a *App) {
		a.logging = logger
	}
}

// WithServiceVersion is reported by the banner, logs and telemetry resources.
func WithServiceVersion(version string) Option {
	return func(a *App) {
		a.serviceVersion = version
	}
}

// WithTemplateFS loads templates from fsys. It takes precedence over
// gate.templateDir.
func WithTemplateFS(fsys fs.FS) Option {
	return func(a *App) {
		a.templateFS = fsys
	}
}

// WithStatic serves files from fsys for requests no route handles.
func WithStatic(fsys fs.FS) Option {
	return func(a *App) {
		a.notFound = http.FileServerFS(fsys)
	}
}

// WithNotFound handles requests no route handles. The default is http.NotFound.
func WithNotFound(h http.Handler) Option {
	return func(a *App) {
		a.notFound = h
	}
}

// WithBannerOutput sets where [App.Run] prints the startup banner.
// Nil disables the banner.
func WithBannerOutput(w io.Writer) Option {
	return func(a *App) {
		a.bannerOut = w
	}
}
