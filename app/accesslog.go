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
	"crypto/sha256"
	"encoding/binary"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"rivaas.dev/engine/config"
	"rivaas.dev/engine/telemetry/semconv"
)

// accessLog returns a middleware writing one record per request. Server
// errors are logged at error level; client errors and slow requests at warn
// level. Other requests are sampled by request id.
func accessLog(cfg config.Logging, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			slow := cfg.AccessLogSlow > 0 && elapsed >= cfg.AccessLogSlow
			if status < 400 && !slow {
				if cfg.AccessLogErrorsOnly {
					return
				}
				if !sampled(middleware.GetReqID(r.Context()), cfg.AccessLogSampleRate) {
					return
				}
			}

			attrs := []any{
				semconv.HTTPRequestMethod, r.Method,
				semconv.URLPath, r.URL.Path,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"bytes_sent", ww.BytesWritten(),
				"client_ip", r.RemoteAddr,
				"proto", r.Proto,
			}
			if id := middleware.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if slow {
				attrs = append(attrs, "slow", true)
			}

			switch {
			case status >= 500:
				logger.Error("access", attrs...)
			case status >= 400 || slow:
				logger.Warn("access", attrs...)
			default:
				logger.Info("access", attrs...)
			}
		})
	}
}

// sampled keeps a stable fraction of request ids. Requests without an id
// are always kept.
func sampled(id string, rate float64) bool {
	if rate >= 1 || id == "" {
		return true
	}
	if rate <= 0 {
		return false
	}
	h := sha256.Sum256([]byte(id))
	return binary.BigEndian.Uint64(h[:8]) <= uint64(rate*float64(^uint64(0)))
}
