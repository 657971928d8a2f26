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

// Package compression negotiates and applies response compression.
//
// The engine buffers a response body until the request completes and then
// asks a [Compressor] whether and how to encode it. Compression happens when
// all of these hold:
//
//   - the client accepts gzip or br in Accept-Encoding (q-values honoured,
//     brotli preferred on a tie)
//   - the content type is on the allowlist (text/html, text/xml, text/plain,
//     text/css, text/javascript, application/xml, application/xhtml+xml and
//     image/svg+xml by default)
//   - the body reaches the minimum size
//   - no Content-Encoding is set yet
//
// Gzip is provided by github.com/klauspost/compress/gzip and brotli by
// github.com/andybalholm/brotli. Encoders are pooled per level.
//
// Example:
//
//	c := compression.New(compression.WithMinSize(256))
//	body, encoding := c.Apply(w.Header(), r.Header.Get("Accept-Encoding"), body)
package compression
