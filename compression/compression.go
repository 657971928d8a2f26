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

package compression

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// Encoding names as used in Accept-Encoding and Content-Encoding.
const (
	Gzip     = "gzip"
	Brotli   = "br"
	Identity = ""
)

// DefaultMimeTypes are the content types compressed by default.
var DefaultMimeTypes = []string{
	"text/html",
	"text/xml",
	"text/plain",
	"text/css",
	"text/javascript",
	"application/xml",
	"application/xhtml+xml",
	"image/svg+xml",
}

// Option configures a [Compressor].
type Option func(*Compressor)

// WithGzipLevel sets the gzip level (-1 default, 1 fastest .. 9 best).
func WithGzipLevel(level int) Option {
	return func(c *Compressor) {
		c.gzipLevel = level
	}
}

// WithBrotliLevel sets the brotli level (0-11).
// For dynamic content keep it at 4-5; higher levels are CPU-expensive.
func WithBrotliLevel(level int) Option {
	return func(c *Compressor) {
		c.brotliLevel = level
	}
}

// WithBrotliDisabled restricts compression to gzip.
func WithBrotliDisabled() Option {
	return func(c *Compressor) {
		c.enableBrotli = false
	}
}

// WithMinSize sets the smallest body worth compressing.
func WithMinSize(n int) Option {
	return func(c *Compressor) {
		c.minSize = n
	}
}

// WithMimeTypes replaces the content type allowlist.
func WithMimeTypes(types ...string) Option {
	return func(c *Compressor) {
		c.mimeTypes = make(map[string]bool, len(types))
		for _, t := range types {
			c.mimeTypes[strings.ToLower(strings.TrimSpace(t))] = true
		}
	}
}

// WithLogger sets the logger for encoder failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compressor) {
		c.logger = logger
	}
}

// Compressor decides on and performs response compression.
// It is safe for concurrent use.
type Compressor struct {
	gzipLevel    int
	brotliLevel  int
	enableBrotli bool
	minSize      int
	mimeTypes    map[string]bool
	logger       *slog.Logger
}

// New creates a compressor with the default allowlist.
func New(opts ...Option) *Compressor {
	c := &Compressor{
		gzipLevel:    gzip.DefaultCompression,
		brotliLevel:  4,
		enableBrotli: true,
	}
	WithMimeTypes(DefaultMimeTypes...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Allowed reports whether contentType is on the allowlist. Parameters such
// as charset are ignored.
func (c *Compressor) Allowed(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	return c.mimeTypes[strings.ToLower(mt)]
}

// Negotiate picks the encoding for an Accept-Encoding header value.
// It returns [Identity] when nothing acceptable is offered.
func (c *Compressor) Negotiate(acceptEncoding string) string {
	if acceptEncoding == "" {
		return Identity
	}
	ae := strings.ToLower(acceptEncoding)

	brQ := parseQValue(ae, Brotli)
	gzipQ := parseQValue(ae, Gzip)
	if star := parseQValue(ae, "*"); star > 0 {
		if brQ < 0 {
			brQ = star
		}
		if gzipQ < 0 {
			gzipQ = star
		}
	}

	if c.enableBrotli && brQ > 0 && brQ >= gzipQ {
		return Brotli
	}
	if gzipQ > 0 {
		return Gzip
	}
	return Identity
}

// parseQValue returns -1 if the coding is absent, 0 for q=0, or its quality.
func parseQValue(accept, coding string) float64 {
	for part := range strings.SplitSeq(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(name) != coding {
			continue
		}
		for p := range strings.SplitSeq(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || strings.TrimSpace(k) != "q" {
				continue
			}
			q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return 1.0
			}
			return q
		}
		return 1.0
	}
	return -1
}

// Encode writes body to w using encoding.
func (c *Compressor) Encode(w io.Writer, encoding string, body []byte) error {
	switch encoding {
	case Gzip:
		pool := gzipPool(c.gzipLevel)
		gw := pool.Get().(*gzip.Writer)
		defer pool.Put(gw)
		gw.Reset(w)
		if _, err := gw.Write(body); err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
		return gw.Close()
	case Brotli:
		pool := brotliPool(c.brotliLevel)
		bw := pool.Get().(*brotli.Writer)
		defer pool.Put(bw)
		bw.Reset(w)
		if _, err := bw.Write(body); err != nil {
			return fmt.Errorf("brotli: %w", err)
		}
		return bw.Close()
	case Identity:
		_, err := w.Write(body)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}
}

// Apply compresses body when the request and response qualify. It updates
// Content-Encoding, Vary and Content-Length in h and returns the body to
// send together with the chosen encoding.
func (c *Compressor) Apply(h http.Header, acceptEncoding string, body []byte) ([]byte, string) {
	if len(body) < c.minSize || len(body) == 0 || h.Get("Content-Encoding") != "" || !c.Allowed(h.Get("Content-Type")) {
		return body, Identity
	}
	h.Add("Vary", "Accept-Encoding")

	encoding := c.Negotiate(acceptEncoding)
	if encoding == Identity {
		return body, Identity
	}

	var buf bytes.Buffer
	if err := c.Encode(&buf, encoding, body); err != nil {
		if c.logger != nil {
			c.logger.Error("compression failed, sending identity", "encoding", encoding, "error", err)
		}
		return body, Identity
	}
	h.Set("Content-Encoding", encoding)
	h.Del("Content-Length")
	return buf.Bytes(), encoding
}

var (
	gzipWriterPools   = make(map[int]*sync.Pool)
	brotliWriterPools = make(map[int]*sync.Pool)
	poolsMutex        sync.RWMutex
)

func gzipPool(level int) *sync.Pool {
	return pooled(gzipWriterPools, level, func() any {
		w, err := gzip.NewWriterLevel(io.Discard, level)
		if err != nil {
			w = gzip.NewWriter(io.Discard)
		}
		return w
	})
}

func brotliPool(level int) *sync.Pool {
	return pooled(brotliWriterPools, level, func() any {
		return brotli.NewWriterLevel(io.Discard, level)
	})
}

func pooled(pools map[int]*sync.Pool, level int, newFn func() any) *sync.Pool {
	poolsMutex.RLock()
	pool, ok := pools[level]
	poolsMutex.RUnlock()
	if ok {
		return pool
	}

	poolsMutex.Lock()
	defer poolsMutex.Unlock()
	if pool, ok := pools[level]; ok {
		return pool
	}
	pool = &sync.Pool{New: newFn}
	pools[level] = pool
	return pool
}
