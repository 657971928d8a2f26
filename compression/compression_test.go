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

//go:build !integration

package compression

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		accept string
		opts   []Option
		want   string
	}{
		{"empty", "", nil, Identity},
		{"gzip only", "gzip", nil, Gzip},
		{"brotli preferred on tie", "gzip, br", nil, Brotli},
		{"gzip wins by quality", "br;q=0.5, gzip;q=0.8", nil, Gzip},
		{"brotli disabled", "br, gzip", []Option{WithBrotliDisabled()}, Gzip},
		{"explicitly refused", "gzip;q=0, br;q=0", nil, Identity},
		{"wildcard", "*", nil, Brotli},
		{"wildcard with gzip refused", "gzip;q=0, *;q=0.3", []Option{WithBrotliDisabled()}, Identity},
		{"unknown only", "deflate", nil, Identity},
		{"case insensitive", "GZIP", nil, Gzip},
		{"bad q value counts as 1", "gzip;q=abc", nil, Gzip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, New(tt.opts...).Negotiate(tt.accept))
		})
	}
}

func TestAllowed(t *testing.T) {
	t.Parallel()
	c := New()

	assert.True(t, c.Allowed("text/html; charset=UTF-8"))
	assert.True(t, c.Allowed("image/svg+xml"))
	assert.True(t, c.Allowed("Text/Plain"))
	assert.False(t, c.Allowed("application/json"))
	assert.False(t, c.Allowed("image/png"))
	assert.False(t, c.Allowed(""))

	custom := New(WithMimeTypes("application/json"))
	assert.True(t, custom.Allowed("application/json"))
	assert.False(t, custom.Allowed("text/html"))
}

func TestApplyGzip(t *testing.T) {
	t.Parallel()
	c := New()
	body := []byte(strings.Repeat("hello world ", 100))

	h := http.Header{}
	h.Set("Content-Type", "text/plain")
	h.Set("Content-Length", "1200")
	out, enc := c.Apply(h, "gzip", body)

	require.Equal(t, Gzip, enc)
	assert.Equal(t, Gzip, h.Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", h.Get("Vary"))
	assert.Empty(t, h.Get("Content-Length"))
	assert.Less(t, len(out), len(body))

	zr, err := gzip.NewReader(bytes.NewReader(out))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, body, plain)
}

func TestApplyBrotli(t *testing.T) {
	t.Parallel()
	c := New()
	body := []byte(strings.Repeat("<p>paragraph</p>", 50))

	h := http.Header{}
	h.Set("Content-Type", "text/html; charset=UTF-8")
	out, enc := c.Apply(h, "br", body)
	require.Equal(t, Brotli, enc)

	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(out)))
	require.NoError(t, err)
	assert.Equal(t, body, plain)
}

func TestApplySkips(t *testing.T) {
	t.Parallel()
	body := []byte("some body text")

	t.Run("content type not allowed", func(t *testing.T) {
		t.Parallel()
		h := http.Header{"Content-Type": {"application/octet-stream"}}
		out, enc := New().Apply(h, "gzip", body)
		assert.Equal(t, Identity, enc)
		assert.Equal(t, body, out)
		assert.Empty(t, h.Get("Content-Encoding"))
	})

	t.Run("below min size", func(t *testing.T) {
		t.Parallel()
		h := http.Header{"Content-Type": {"text/plain"}}
		_, enc := New(WithMinSize(1024)).Apply(h, "gzip", body)
		assert.Equal(t, Identity, enc)
	})

	t.Run("already encoded", func(t *testing.T) {
		t.Parallel()
		h := http.Header{"Content-Type": {"text/plain"}, "Content-Encoding": {"deflate"}}
		_, enc := New().Apply(h, "gzip", body)
		assert.Equal(t, Identity, enc)
		assert.Equal(t, "deflate", h.Get("Content-Encoding"))
	})

	t.Run("client refuses", func(t *testing.T) {
		t.Parallel()
		h := http.Header{"Content-Type": {"text/plain"}}
		_, enc := New().Apply(h, "identity", body)
		assert.Equal(t, Identity, enc)
		assert.Equal(t, "Accept-Encoding", h.Get("Vary"), "vary is set whenever the type is compressible")
	})
}

func TestEncodeUnsupported(t *testing.T) {
	t.Parallel()
	err := New().Encode(io.Discard, "zstd", []byte("x"))
	require.ErrorIs(t, err, ErrUnsupportedEncoding)
}

func TestEncodeReusesPooledWriters(t *testing.T) {
	t.Parallel()
	c := New(WithGzipLevel(gzip.BestSpeed))
	for i := range 5 {
		var buf bytes.Buffer
		payload := []byte(strings.Repeat("x", i*100+1))
		require.NoError(t, c.Encode(&buf, Gzip, payload))
		zr, err := gzip.NewReader(&buf)
		require.NoError(t, err)
		got, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	}
}
