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

package engine

import (
	"bytes"
	"net/http"
	"strconv"

	"rivaas.dev/engine/compression"
)

const (
	// DefaultContentType is used when nothing set a content type.
	DefaultContentType = "text/plain; charset=UTF-8"
)

// Response buffers the output of a request until it is closed, so status,
// headers and even a redirect can still change after printing.
// It implements [http.ResponseWriter].
type Response struct {
	w              http.ResponseWriter
	header         http.Header
	status         int
	buf            bytes.Buffer
	contentTypeSet bool
	closed         bool

	compressor     *compression.Compressor
	acceptEncoding string
}

func newResponse(w http.ResponseWriter, compressor *compression.Compressor, acceptEncoding string) *Response {
	return &Response{
		w:              w,
		header:         make(http.Header),
		compressor:     compressor,
		acceptEncoding: acceptEncoding,
	}
}

// Header returns the buffered header map.
func (r *Response) Header() http.Header {
	return r.header
}

// WriteHeader records the status code.
func (r *Response) WriteHeader(status int) {
	r.status = status
}

// Write appends to the buffered body.
func (r *Response) Write(p []byte) (int, error) {
	if r.closed {
		return 0, http.ErrBodyNotAllowed
	}
	return r.buf.Write(p)
}

// WriteString appends s to the buffered body.
func (r *Response) WriteString(s string) (int, error) {
	if r.closed {
		return 0, http.ErrBodyNotAllowed
	}
	return r.buf.WriteString(s)
}

// Status returns the status set so far, 200 if none.
func (r *Response) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// SetContentType sets the Content-Type header.
func (r *Response) SetContentType(contentType string) {
	r.header.Set("Content-Type", contentType)
	r.contentTypeSet = true
}

// ContentType returns the Content-Type set so far.
func (r *Response) ContentType() string {
	return r.header.Get("Content-Type")
}

// IsContentTypeSet reports whether a content type was set explicitly.
func (r *Response) IsContentTypeSet() bool {
	return r.contentTypeSet || r.header.Get("Content-Type") != ""
}

// Len returns the number of buffered body bytes.
func (r *Response) Len() int {
	return r.buf.Len()
}

// Bytes returns the buffered body.
func (r *Response) Bytes() []byte {
	return r.buf.Bytes()
}

// Reset drops the buffered body and status. Headers are kept unless
// clearHeaders is set.
func (r *Response) Reset(clearHeaders bool) {
	r.buf.Reset()
	r.status = 0
	if clearHeaders {
		r.header = make(http.Header)
		r.contentTypeSet = false
	}
}

// Closed reports whether the response was sent.
func (r *Response) Closed() bool {
	return r.closed
}

// Close sends status, headers and the body, compressed when the client
// and content type allow it. Closing twice is a no-op.
func (r *Response) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	if !r.IsContentTypeSet() && r.buf.Len() > 0 {
		r.header.Set("Content-Type", DefaultContentType)
	}
	body := r.buf.Bytes()
	if r.compressor != nil {
		body, _ = r.compressor.Apply(r.header, r.acceptEncoding, body)
	}

	dst := r.w.Header()
	for k, vals := range r.header {
		dst[k] = append(dst[k][:0:0], vals...)
	}
	if len(body) > 0 && dst.Get("Content-Encoding") == "" {
		dst.Set("Content-Length", strconv.Itoa(len(body)))
	}
	r.w.WriteHeader(r.Status())
	if len(body) == 0 {
		return nil
	}
	_, err := r.w.Write(body)
	return err
}

// redirect replaces any buffered output with a redirect and sends it.
func (r *Response) redirect(req *http.Request, url string, status int) {
	r.Reset(false)
	r.closed = true
	dst := r.w.Header()
	for k, vals := range r.header {
		if k == "Content-Type" || k == "Content-Length" {
			continue
		}
		dst[k] = append(dst[k][:0:0], vals...)
	}
	http.Redirect(r.w, req, url, status)
}
