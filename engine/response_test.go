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

package engine

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/engine/compression"
)

func TestResponseBuffersUntilClose(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := newResponse(w, nil, "")
	r.Header().Set("X-One", "1")
	r.WriteHeader(http.StatusAccepted)
	_, err := r.WriteString("body")
	require.NoError(t, err)

	assert.Zero(t, w.Body.Len())
	assert.Empty(t, w.Header())
	assert.Equal(t, http.StatusAccepted, r.Status())
	assert.Equal(t, 4, r.Len())

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.True(t, r.Closed())
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "body", w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-One"))
	assert.Equal(t, DefaultContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "4", w.Header().Get("Content-Length"))

	_, err = r.Write([]byte("late"))
	require.Error(t, err)
}

func TestResponseReset(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := newResponse(w, nil, "")
	r.SetContentType("application/json")
	r.WriteHeader(http.StatusTeapot)
	r.WriteString("{}")

	r.Reset(false)
	assert.Zero(t, r.Len())
	assert.Equal(t, http.StatusOK, r.Status())
	assert.Equal(t, "application/json", r.ContentType())

	r.Reset(true)
	assert.False(t, r.IsContentTypeSet())
	require.NoError(t, r.Close())
	assert.Empty(t, w.Header().Get("Content-Type"), "an empty body gets no default type")
}

func TestResponseSkipsSmallBodies(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := newResponse(w, compression.New(compression.WithMinSize(1024)), "gzip")
	r.WriteString("tiny")
	require.NoError(t, r.Close())
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "tiny", w.Body.String())
}
