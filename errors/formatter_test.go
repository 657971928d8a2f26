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

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain(t *testing.T) {
	t.Parallel()

	root := &testError{message: "disk full"}
	wrapped := fmt.Errorf("save report: %w", root)
	joined := errors.Join(wrapped, &testError{message: "second"})

	links := Chain(joined)
	require.Len(t, links, 4)
	assert.Equal(t, "errors.joinError", links[0].Type)
	assert.Equal(t, "fmt.wrapError", links[1].Type)
	assert.Equal(t, "save report: disk full", links[1].Message)
	assert.Equal(t, "errors.testError", links[2].Type)
	assert.Equal(t, "disk full", links[2].Message)
	assert.Equal(t, "second", links[3].Message)

	assert.Empty(t, Chain(nil))
}

func TestStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusInternalServerError, Status(&testError{message: "x"}))
	assert.Equal(t, http.StatusConflict, Status(fmt.Errorf("wrap: %w", &testErrorFull{status: http.StatusConflict})))
	assert.Equal(t, http.StatusNotFound, Status(WithStatus(nil, http.StatusNotFound)))
}

func TestWithStatus(t *testing.T) {
	t.Parallel()

	inner := &testError{message: "gone"}
	err := WithStatus(inner, http.StatusGone)
	assert.Equal(t, "gone", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "Not Found", WithStatus(nil, http.StatusNotFound).Error())
}

func TestForContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		wantXML     bool
	}{
		{"", false},
		{"text/html; charset=UTF-8", false},
		{"text/xml", true},
		{"application/xml; charset=utf-8", true},
		{"application/xhtml+xml", true},
		{"application/atom+xml", true},
		{"application/json", false},
	}
	for _, tt := range tests {
		_, isXML := ForContentType(tt.contentType).(*XML)
		assert.Equal(t, tt.wantXML, isXML, tt.contentType)
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	err := Write(w, Response{
		Status:      http.StatusTeapot,
		ContentType: "text/plain",
		Body:        []byte("short and stout"),
		Headers:     http.Header{"X-Reason": {"tea"}},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, "tea", w.Header().Get("X-Reason"))
	assert.Equal(t, "short and stout", w.Body.String())
}

func TestIsTemplateSyntax(t *testing.T) {
	t.Parallel()
	assert.True(t, IsTemplateSyntax(fmt.Errorf("render: %w", &testTemplateError{name: "home"})))
	assert.False(t, IsTemplateSyntax(&testError{message: "x"}))
}
