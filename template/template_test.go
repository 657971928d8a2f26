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

package template

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLFactory(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"hello.html":  {Data: []byte(`Hello {{.name}}{{with .note}} ({{.}}){{end}}`)},
		"broken.html": {Data: []byte(`{{if}}`)},
	}
	f := NewHTMLFactory(fsys)

	t.Run("renders durable and generated values", func(t *testing.T) {
		t.Parallel()
		tpl, err := f.Get("hello")
		require.NoError(t, err)
		tpl.Set("name", "<world>")
		tpl.SetGenerated("note", "now")

		var sb strings.Builder
		require.NoError(t, tpl.Render(&sb))
		assert.Equal(t, "Hello &lt;world&gt; (now)", sb.String())
		assert.Equal(t, DefaultContentType, tpl.DefaultContentType())
	})

	t.Run("every get returns fresh values", func(t *testing.T) {
		t.Parallel()
		a, err := f.Get("hello")
		require.NoError(t, err)
		a.Set("name", "a")
		b, err := f.Get("hello")
		require.NoError(t, err)
		_, ok := b.Value("name")
		assert.False(t, ok)
	})

	t.Run("missing template", func(t *testing.T) {
		t.Parallel()
		_, err := f.Get("nope")
		require.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()
		_, err := f.Get("broken")
		var syntaxErr *SyntaxError
		require.ErrorAs(t, err, &syntaxErr)
		assert.Equal(t, "broken", syntaxErr.Name)
		assert.True(t, syntaxErr.TemplateSyntax())
	})
}

func TestHTMLClone(t *testing.T) {
	t.Parallel()

	tpl, err := Parse("t", `{{.a}}-{{with .b}}{{.}}{{end}}`)
	require.NoError(t, err)
	tpl.Set("a", "1")
	tpl.SetGenerated("b", "x")

	cp := tpl.Clone()
	cp.Set("a", "2")
	cp.ClearGenerated()

	assert.Equal(t, "1-x", tpl.String())
	assert.Equal(t, "2-", cp.String())
	assert.Equal(t, tpl.Name(), cp.Name())
}

func TestClearGenerated(t *testing.T) {
	t.Parallel()

	tpl, err := Parse("t", `{{.a}}-{{with .b}}{{.}}{{end}}`)
	require.NoError(t, err)
	tpl.Set("a", "keep")
	tpl.SetGenerated("b", "drop")
	tpl.SetGenerated("a", "shadow")

	assert.Equal(t, "shadow-drop", tpl.String())
	tpl.ClearGenerated()
	assert.Equal(t, "keep-", tpl.String())
}

type page struct {
	Title   string
	Main    *HTML
	nested  struct{ inner Template }
	list    []*HTML
	missing *HTML
}

func TestClearFields(t *testing.T) {
	t.Parallel()

	mk := func() *HTML {
		h, err := Parse("x", `{{.v}}`)
		require.NoError(t, err)
		h.Set("v", "durable")
		h.SetGenerated("v", "generated")
		return h
	}

	p := &page{Main: mk(), list: []*HTML{mk(), mk()}}
	p.nested.inner = mk()

	n := ClearFields(p)
	assert.Equal(t, 4, n)
	assert.Equal(t, "durable", p.Main.String())
	assert.Equal(t, "durable", p.nested.inner.(*HTML).String())
	for _, h := range p.list {
		assert.Equal(t, "durable", h.String())
	}

	assert.Equal(t, 0, ClearFields(nil))
	assert.Equal(t, 0, ClearFields(42))
}

func TestClearValues(t *testing.T) {
	t.Parallel()

	h, err := Parse("x", `{{with .v}}{{.}}{{end}}`)
	require.NoError(t, err)
	h.SetGenerated("v", "generated")

	n := ClearValues(map[string]any{"tpl": h, "count": 3})
	assert.Equal(t, 1, n)
	assert.Empty(t, h.String())
}
