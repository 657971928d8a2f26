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

// Package template is the templating collaborator used by the engine.
//
// The engine only needs a narrow contract from templates: inject values,
// render, report a default content type, and drop per-request generated
// values so that a template held by a paused element does not carry stale
// output into the request that resumes it.
//
// [HTMLFactory] is the bundled implementation on top of html/template.
package template

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"
	"strings"
	"sync"
)

// DefaultContentType is used by templates that do not override it.
const DefaultContentType = "text/html; charset=UTF-8"

var (
	// ErrTemplateNotFound indicates that a factory has no template with the requested name.
	ErrTemplateNotFound = errors.New("template not found")
)

// Clearable is implemented by values holding per-request generated output.
type Clearable interface {
	ClearGenerated()
}

// Template is a named, renderable template with value injection.
type Template interface {
	Clearable

	// Name returns the template name.
	Name() string
	// Set injects a value that survives across requests.
	Set(key string, value any)
	// SetGenerated injects a value computed for the current request only.
	SetGenerated(key string, value any)
	// Value returns an injected value, generated values shadowing regular ones.
	Value(key string) (any, bool)
	// Render writes the template output to w.
	Render(w io.Writer) error
	// DefaultContentType returns the content type to use when printing.
	DefaultContentType() string
}

// Factory creates templates by name.
type Factory interface {
	Get(name string) (Template, error)
}

// SyntaxError reports a template that failed to parse.
// The engine renders it with a dedicated diagnostic page.
type SyntaxError struct {
	Name string
	Err  error
}

// Error implements error.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template %q: syntax error: %v", e.Name, e.Err)
}

// Unwrap returns the parser error.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// TemplateSyntax marks the error as a template syntax error.
func (e *SyntaxError) TemplateSyntax() bool {
	return true
}

// HTMLFactory loads html/template files from a file system.
// Parsed templates are cached; every Get returns a fresh value holder.
type HTMLFactory struct {
	fsys        fs.FS
	suffix      string
	contentType string
	funcs       template.FuncMap

	mu     sync.Mutex
	parsed map[string]*template.Template
}

// FactoryOption configures an [HTMLFactory].
type FactoryOption func(*HTMLFactory)

// WithSuffix sets the file suffix appended to template names. Default ".html".
func WithSuffix(suffix string) FactoryOption {
	return func(f *HTMLFactory) {
		f.suffix = suffix
	}
}

// WithContentType overrides the default content type of produced templates.
func WithContentType(contentType string) FactoryOption {
	return func(f *HTMLFactory) {
		f.contentType = contentType
	}
}

// WithFuncs registers template functions.
func WithFuncs(funcs template.FuncMap) FactoryOption {
	return func(f *HTMLFactory) {
		f.funcs = funcs
	}
}

// NewHTMLFactory creates a factory reading templates from fsys.
//
// Example:
//
//	f := template.NewHTMLFactory(os.DirFS("templates"))
//	t, err := f.Get("hello")
func NewHTMLFactory(fsys fs.FS, opts ...FactoryOption) *HTMLFactory {
	f := &HTMLFactory{
		fsys:        fsys,
		suffix:      ".html",
		contentType: DefaultContentType,
		parsed:      make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get returns the template called name. A missing file yields
// [ErrTemplateNotFound]; a parse failure yields a [*SyntaxError].
func (f *HTMLFactory) Get(name string) (Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tpl, ok := f.parsed[name]
	if !ok {
		src, err := fs.ReadFile(f.fsys, name+f.suffix)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
			}
			return nil, fmt.Errorf("read template %q: %w", name, err)
		}
		tpl, err = template.New(name).Funcs(f.funcs).Parse(string(src))
		if err != nil {
			return nil, &SyntaxError{Name: name, Err: err}
		}
		f.parsed[name] = tpl
	}
	return NewHTML(tpl, f.contentType), nil
}

// HTML is a [Template] backed by html/template.
type HTML struct {
	tpl         *template.Template
	contentType string
	values      map[string]any
	generated   map[string]any
}

// NewHTML wraps a parsed html/template.
func NewHTML(tpl *template.Template, contentType string) *HTML {
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &HTML{
		tpl:         tpl,
		contentType: contentType,
		values:      make(map[string]any),
		generated:   make(map[string]any),
	}
}

// Parse is a shortcut to build an HTML template from source text.
func Parse(name, text string) (*HTML, error) {
	tpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, &SyntaxError{Name: name, Err: err}
	}
	return NewHTML(tpl, DefaultContentType), nil
}

// Name returns the template name.
func (t *HTML) Name() string { return t.tpl.Name() }

// Set injects a durable value.
func (t *HTML) Set(key string, value any) { t.values[key] = value }

// SetGenerated injects a per-request value.
func (t *HTML) SetGenerated(key string, value any) { t.generated[key] = value }

// Value returns the value for key.
func (t *HTML) Value(key string) (any, bool) {
	if v, ok := t.generated[key]; ok {
		return v, true
	}
	v, ok := t.values[key]
	return v, ok
}

// Clone returns a copy with its own value maps. The parsed template is
// shared since executing it is safe for concurrent use.
func (t *HTML) Clone() *HTML {
	return &HTML{
		tpl:         t.tpl,
		contentType: t.contentType,
		values:      maps.Clone(t.values),
		generated:   maps.Clone(t.generated),
	}
}

// ClearGenerated drops every per-request value.
func (t *HTML) ClearGenerated() {
	clear(t.generated)
}

// DefaultContentType returns the configured content type.
func (t *HTML) DefaultContentType() string { return t.contentType }

// Render executes the template with the merged values as data.
func (t *HTML) Render(w io.Writer) error {
	data := maps.Clone(t.values)
	maps.Copy(data, t.generated)
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render template %q: %w", t.Name(), err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// String renders the template into a string, returning the error text on failure.
func (t *HTML) String() string {
	var sb strings.Builder
	if err := t.Render(&sb); err != nil {
		return err.Error()
	}
	return sb.String()
}
