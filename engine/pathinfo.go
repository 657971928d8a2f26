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
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// PathInfoMode tells how a route treats the part of the URL beyond its path.
type PathInfoMode int

const (
	// PathInfoModeNone only matches the exact route path.
	PathInfoModeNone PathInfoMode = iota
	// PathInfoModeCapture accepts any remainder and exposes it as path info.
	PathInfoModeCapture
	// PathInfoModeMap accepts remainders matching one of the mappings.
	PathInfoModeMap
)

// String returns the lower-case mode name.
func (m PathInfoMode) String() string {
	switch m {
	case PathInfoModeNone:
		return "none"
	case PathInfoModeCapture:
		return "capture"
	case PathInfoModeMap:
		return "map"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// PathInfoHandling is the path-info setting of a route.
type PathInfoHandling struct {
	mode     PathInfoMode
	builders []*MappingBuilder
	mappings []*pathInfoMapping
}

// PathInfoNone is the default handling: no path info.
func PathInfoNone() PathInfoHandling {
	return PathInfoHandling{mode: PathInfoModeNone}
}

// PathInfoCapture accepts any path info.
func PathInfoCapture() PathInfoHandling {
	return PathInfoHandling{mode: PathInfoModeCapture}
}

// PathInfoMap accepts path info matching one of the mappings, tried in order.
// Without mappings it behaves like [PathInfoCapture].
func PathInfoMap(mappings ...*MappingBuilder) PathInfoHandling {
	return PathInfoHandling{mode: PathInfoModeMap, builders: mappings}
}

// Mode returns the handling mode.
func (h PathInfoHandling) Mode() PathInfoMode {
	return h.mode
}

// String describes the handling for route listings, e.g. "map(/{id})".
func (h PathInfoHandling) String() string {
	if h.mode != PathInfoModeMap || len(h.builders) == 0 {
		return h.mode.String()
	}
	parts := make([]string, len(h.builders))
	for i, b := range h.builders {
		parts[i] = b.String()
	}
	return "map(" + strings.Join(parts, " | ") + ")"
}

// compile turns the mapping builders into anchored regular expressions.
func (h PathInfoHandling) compile() (PathInfoHandling, error) {
	if h.mode != PathInfoModeMap {
		return h, nil
	}
	compiled := make([]*pathInfoMapping, 0, len(h.builders))
	for _, b := range h.builders {
		m, err := b.compile()
		if err != nil {
			return h, err
		}
		compiled = append(compiled, m)
	}
	h.mappings = compiled
	return h, nil
}

// accepts reports whether a route with this handling can serve pathInfo.
func (h PathInfoHandling) accepts(pathInfo string) bool {
	switch h.mode {
	case PathInfoModeNone:
		return pathInfo == ""
	case PathInfoModeMap:
		if len(h.mappings) == 0 {
			return true
		}
		for _, m := range h.mappings {
			if m.re.MatchString(pathInfo) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// parameters returns the values captured by the first matching mapping.
func (h PathInfoHandling) parameters(pathInfo string) map[string][]string {
	for _, m := range h.mappings {
		if params, ok := m.match(pathInfo); ok {
			return params
		}
	}
	return nil
}

// build renders the first mapping that can be filled from params.
func (h PathInfoHandling) build(params map[string][]string) (string, []string, bool) {
	for _, m := range h.mappings {
		if pi, used, ok := m.build(params); ok {
			return pi, used, true
		}
	}
	return "", nil, false
}

type segmentKind int

const (
	segmentSlash segmentKind = iota
	segmentText
	segmentParam
)

type segment struct {
	kind    segmentKind
	text    string
	name    string
	pattern string
}

// DefaultParamPattern is the pattern used by [MappingBuilder.Param].
const DefaultParamPattern = `[^/]+`

// MappingBuilder describes one path-info mapping as a sequence of literal
// slashes, literal text and named parameters.
//
// The path info is matched without its leading slash, so a mapping for
// "/2024/hello" is usually built as Mapping().Param("year").Slash().Param("slug").
// A mapping that starts with Slash treats that first slash as optional.
type MappingBuilder struct {
	segments []segment
}

// Mapping starts a new path-info mapping.
func Mapping() *MappingBuilder {
	return &MappingBuilder{}
}

// Slash appends a literal "/" separator.
func (b *MappingBuilder) Slash() *MappingBuilder {
	b.segments = append(b.segments, segment{kind: segmentSlash})
	return b
}

// Text appends literal text.
func (b *MappingBuilder) Text(text string) *MappingBuilder {
	b.segments = append(b.segments, segment{kind: segmentText, text: text})
	return b
}

// Param appends a parameter matching one path segment.
func (b *MappingBuilder) Param(name string) *MappingBuilder {
	return b.ParamPattern(name, DefaultParamPattern)
}

// ParamPattern appends a parameter matching the regular expression pattern.
func (b *MappingBuilder) ParamPattern(name, pattern string) *MappingBuilder {
	b.segments = append(b.segments, segment{kind: segmentParam, name: name, pattern: pattern})
	return b
}

// String renders the mapping with parameters in braces.
func (b *MappingBuilder) String() string {
	var sb strings.Builder
	for _, s := range b.segments {
		switch s.kind {
		case segmentSlash:
			sb.WriteByte('/')
		case segmentText:
			sb.WriteString(s.text)
		case segmentParam:
			sb.WriteString("{" + s.name + "}")
		}
	}
	return sb.String()
}

type group struct {
	index int
	name  string
}

type pathInfoMapping struct {
	builder *MappingBuilder
	re      *regexp.Regexp
	groups  []group
}

func (b *MappingBuilder) compile() (*pathInfoMapping, error) {
	var sb strings.Builder
	sb.WriteByte('^')
	var names []string
	for i, s := range b.segments {
		switch s.kind {
		case segmentSlash:
			if i == 0 {
				sb.WriteString("/?")
			} else {
				sb.WriteByte('/')
			}
		case segmentText:
			sb.WriteString(regexp.QuoteMeta(s.text))
		case segmentParam:
			if s.name == "" {
				return nil, fmt.Errorf("%w: parameter without name in %q", ErrInvalidPathInfoPattern, b.String())
			}
			if _, err := regexp.Compile(s.pattern); err != nil {
				return nil, fmt.Errorf("%w: parameter %q: %w", ErrInvalidPathInfoPattern, s.name, err)
			}
			// Generated group names keep parameter names free of regexp syntax rules.
			fmt.Fprintf(&sb, "(?P<p%d>%s)", len(names), s.pattern)
			names = append(names, s.name)
		}
	}
	sb.WriteByte('$')

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPathInfoPattern, b.String(), err)
	}
	groups := make([]group, 0, len(names))
	for i, sub := range re.SubexpNames() {
		if idx, ok := strings.CutPrefix(sub, "p"); ok {
			if n, err := strconv.Atoi(idx); err == nil && n < len(names) {
				groups = append(groups, group{index: i, name: names[n]})
			}
		}
	}
	return &pathInfoMapping{builder: b, re: re, groups: groups}, nil
}

func (m *pathInfoMapping) match(pathInfo string) (map[string][]string, bool) {
	sub := m.re.FindStringSubmatch(pathInfo)
	if sub == nil {
		return nil, false
	}
	params := make(map[string][]string, len(m.groups))
	for _, g := range m.groups {
		params[g.name] = append(params[g.name], sub[g.index])
	}
	return params, true
}

// build renders the mapping from params. It fails when a parameter is
// missing or its value does not satisfy the mapping. The used parameter
// names are returned so callers can leave them out of the query string.
func (m *pathInfoMapping) build(params map[string][]string) (string, []string, bool) {
	var sb strings.Builder
	var used []string
	next := make(map[string]int)
	for _, s := range m.builder.segments {
		switch s.kind {
		case segmentSlash:
			sb.WriteByte('/')
		case segmentText:
			sb.WriteString(s.text)
		case segmentParam:
			vals := params[s.name]
			i := next[s.name]
			if i >= len(vals) {
				return "", nil, false
			}
			next[s.name] = i + 1
			sb.WriteString(url.PathEscape(vals[i]))
			used = append(used, s.name)
		}
	}
	out := sb.String()
	if !m.re.MatchString(out) {
		return "", nil, false
	}
	return strings.TrimPrefix(out, "/"), used, true
}
