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

	"github.com/stretchr/testify/require"
)

// HandlerX is a typed element printing its id parameter.
type HandlerX struct{}

func (h *HandlerX) Process(c *Context) error {
	c.Print("x:", c.Parameter("id"))
	return nil
}

// twoStep prints A, pauses, and prints B with the saved value on resume.
type twoStep struct {
	Visits int
}

func (e *twoStep) Process(c *Context) error {
	e.Visits++
	switch c.Step() {
	case "":
		c.Print("A")
		c.Save("n", 1)
		return c.Pause("b")
	case "b":
		n, _ := c.Restore("n")
		c.Printf("B%v", n)
	}
	return nil
}

// otherStep reports the step it was started at.
type otherStep struct{}

func (e *otherStep) Process(c *Context) error {
	c.Printf("other:%q", c.Step())
	return nil
}

func text(s string) Handler {
	return Func(func(c *Context) error {
		c.Print(s)
		return nil
	})
}

func deployedSite(t *testing.T, setup SetupFunc) *Site {
	t.Helper()
	site := NewSite(setup)
	require.NoError(t, site.Deploy())
	return site
}

func newTestGate(t *testing.T, setup SetupFunc, opts ...GateOption) *Gate {
	t.Helper()
	g, err := NewGate(NewSite(setup), opts...)
	require.NoError(t, err)
	return g
}

type result struct {
	*httptest.ResponseRecorder
	handled bool
}

func (r result) cookie(name string) *http.Cookie {
	for _, ck := range r.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func do(g *Gate, method, target string, cookies ...*http.Cookie) result {
	req := httptest.NewRequest(method, target, nil)
	for _, ck := range cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	w := httptest.NewRecorder()
	handled := g.HandleRequest("", req.URL.Path, w, req)
	return result{ResponseRecorder: w, handled: handled}
}
