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

package main

import (
	"errors"
	"net/http"

	"rivaas.dev/engine/engine"
)

// guess is a number guessing element. It keeps its state across requests
// by pausing until the number is found.
type guess struct {
	Secret int
	Tries  int
}

func (g *guess) Process(c *engine.Context) error {
	if g.Secret == 0 {
		g.Secret = 42
	}
	if c.Step() != "" {
		n, err := c.ParameterInt("n")
		if err != nil {
			c.Print("send a number as ?n=")
			return c.Pause("guess")
		}
		g.Tries++
		switch {
		case n < g.Secret:
			c.Printf("%d is too low", n)
		case n > g.Secret:
			c.Printf("%d is too high", n)
		default:
			c.Printf("found %d after %d tries", n, g.Tries)
			return nil
		}
		return c.Pause("guess")
	}
	c.Print("guess a number between 1 and 100")
	return c.Pause("guess")
}

var errBoom = errors.New("boom")

// demoSite is the site served by enginectl.
func demoSite() *engine.Site {
	return engine.NewSite(func(r *engine.Router) error {
		r.Exception(engine.Func(func(c *engine.Context) error {
			v, _ := c.Attribute(engine.ExceptionAttribute)
			c.SetStatus(http.StatusInternalServerError)
			c.Printf("failed: %v", v)
			return nil
		}), engine.WithElementID("EXCEPTION"))

		r.Get("/", engine.Func(func(c *engine.Context) error {
			c.Print("engine demo: /hello /guess /posts/{year}/{slug} /api/status")
			return nil
		}), engine.WithName("home"))
		r.Get("/hello", engine.Func(func(c *engine.Context) error {
			name := c.Parameter("name")
			if name == "" {
				name = "world"
			}
			c.Printf("hello %s", name)
			return nil
		}), engine.WithName("hello"))
		r.Get("/guess", engine.Type[guess](), engine.WithElementID("GUESS"))
		r.Get("/posts", engine.Func(func(c *engine.Context) error {
			c.Printf("post %s from %s", c.Parameter("slug"), c.Parameter("year"))
			return nil
		}), engine.WithPathInfo(engine.PathInfoMap(
			engine.Mapping().ParamPattern("year", `\d{4}`).Slash().Param("slug"),
		)))
		r.Get("/boom", engine.Func(func(*engine.Context) error {
			return errBoom
		}))

		return r.Group("/api", engine.NewRouter(func(api *engine.Router) error {
			api.Before(engine.Func(func(c *engine.Context) error {
				c.SetContentType("application/json")
				return nil
			}))
			api.Get("/status", engine.Func(func(c *engine.Context) error {
				c.Print(`{"status":"ok"}`)
				return nil
			}))
			return nil
		}))
	})
}
