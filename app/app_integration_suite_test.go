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

//go:build integration

package app_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/engine/app"
	"rivaas.dev/engine/config"
	"rivaas.dev/engine/engine"
	"rivaas.dev/engine/logging"
)

// wizard collects a name and a colour over two requests.
type wizard struct {
	Name string
}

func (w *wizard) Process(c *engine.Context) error {
	switch c.Step() {
	case "":
		c.Print("name?")
		return c.Pause("name")
	case "name":
		w.Name = c.Parameter("v")
		c.Print("colour?")
		return c.Pause("colour")
	default:
		c.Printf("%s likes %s", w.Name, c.Parameter("v"))
		return nil
	}
}

func wizardSite() *engine.Site {
	return engine.NewSite(func(r *engine.Router) error {
		r.Get("/wizard", engine.Type[wizard]())
		return nil
	})
}

var _ = Describe("App Integration", func() {
	var (
		base   string
		client *http.Client
		cancel context.CancelFunc
		done   chan error
	)

	fetch := func(path string) (int, string) {
		GinkgoHelper()
		resp, err := client.Get(base + path)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode, string(body)
	}

	start := func(cfg *config.Engine) {
		logger, _ := logging.NewTestLogger()
		a := app.MustNew(cfg, wizardSite(), app.WithLogging(logger), app.WithBannerOutput(io.Discard))

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		base = "http://" + ln.Addr().String()

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- a.Serve(ctx, ln) }()

		jar, err := cookiejar.New(nil)
		Expect(err).NotTo(HaveOccurred())
		client = &http.Client{Jar: jar, Timeout: 5 * time.Second}
	}

	AfterEach(func() {
		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})

	Describe("continuations across requests", func() {
		BeforeEach(func() {
			cfg := config.Default()
			cfg.Session.Store = "memory"
			cfg.Metrics.Provider = "prometheus"
			start(cfg)
		})

		It("walks the wizard one step per request", func() {
			_, body := fetch("/wizard")
			Expect(body).To(Equal("name?"))
			_, body = fetch("/wizard?v=ada")
			Expect(body).To(Equal("colour?"))
			_, body = fetch("/wizard?v=green")
			Expect(body).To(Equal("ada likes green"))
		})

		It("resumes the same step twice when the browser goes back", func() {
			fetch("/wizard")
			status, body := fetch("/wizard?v=ada")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(Equal("colour?"))

			u, _ := http.NewRequest(http.MethodGet, base+"/wizard", nil)
			cookies := client.Jar.Cookies(u.URL)
			Expect(cookies).NotTo(BeEmpty())

			_, first := fetch("/wizard?v=red")
			Expect(first).To(Equal("ada likes red"))

			// Replay the earlier continuation id as a parameter.
			var id string
			for _, ck := range cookies {
				if ck.Name == engine.ContinuationCookie {
					id = ck.Value
				}
			}
			Expect(id).NotTo(BeEmpty())
			fresh := &http.Client{Timeout: 5 * time.Second}
			resp, err := fresh.Get(fmt.Sprintf("%s/wizard?contId=%s&v=blue", base, id))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			body2, _ := io.ReadAll(resp.Body)
			Expect(string(body2)).To(Equal("ada likes blue"))
		})

		It("exposes health and metrics next to the gate", func() {
			fetch("/wizard")
			status, body := fetch(app.HealthPath)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(ContainSubstring(`"continuations":1`))

			status, body = fetch("/metrics")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(ContainSubstring(`outcome="paused"`))
		})

		It("answers 404 for unknown paths", func() {
			status, _ := fetch("/nowhere")
			Expect(status).To(Equal(http.StatusNotFound))
		})
	})

	Describe("expiry", func() {
		BeforeEach(func() {
			cfg := config.Default()
			cfg.Continuations.Duration = 50 * time.Millisecond
			start(cfg)
		})

		It("starts over once the continuation expired", func() {
			_, body := fetch("/wizard")
			Expect(body).To(Equal("name?"))
			time.Sleep(100 * time.Millisecond)
			_, body = fetch("/wizard?v=ada")
			Expect(strings.TrimSpace(body)).To(Equal("name?"))
		})
	})
})

//nolint:paralleltest // Ginkgo test suite manages its own parallelization
func TestAppIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	RegisterFailHandler(Fail)
	RunSpecs(t, "App Integration Suite")
}
