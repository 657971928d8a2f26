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

package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const maxSweepInterval = time.Minute

// Run listens on server.addr and serves until ctx is cancelled.
// Callers usually derive ctx from signal.NotifyContext.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts the server down
// within server.shutdownTimeout and releases the app.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	handler := a.Handler()
	protocol := "HTTP/1.1"
	if a.cfg.Server.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
		protocol = "h2c"
	}
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
	}

	if a.bannerOut != nil {
		a.PrintBanner(a.bannerOut, ln.Addr().String())
	}
	a.logger.Info("server starting",
		"address", ln.Addr().String(),
		"protocol", protocol,
		"gate_url", a.cfg.Gate.URL,
		"continuations", a.manager != nil,
		"sessions", a.cfg.Session.Store,
	)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if a.sweep != nil {
		go a.sweepSessions(sweepCtx)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("%s server failed: %w", protocol, err)
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			_ = a.Shutdown(context.Background())
			return err
		}
	case <-ctx.Done():
		a.logger.Info("server shutting down", "reason", context.Cause(ctx))
	}

	// ctx is already done; the shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("%s server forced to shutdown: %w", protocol, err))
	}
	stopSweep()
	a.logger.Info("server exited", "protocol", protocol)
	if err := a.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) sweepSessions(ctx context.Context) {
	interval := min(a.cfg.Session.TTL, maxSweepInterval)
	if interval <= 0 {
		interval = maxSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sweep()
			if err != nil {
				a.logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				a.logger.Debug("sessions swept", "count", n)
			}
		}
	}
}
