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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rivaas.dev/engine/app"
)

func serveCmd(root *rootOptions) *cobra.Command {
	var (
		addr string
		h2c  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo site",
		Long: `Serve the demo site until SIGINT or SIGTERM.

Examples:
  enginectl serve
  enginectl serve --addr :9090 --h2c`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := root.load(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("h2c") {
				cfg.Server.H2C = h2c
			}

			a, err := app.New(cfg, demoSite(),
				app.WithServiceVersion(version),
				app.WithBannerOutput(cmd.OutOrStdout()),
			)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Listen address")
	cmd.Flags().BoolVar(&h2c, "h2c", false, "Serve HTTP/2 without TLS")

	return cmd
}

// runContext returns cmd's context, or a background context when the
// command runs outside Execute.
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
