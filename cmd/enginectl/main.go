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

// Command enginectl serves the demo site and inspects engine configuration.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rivaas.dev/engine/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// envPrefix selects the environment variables read on top of the config file.
const envPrefix = "ENGINE_"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "enginectl",
		Short: "Run and inspect a continuation based web engine",
		Long: `enginectl runs the demo engine site and inspects its configuration.

Configuration is read from the file given with --config (YAML, JSON or
TOML) and from ENGINE_ prefixed environment variables, which win over
the file.

Examples:
  enginectl serve --config engine.yaml
  enginectl routes --format yaml
  ENGINE_SERVER_ADDR=:9090 enginectl config --format toml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file")

	cmd.AddCommand(
		serveCmd(opts),
		routesCmd(),
		configCmd(opts),
		versionCmd(),
	)
	return cmd
}

// load reads the configuration file, if any, and the environment.
func (o *rootOptions) load(ctx context.Context) (*config.Engine, error) {
	var opts []config.Option
	if o.configPath != "" {
		opts = append(opts, config.WithFile(o.configPath))
	}
	opts = append(opts, config.WithEnv(envPrefix))
	return config.Load(ctx, opts...)
}
