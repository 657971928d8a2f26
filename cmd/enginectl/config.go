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
	"github.com/spf13/cobra"

	"rivaas.dev/engine/config"
	"rivaas.dev/engine/config/codec"
)

func configCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file
and the environment.

Examples:
  enginectl config
  enginectl config --config engine.toml --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(runContext(cmd))
			if err != nil {
				return err
			}
			data, err := config.Encode(cfg, codec.Type(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(codec.TypeYAML), "Output format: yaml, json or toml")

	return cmd
}
