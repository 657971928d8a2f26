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
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"rivaas.dev/engine/app"
)

func routesCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes of the demo site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			site := demoSite()
			if err := site.Deploy(); err != nil {
				return fmt.Errorf("deploy site: %w", err)
			}
			routes := site.Routes()

			switch format {
			case "table":
				app.PrintRoutes(cmd.OutOrStdout(), routes)
				return nil
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(routes); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q (want table or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table or yaml")

	return cmd
}
