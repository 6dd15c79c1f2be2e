/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"patchwire/internal/engine"
	"patchwire/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List the unit kinds the engine offers",
	RunE:  runUnits,
}

func runUnits(cmd *cobra.Command, _ []string) error {
	cat := engine.BuiltinCatalog()
	if appCfg.Engine.Catalog != "" {
		c, err := engine.LoadCatalog(appCfg.Engine.Catalog)
		if err != nil {
			return err
		}
		cat = c
	}
	out := cmd.OutOrStdout()
	var rows [][]string
	for _, kind := range cat.Kinds() {
		d, _ := cat.Describe(kind)
		var caps []string
		for _, c := range d.Capabilities {
			caps = append(caps, c.String())
		}
		rows = append(rows, []string{
			kind,
			names(d.Inputs),
			names(d.Outputs),
			names(d.Params),
			names(d.Settings),
			strings.Join(caps, ","),
		})
	}
	brand.Fprintf(out, "%d unit kinds\n", len(rows))
	table(out, []string{"KIND", "INPUTS", "OUTPUTS", "PARAMS", "SETTINGS", "CAPS"}, rows)
	return nil
}

func names(ports []engine.PortDesc) string {
	if len(ports) == 0 {
		return "-"
	}
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = p.Name
	}
	return strings.Join(out, ",")
}
