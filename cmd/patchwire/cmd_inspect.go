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
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	"patchwire/internal/graph"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <patch.hcl>",
	Short: "Build a patch and print its nodes and connections",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	ed, _, err := openPatch(args[0], nil)
	if err != nil {
		return err
	}
	g := ed.Graph()
	reg := g.Registry()
	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	brand.Fprintln(out, args[0])
	info.Fprintln(out, g.Summary())
	fmt.Fprintln(out)

	var rows [][]string
	for _, ne := range g.Nodes() {
		n, _ := ecs.Get[graph.Node](reg, ne)
		pos := g.PositionOf(ne)
		state := "-"
		if n.CanSchedule {
			state = "stopped"
			if n.Running {
				state = good.Sprint("running")
			}
		}
		var values []string
		for _, pe := range g.Ports(ne) {
			p, _ := ecs.Get[graph.Port](reg, pe)
			if v, ok := engineValue(ctx, ed.Bridge(), n.Unit, p); ok {
				values = append(values, p.Name+"="+v)
			} else if p.Display != "" {
				values = append(values, p.Name+"="+p.Display)
			}
		}
		rows = append(rows, []string{n.Name, n.Kind, fmt.Sprintf("%g,%g", pos.X, pos.Y), state, strings.Join(values, " ")})
	}
	table(out, []string{"NODE", "KIND", "POS", "STATE", "VALUES"}, rows)

	conns := g.Connections()
	if len(conns) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	for _, ce := range conns {
		c, _ := ecs.Get[graph.Connection](reg, ce)
		arrow := "->"
		if c.Param {
			arrow = "~>"
		}
		fmt.Fprintf(out, "  %s %s %s\n", portRef(g, c.SrcPort), subtle.Sprint(arrow), portRef(g, c.DstPort))
	}
	return nil
}

// engineValue reads a port's current value back from the engine by name.
func engineValue(ctx context.Context, b engine.Bridge, u engine.UnitID, p *graph.Port) (string, bool) {
	switch {
	case p.Kind == graph.Parameter:
		v, err := engine.ParamByName(ctx, b, u, p.Name)
		if err != nil {
			return "", false
		}
		return engine.Float(v).Format(nil), true
	case p.Kind == graph.Setting && p.Type != engine.TypeBus:
		v, err := engine.SettingByName(ctx, b, u, p.Name)
		if err != nil {
			return "", false
		}
		return v.Format(p.Options), true
	}
	return "", false
}
