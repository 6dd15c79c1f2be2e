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

	"github.com/spf13/cobra"

	"patchwire/internal/draw/pdfsurface"
	"patchwire/internal/vector"
)

var exportFlags struct {
	margin float32
	title  string
}

var exportCmd = &cobra.Command{
	Use:   "export <patch.hcl> <out.pdf>",
	Short: "Render a patch to a single-page PDF",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.Float32Var(&exportFlags.margin, "margin", 40, "page margin in points")
	f.StringVar(&exportFlags.title, "title", "", "document title (default is the patch path)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ed, _, err := openPatch(args[0], nil)
	if err != nil {
		return err
	}
	m := exportFlags.margin
	area, ok := bounds(ed.Graph())
	if !ok {
		area = vector.R(0, 0, 200, 100)
	}
	// frame the graph at scale 1 with the margin around it
	view := ed.View()
	view.Scale = 1
	view.Pan = vector.Pt{X: m - area.X, Y: m - area.Y}
	w, h := area.W+2*m, area.H+2*m
	ed.Resize(vector.Size{W: w, H: h})

	surf := pdfsurface.New(float64(w), float64(h))
	surf.Title = exportFlags.title
	if surf.Title == "" {
		surf.Title = args[0]
	}
	ed.Draw(surf)
	if err := surf.WriteFile(args[1]); err != nil {
		return err
	}
	good.Fprintf(cmd.OutOrStdout(), "wrote %s ", args[1])
	fmt.Fprintf(cmd.OutOrStdout(), "(%.0fx%.0f pt)\n", w, h)
	return nil
}
