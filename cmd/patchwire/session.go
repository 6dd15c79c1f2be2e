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
	"log/slog"

	"patchwire/internal/ecs"
	"patchwire/internal/editor"
	"patchwire/internal/engine"
	"patchwire/internal/graph"
	"patchwire/internal/layout"
	applog "patchwire/internal/log"
	"patchwire/internal/metrics"
	"patchwire/internal/patch"
	"patchwire/internal/vector"
)

// openPatch builds the script at path into a fresh editor backed by the
// in-memory engine and applies every queued command.
func openPatch(path string, rec *metrics.Recorder) (*editor.Editor, *engine.Memory, error) {
	var cat *engine.Catalog
	if appCfg.Engine.Catalog != "" {
		c, err := engine.LoadCatalog(appCfg.Engine.Catalog)
		if err != nil {
			return nil, nil, err
		}
		cat = c
	}
	mem := engine.NewMemory(cat)
	ed, err := editor.New(editor.Options{Config: appCfg, Bridge: mem, Metrics: rec})
	if err != nil {
		return nil, nil, err
	}
	f, err := patch.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := f.Build(ed, mem); err != nil {
		return nil, nil, err
	}
	n := ed.Flush()
	applog.WithComponent("cli").Debug("patch applied", slog.String("path", path), slog.Int("commands", n))
	return ed, mem, nil
}

// bounds is the canvas area covered by every node, title bands included.
func bounds(g *graph.Graph) (vector.Rect, bool) {
	var out vector.Rect
	found := false
	for _, n := range g.Nodes() {
		nl, err := ecs.Get[layout.NodeLayout](g.Registry(), n)
		if err != nil {
			continue
		}
		if !found {
			out, found = nl.Hover(), true
			continue
		}
		out = out.Union(nl.Hover())
	}
	return out, found
}

func portRef(g *graph.Graph, port ecs.Entity) string {
	p, err := ecs.Get[graph.Port](g.Registry(), port)
	if err != nil {
		return "?"
	}
	n, err := ecs.Get[graph.Node](g.Registry(), p.Node)
	if err != nil {
		return "?." + p.Name
	}
	return fmt.Sprintf("%s.%s", n.Name, p.Name)
}
