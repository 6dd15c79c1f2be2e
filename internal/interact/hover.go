/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package interact

import (
	"slices"

	"patchwire/internal/ecs"
	"patchwire/internal/graph"
	"patchwire/internal/layout"
	"patchwire/internal/vector"
)

// resolveHover finds what is under the pointer. Categories are tried in
// order: port icons, value labels, nodes with their title furniture, then
// connections. Within a category later nodes win since they draw on top.
func resolveHover(m Mouse, env Env) Hover {
	g := env.Graph
	reg := g.Registry()
	nodes := g.Nodes()
	slices.Reverse(nodes)
	p := m.Canvas

	for _, n := range nodes {
		for _, pe := range g.Ports(n) {
			port, _ := ecs.Get[graph.Port](reg, pe)
			if port.Kind == graph.Setting {
				continue
			}
			if pl, err := ecs.Get[layout.PortLayout](reg, pe); err == nil && pl.Icon.Contains(p) {
				return Hover{Port: pe}
			}
		}
	}
	for _, n := range nodes {
		for _, pe := range g.Ports(n) {
			port, _ := ecs.Get[graph.Port](reg, pe)
			if port.Kind != graph.Setting && port.Kind != graph.Parameter {
				continue
			}
			if pl, err := ecs.Get[layout.PortLayout](reg, pe); err == nil && pl.Label.Contains(p) {
				return Hover{Label: pe}
			}
		}
	}
	for _, n := range nodes {
		nl, err := ecs.Get[layout.NodeLayout](reg, n)
		if err != nil || !nl.Hover().Contains(p) {
			continue
		}
		h := Hover{Node: n}
		if nl.Title.Contains(p) {
			node, _ := ecs.Get[graph.Node](reg, n)
			h.Furniture = furnitureAt(*nl, node, p)
		}
		return h
	}
	if c := hoverConnection(m.Window, env); c != ecs.Null {
		return Hover{Connection: c}
	}
	return Hover{}
}

// furnitureAt reads the title band left to right: start/stop when the node
// schedules, trigger when it triggers, menu for whatever is left.
func furnitureAt(nl layout.NodeLayout, n *graph.Node, p vector.Pt) Furniture {
	slots := make([]Furniture, 0, 2)
	if n.CanSchedule {
		slots = append(slots, StartStop)
	}
	if n.CanTrigger {
		slots = append(slots, TriggerButton)
	}
	for i, r := range []vector.Rect{nl.Furniture, nl.Secondary} {
		if i < len(slots) && r.Contains(p) {
			return slots[i]
		}
	}
	return Menu
}

// hoverConnection tests the wire curves in window space.
func hoverConnection(w vector.Pt, env Env) ecs.Entity {
	g := env.Graph
	reg := g.Registry()
	tol2 := env.Config.WireTolerance * env.Config.WireTolerance
	best, bestD := ecs.Null, tol2
	for _, ce := range g.Connections() {
		c, _ := ecs.Get[graph.Connection](reg, ce)
		from, ok1 := layout.PortAnchor(reg, c.SrcPort)
		to, ok2 := layout.PortAnchor(reg, c.DstPort)
		if !ok1 || !ok2 {
			continue
		}
		curve := env.View.Wire(from, to, env.Config.WiggleMax)
		q := curve.ClosestPoint(w, env.Config.Segments)
		if d := w.Dist2(q); d <= bestD {
			best, bestD = ce, d
		}
	}
	return best
}
