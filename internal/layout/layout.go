/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package layout computes node and port geometry in canvas space. It runs
// once per tick before hit-testing so both hover and drawing see the same
// rectangles.
//
// A node has up to three columns: bus inputs followed by parameters, then
// settings (only when the node has any), then bus outputs. The title band
// with the node's furniture button sits directly above the body.
package layout

import (
	"patchwire/internal/ecs"
	"patchwire/internal/graph"
	"patchwire/internal/textlayout"
	"patchwire/internal/vector"
)

// Config holds the layout metrics in canvas units.
type Config struct {
	Title  float32 // height of the band above the body
	Header float32 // gap between the body top and the first row
	Row    float32
	Column float32
	Icon   float32
}

// DefaultConfig matches the editor defaults.
func DefaultConfig() Config {
	return Config{Title: 20, Header: 8, Row: 20, Column: 120, Icon: 10}
}

const labelPad = 4

// NodeLayout is assigned to every node by Update.
type NodeLayout struct {
	Columns  int
	Inputs   int // bus inputs plus parameters
	Settings int
	Outputs  int

	Body  vector.Rect
	Title vector.Rect
	// Furniture is the leftmost button square in the title band, Secondary
	// the one to its right. Which actions they carry depends on the node;
	// the rest of the band is the node menu.
	Furniture vector.Rect
	Secondary vector.Rect
}

// Hover is the body extended upward to cover the title band.
func (l NodeLayout) Hover() vector.Rect { return l.Body.Union(l.Title) }

// PortLayout is assigned to every port by Update. Rects are absolute canvas
// coordinates.
type PortLayout struct {
	Column int
	Offset float32 // from the body top
	Icon   vector.Rect
	Label  vector.Rect
	Text   string
}

// Anchor is the point wires attach to.
func (p PortLayout) Anchor() vector.Pt { return p.Icon.Center() }

// Engine recomputes layouts.
type Engine struct {
	cfg     Config
	measure textlayout.Measurer
}

// New returns a layout engine. A nil measurer selects textlayout.NewBasic.
func New(cfg Config, m textlayout.Measurer) *Engine {
	if m == nil {
		m = textlayout.NewBasic()
	}
	return &Engine{cfg: cfg, measure: m}
}

func (e *Engine) Config() Config { return e.cfg }

// Update assigns a NodeLayout to every node and a PortLayout to each of its ports.
func (e *Engine) Update(g *graph.Graph) {
	reg := g.Registry()
	ecs.Each(reg, func(node ecs.Entity, n *graph.Node) {
		e.layoutNode(reg, node, g.PositionOf(node), n)
	})
}

func (e *Engine) layoutNode(reg *ecs.Registry, node ecs.Entity, origin vector.Pt, n *graph.Node) {
	var inputs, params, settings, outputs []ecs.Entity
	ports := make(map[ecs.Entity]*graph.Port, len(n.Ports))
	for _, pe := range n.Ports {
		p, err := ecs.Get[graph.Port](reg, pe)
		if err != nil {
			continue
		}
		ports[pe] = p
		switch p.Kind {
		case graph.BusInput:
			inputs = append(inputs, pe)
		case graph.Parameter:
			params = append(params, pe)
		case graph.Setting:
			settings = append(settings, pe)
		case graph.BusOutput:
			outputs = append(outputs, pe)
		}
	}
	left := append(inputs, params...)

	cols := 2
	if len(settings) > 0 {
		cols = 3
	}
	rows := max(len(left), len(settings), len(outputs), 1)
	c := e.cfg
	body := vector.R(origin.X, origin.Y, c.Column*float32(cols), c.Header+c.Row*float32(rows))
	title := vector.R(body.X, body.Y-c.Title, body.W, c.Title)
	nl := NodeLayout{
		Columns:   cols,
		Inputs:    len(left),
		Settings:  len(settings),
		Outputs:   len(outputs),
		Body:      body,
		Title:     title,
		Furniture: vector.R(title.X, title.Y, c.Title, c.Title),
		Secondary: vector.R(title.X+c.Title, title.Y, c.Title, c.Title),
	}
	ecs.Assign(reg, node, nl)

	for i, pe := range left {
		ecs.Assign(reg, pe, e.portLayout(body, 0, i, ports[pe], sideLeft))
	}
	for i, pe := range settings {
		ecs.Assign(reg, pe, e.portLayout(body, 1, i, ports[pe], sideNone))
	}
	for i, pe := range outputs {
		ecs.Assign(reg, pe, e.portLayout(body, cols-1, i, ports[pe], sideRight))
	}
}

type side int

const (
	sideNone side = iota
	sideLeft
	sideRight
)

func (e *Engine) portLayout(body vector.Rect, col, ordinal int, p *graph.Port, s side) PortLayout {
	c := e.cfg
	offset := c.Header + c.Row*float32(ordinal)
	rowY := body.Y + offset
	colX := body.X + c.Column*float32(col)
	iconY := rowY + (c.Row-c.Icon)/2

	pl := PortLayout{Column: col, Offset: offset}
	text := labelText(p)
	room := c.Column - c.Icon/2 - 2*labelPad
	if s == sideNone {
		room = c.Column - 2*labelPad
	}
	pl.Text = textlayout.Fit(e.measure, text, room)
	w := e.measure.Width(pl.Text)
	switch s {
	case sideLeft:
		pl.Icon = vector.R(body.X-c.Icon/2, iconY, c.Icon, c.Icon)
		pl.Label = vector.R(body.X+c.Icon/2+labelPad, rowY, w, c.Row)
	case sideRight:
		right := body.X + body.W
		pl.Icon = vector.R(right-c.Icon/2, iconY, c.Icon, c.Icon)
		pl.Label = vector.R(right-c.Icon/2-labelPad-w, rowY, w, c.Row)
	default:
		pl.Icon = vector.R(colX, iconY, 0, 0)
		pl.Label = vector.R(colX+labelPad, rowY, w, c.Row)
	}
	return pl
}

func labelText(p *graph.Port) string {
	name := p.Name
	if p.Kind == graph.Parameter || p.Kind == graph.Setting {
		if p.Display != "" {
			return name + " " + p.Display
		}
	}
	return name
}

// PortAnchor returns the canvas point a wire attaches to on port.
func PortAnchor(reg *ecs.Registry, port ecs.Entity) (vector.Pt, bool) {
	pl, err := ecs.Get[PortLayout](reg, port)
	if err != nil {
		return vector.Pt{}, false
	}
	return pl.Anchor(), true
}
