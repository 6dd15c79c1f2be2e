/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package render paints one editor frame onto a draw.Surface. It only reads
// the graph, the layout components and the interaction context.
package render

import (
	"fmt"
	"math"
	"time"

	"patchwire/internal/canvas"
	"patchwire/internal/draw"
	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	"patchwire/internal/graph"
	"patchwire/internal/interact"
	"patchwire/internal/layout"
	"patchwire/internal/vector"
)

// Style is the editor palette.
type Style struct {
	Grid       vector.Color
	NodeFill   vector.Color
	NodeStroke vector.Color
	TitleFill  vector.Color
	Text       vector.Color
	Wire       vector.Color
	Hover      vector.Color
	Port       vector.Color
	Running    vector.Color
	Spectrum   vector.Color
	WireWidth  float32
}

// DefaultStyle is a dark theme.
func DefaultStyle() Style {
	return Style{
		Grid:       vector.RGB(44, 46, 52),
		NodeFill:   vector.RGB(58, 62, 70),
		NodeStroke: vector.RGB(20, 20, 24),
		TitleFill:  vector.RGB(86, 92, 104),
		Text:       vector.RGB(230, 230, 230),
		Wire:       vector.RGB(200, 200, 120),
		Hover:      vector.RGB(255, 170, 60),
		Port:       vector.RGB(150, 190, 230),
		Running:    vector.RGB(90, 200, 110),
		Spectrum:   vector.RGB(70, 140, 220),
		WireWidth:  2,
	}
}

// Options configures what the renderer draws.
type Options struct {
	Grid      float32 // canvas units between grid lines; 0 disables the grid
	WiggleMax float32
	Viewport  vector.Size
	Style     Style
}

// Renderer paints frames.
type Renderer struct {
	opts Options
}

// New returns a renderer. A zero Style selects DefaultStyle.
func New(opts Options) *Renderer {
	if opts.Style == (Style{}) {
		opts.Style = DefaultStyle()
	}
	return &Renderer{opts: opts}
}

// SetViewport updates the window size used for the grid.
func (r *Renderer) SetViewport(sz vector.Size) { r.opts.Viewport = sz }

// Frame draws the whole editor.
func (r *Renderer) Frame(s draw.Surface, g *graph.Graph, view *canvas.Transform, ctx interact.Context) {
	r.grid(s, view)
	r.wires(s, g, view, ctx)
	for _, n := range g.Nodes() {
		r.node(s, g, view, ctx, n)
	}
}

func (r *Renderer) grid(s draw.Surface, view *canvas.Transform) {
	step := r.opts.Grid * view.Scale
	if r.opts.Grid <= 0 || step < 4 || r.opts.Viewport.W <= 0 {
		return
	}
	s.SetChannel(draw.Background)
	st := vector.Line(r.opts.Style.Grid, 1)
	w, h := r.opts.Viewport.W, r.opts.Viewport.H
	x0 := float32(math.Mod(float64(view.Pan.X), float64(step)))
	for x := x0; x < w; x += step {
		s.Line(vector.Pt{X: x, Y: 0}, vector.Pt{X: x, Y: h}, st)
	}
	y0 := float32(math.Mod(float64(view.Pan.Y), float64(step)))
	for y := y0; y < h; y += step {
		s.Line(vector.Pt{X: 0, Y: y}, vector.Pt{X: w, Y: y}, st)
	}
}

func (r *Renderer) wires(s draw.Surface, g *graph.Graph, view *canvas.Transform, ctx interact.Context) {
	s.SetChannel(draw.Wires)
	reg := g.Registry()
	st := r.opts.Style
	for _, ce := range g.Connections() {
		c, _ := ecs.Get[graph.Connection](reg, ce)
		from, ok1 := layout.PortAnchor(reg, c.SrcPort)
		to, ok2 := layout.PortAnchor(reg, c.DstPort)
		if !ok1 || !ok2 {
			continue
		}
		col := st.Wire
		if ce == ctx.Hover.Connection || (ctx.State == interact.EditingConnection && ce == ctx.Edit.Conn) {
			col = st.Hover
		}
		s.Bezier(view.Wire(from, to, r.opts.WiggleMax), vector.Line(col, st.WireWidth))
	}
	if ctx.State != interact.DraggingWire {
		return
	}
	from, to := ctx.Edit.WireFrom, ctx.Mouse.Canvas
	if p, err := ecs.Get[graph.Port](reg, ctx.Edit.Port); err == nil && p.Kind.InputLike() {
		from, to = to, from
	}
	s.Bezier(view.Wire(from, to, r.opts.WiggleMax), vector.Line(st.Hover, st.WireWidth))
}

func (r *Renderer) node(s draw.Surface, g *graph.Graph, view *canvas.Transform, ctx interact.Context, e ecs.Entity) {
	reg := g.Registry()
	n, err := ecs.Get[graph.Node](reg, e)
	if err != nil {
		return
	}
	nl, err := ecs.Get[layout.NodeLayout](reg, e)
	if err != nil {
		return
	}
	st := r.opts.Style
	body := view.RectToWindow(nl.Body)
	title := view.RectToWindow(nl.Title)

	s.SetChannel(draw.Nodes)
	s.FillRect(title, vector.Solid(st.TitleFill))
	s.FillRect(body, vector.Solid(st.NodeFill))
	s.Rect(body.Union(title), vector.Line(st.NodeStroke, 1))
	s.Text(baseline(title, 6), n.Name, st.Text)
	r.furniture(s, view, *nl, n, ctx.Hover.Node == e)

	if g.Bridge().HasCapability(n.Unit, engine.CapSpectrum) {
		r.spectrum(s, body)
	}
	if n.Self > 0 {
		s.Text(vector.Pt{X: body.X, Y: body.Y + body.H + 12}, profileText(n.Cumulative, n.Self), st.Text)
	}

	for _, pe := range g.Ports(e) {
		r.port(s, view, reg, ctx, pe)
	}

	if ctx.Hover.Node == e || (ctx.State == interact.EditingNode && ctx.Edit.Node == e) {
		s.SetChannel(draw.Overlay)
		s.Rect(body.Union(title).Inset(-1, -1), vector.Line(st.Hover, 2))
	}
}

func (r *Renderer) furniture(s draw.Surface, view *canvas.Transform, nl layout.NodeLayout, n *graph.Node, hovered bool) {
	st := r.opts.Style
	primary := view.RectToWindow(nl.Furniture).Inset(4, 4)
	secondary := view.RectToWindow(nl.Secondary).Inset(4, 4)
	line := vector.Line(st.Text, 1)
	switch {
	case n.CanSchedule:
		if n.Running {
			s.FillRect(primary, vector.Solid(st.Running))
		}
		s.Rect(primary, line)
		if n.CanTrigger {
			s.Circle(secondary.Center(), secondary.W/2, vector.Fill{}, line)
		}
	case n.CanTrigger:
		s.Circle(primary.Center(), primary.W/2, vector.Fill{}, line)
	case hovered:
		// menu glyph
		for i := float32(0); i < 3; i++ {
			y := primary.Y + i*primary.H/2
			s.Line(vector.Pt{X: primary.X, Y: y}, vector.Pt{X: primary.X + primary.W, Y: y}, line)
		}
	}
}

func (r *Renderer) spectrum(s draw.Surface, body vector.Rect) {
	band := vector.R(body.X+4, body.Y+body.H-10, body.W-8, 6)
	s.FillRect(band, vector.Solid(r.opts.Style.Spectrum.WithAlpha(160)))
}

func (r *Renderer) port(s draw.Surface, view *canvas.Transform, reg *ecs.Registry, ctx interact.Context, pe ecs.Entity) {
	p, err := ecs.Get[graph.Port](reg, pe)
	if err != nil {
		return
	}
	pl, err := ecs.Get[layout.PortLayout](reg, pe)
	if err != nil {
		return
	}
	st := r.opts.Style
	s.SetChannel(draw.Nodes)
	if p.Kind != graph.Setting {
		icon := view.RectToWindow(pl.Icon)
		col := st.Port
		if ctx.Hover.Port == pe || (ctx.State == interact.DraggingWire && ctx.Edit.Port == pe) {
			col = st.Hover
		}
		s.Circle(icon.Center(), icon.W/2, vector.Solid(col), vector.Line(st.NodeStroke, 1))
	}
	label := view.RectToWindow(pl.Label)
	if ctx.Hover.Label == pe || (ctx.State == interact.EditingPortValue && ctx.Edit.Port == pe) {
		s.SetChannel(draw.Overlay)
		s.FillRect(label, vector.Solid(st.Hover.WithAlpha(64)))
		s.SetChannel(draw.Nodes)
	}
	s.Text(baseline(label, 0), pl.Text, st.Text)
}

// baseline places 9pt text roughly centred in r.
func baseline(r vector.Rect, indent float32) vector.Pt {
	return vector.Pt{X: r.X + indent, Y: r.Y + r.H/2 + 4}
}

func profileText(cum, self time.Duration) string {
	return fmt.Sprintf("self %s / cum %s", self.Round(time.Microsecond), cum.Round(time.Microsecond))
}
