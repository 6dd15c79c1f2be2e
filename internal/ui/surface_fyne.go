//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"patchwire/internal/draw"
	"patchwire/internal/vector"
)

const (
	wireSegments = 24
	textSize     = 11
)

// objectSurface turns replayed draw calls into Fyne canvas objects. Replay
// delivers channels in order, so appending keeps the compositing order.
type objectSurface struct {
	objects []fyne.CanvasObject
}

var _ draw.Surface = (*objectSurface)(nil)

func nrgba(c vector.Color) color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

func pos(p vector.Pt) fyne.Position { return fyne.NewPos(p.X, p.Y) }

func (s *objectSurface) SetChannel(draw.Channel) {}

func (s *objectSurface) Line(a, b vector.Pt, st vector.Stroke) {
	if !st.Enabled {
		return
	}
	l := canvas.NewLine(nrgba(st.Color))
	l.StrokeWidth = st.Width
	l.Position1, l.Position2 = pos(a), pos(b)
	s.objects = append(s.objects, l)
}

func (s *objectSurface) Rect(r vector.Rect, st vector.Stroke) {
	if !st.Enabled {
		return
	}
	rc := canvas.NewRectangle(color.Transparent)
	rc.StrokeColor = nrgba(st.Color)
	rc.StrokeWidth = st.Width
	s.place(rc, r)
}

func (s *objectSurface) FillRect(r vector.Rect, f vector.Fill) {
	if !f.Enabled {
		return
	}
	s.place(canvas.NewRectangle(nrgba(f.Color)), r)
}

func (s *objectSurface) place(o fyne.CanvasObject, r vector.Rect) {
	o.Move(fyne.NewPos(r.X, r.Y))
	o.Resize(fyne.NewSize(r.W, r.H))
	s.objects = append(s.objects, o)
}

func (s *objectSurface) Circle(c vector.Pt, radius float32, f vector.Fill, st vector.Stroke) {
	ci := canvas.NewCircle(color.Transparent)
	if f.Enabled {
		ci.FillColor = nrgba(f.Color)
	}
	if st.Enabled {
		ci.StrokeColor = nrgba(st.Color)
		ci.StrokeWidth = st.Width
	}
	ci.Position1 = fyne.NewPos(c.X-radius, c.Y-radius)
	ci.Position2 = fyne.NewPos(c.X+radius, c.Y+radius)
	s.objects = append(s.objects, ci)
}

// Bezier is drawn as a polyline; Fyne has no curve primitive.
func (s *objectSurface) Bezier(c vector.Cubic, st vector.Stroke) {
	path := c.Path()
	pts := path.Flatten(wireSegments)
	for i := 1; i < len(pts); i++ {
		s.Line(pts[i-1], pts[i], st)
	}
}

func (s *objectSurface) Text(p vector.Pt, str string, c vector.Color) {
	t := canvas.NewText(str, nrgba(c))
	t.TextSize = textSize
	// Fyne positions text by its top-left corner.
	t.Move(fyne.NewPos(p.X, p.Y-textSize))
	s.objects = append(s.objects, t)
}
