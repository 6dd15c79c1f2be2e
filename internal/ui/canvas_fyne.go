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
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"patchwire/internal/draw"
	"patchwire/internal/editor"
	"patchwire/internal/interact"
	"patchwire/internal/vector"
)

// GraphCanvas hosts an editor: it collects pointer events between ticks and
// shows the objects drawn by the last tick.
type GraphCanvas struct {
	widget.BaseWidget

	ed  *editor.Editor
	rec draw.Recorder

	mu      sync.Mutex
	in      interact.Input
	objects []fyne.CanvasObject

	// OnModal is called once when the editor enters a modal state.
	OnModal func(interact.Context)
	modal   bool
}

var (
	_ desktop.Mouseable = (*GraphCanvas)(nil)
	_ desktop.Hoverable = (*GraphCanvas)(nil)
	_ fyne.Scrollable   = (*GraphCanvas)(nil)
)

func NewGraphCanvas(ed *editor.Editor) *GraphCanvas {
	g := &GraphCanvas{ed: ed}
	g.ExtendBaseWidget(g)
	return g
}

func (g *GraphCanvas) MinSize() fyne.Size { return fyne.NewSize(640, 400) }

func (g *GraphCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	g.mu.Lock()
	g.in.Screen = pt(e.AbsolutePosition)
	g.in.Down, g.in.Pressed = true, true
	g.mu.Unlock()
}

func (g *GraphCanvas) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	g.mu.Lock()
	g.in.Screen = pt(e.AbsolutePosition)
	g.in.Down, g.in.Released = false, true
	g.mu.Unlock()
}

func (g *GraphCanvas) MouseIn(e *desktop.MouseEvent) {
	g.mu.Lock()
	g.in.Screen = pt(e.AbsolutePosition)
	g.in.Hovered = true
	g.mu.Unlock()
}

func (g *GraphCanvas) MouseMoved(e *desktop.MouseEvent) {
	g.mu.Lock()
	g.in.Screen = pt(e.AbsolutePosition)
	g.in.Hovered = true
	g.mu.Unlock()
}

func (g *GraphCanvas) MouseOut() {
	g.mu.Lock()
	g.in.Hovered = false
	g.mu.Unlock()
}

func (g *GraphCanvas) Scrolled(e *fyne.ScrollEvent) {
	g.mu.Lock()
	// one wheel notch is roughly 10 units on most drivers
	g.in.Scroll += e.Scrolled.DY / 10
	g.in.Screen = pt(e.AbsolutePosition)
	g.mu.Unlock()
}

// Answer delivers a modal result on the next tick.
func (g *GraphCanvas) Answer(a interact.ModalAnswer) {
	g.mu.Lock()
	g.in.Modal = a
	g.mu.Unlock()
}

// takeInput returns the input accumulated since the last tick and clears the
// edge-triggered fields.
func (g *GraphCanvas) takeInput() interact.Input {
	g.mu.Lock()
	defer g.mu.Unlock()
	in := g.in
	g.in.Pressed, g.in.Released = false, false
	g.in.Scroll = 0
	g.in.Modal = interact.ModalAnswer{}
	return in
}

func pt(p fyne.Position) vector.Pt { return vector.Pt{X: p.X, Y: p.Y} }

// Tick runs one editor frame. It must be called on the Fyne thread.
func (g *GraphCanvas) Tick() {
	in := g.takeInput()
	if app := fyne.CurrentApp(); app != nil {
		in.WindowPos = pt(app.Driver().AbsolutePositionForObject(g))
	}
	g.rec.Reset()
	g.ed.Tick(in, &g.rec)

	var surf objectSurface
	g.rec.Replay(&surf)
	g.mu.Lock()
	g.objects = surf.objects
	g.mu.Unlock()

	ctx := g.ed.Interaction()
	if ctx.State.Modal() && !g.modal {
		g.modal = true
		if g.OnModal != nil {
			g.OnModal(ctx)
		}
	} else if !ctx.State.Modal() {
		g.modal = false
	}
	g.Refresh()
}

func (g *GraphCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.NRGBA{R: 30, G: 31, B: 36, A: 255})
	return &graphCanvasRenderer{g: g, bg: bg}
}

type graphCanvasRenderer struct {
	g  *GraphCanvas
	bg *canvas.Rectangle
}

func (r *graphCanvasRenderer) Destroy()           {}
func (r *graphCanvasRenderer) MinSize() fyne.Size { return r.g.MinSize() }
func (r *graphCanvasRenderer) Refresh()           { canvas.Refresh(r.g) }

func (r *graphCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.g.ed.Resize(vector.Size{W: size.Width, H: size.Height})
}

func (r *graphCanvasRenderer) Objects() []fyne.CanvasObject {
	r.g.mu.Lock()
	defer r.g.mu.Unlock()
	out := make([]fyne.CanvasObject, 0, len(r.g.objects)+1)
	out = append(out, r.bg)
	return append(out, r.g.objects...)
}
