/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package canvas maps between canvas, window and screen coordinates.
//
//	window = canvas*Scale + Pan
//	screen = window + WindowOffset
package canvas

import (
	"math"

	"patchwire/internal/vector"
)

// DefaultMinScale is the lower zoom bound when none is configured.
const DefaultMinScale = 0.25

// Transform is the per-editor view state. The zero value is not usable; use New.
type Transform struct {
	WindowOffset vector.Pt
	Pan          vector.Pt
	Scale        float32
	MinScale     float32
	MaxScale     float32

	panning     bool
	panStart    vector.Pt
	pointerDown vector.Pt
}

// New returns an identity transform limited to [minScale, maxScale].
func New(minScale, maxScale float32) *Transform {
	if minScale <= 0 {
		minScale = DefaultMinScale
	}
	if maxScale < minScale {
		maxScale = minScale
	}
	return &Transform{Scale: 1, MinScale: minScale, MaxScale: maxScale}
}

// SetWindowOffset records where the editor window sits on screen this frame.
func (t *Transform) SetWindowOffset(p vector.Pt) { t.WindowOffset = p }

// ToWindow maps a canvas point into window space.
func (t *Transform) ToWindow(c vector.Pt) vector.Pt { return c.Mul(t.Scale).Add(t.Pan) }

// ToScreen maps a canvas point into screen space.
func (t *Transform) ToScreen(c vector.Pt) vector.Pt { return t.ToWindow(c).Add(t.WindowOffset) }

// ScreenToWindow drops the window offset.
func (t *Transform) ScreenToWindow(s vector.Pt) vector.Pt { return s.Sub(t.WindowOffset) }

// WindowToCanvas inverts ToWindow.
func (t *Transform) WindowToCanvas(w vector.Pt) vector.Pt { return w.Sub(t.Pan).Div(t.Scale) }

// ScreenToCanvas inverts ToScreen.
func (t *Transform) ScreenToCanvas(s vector.Pt) vector.Pt {
	return t.WindowToCanvas(t.ScreenToWindow(s))
}

// RectToWindow maps a canvas rect into window space.
func (t *Transform) RectToWindow(r vector.Rect) vector.Rect { return t.Matrix().ApplyRect(r) }

// Matrix is the canvas to window transform as an affine matrix.
func (t *Transform) Matrix() vector.Affine2D {
	return vector.Translate(t.Pan.X, t.Pan.Y).Mul(vector.Scale(t.Scale, t.Scale))
}

// PivotOffset returns the pan that keeps the canvas point under pointer p
// fixed when the scale changes from s0 to s1, given the current pan o0.
// p and o0 are in the same space.
func PivotOffset(p, o0 vector.Pt, s0, s1 float32) vector.Pt {
	return p.Sub(p.Sub(o0).Mul(s1 / s0))
}

// ZoomAt changes the scale, clamped to the limits, pivoting at a screen point.
func (t *Transform) ZoomAt(screen vector.Pt, scale float32) {
	scale = vector.Clamp(scale, t.MinScale, t.MaxScale)
	if scale == t.Scale {
		return
	}
	p := t.ScreenToWindow(screen)
	t.Pan = PivotOffset(p, t.Pan, t.Scale, scale)
	t.Scale = scale
}

// ZoomBy multiplies the scale by factor^steps at a screen point.
func (t *Transform) ZoomBy(screen vector.Pt, factor float32, steps float32) {
	t.ZoomAt(screen, t.Scale*float32(math.Pow(float64(factor), float64(steps))))
}

// BeginPan starts a pan gesture at a screen point.
func (t *Transform) BeginPan(screen vector.Pt) {
	t.panning = true
	t.panStart = t.Pan
	t.pointerDown = screen
}

// UpdatePan applies the total pointer movement since BeginPan.
func (t *Transform) UpdatePan(screen vector.Pt) {
	if !t.panning {
		return
	}
	t.Pan = t.panStart.Add(screen.Sub(t.pointerDown))
}

// EndPan finishes the pan gesture.
func (t *Transform) EndPan() { t.panning = false }

// Panning reports whether a pan gesture is active.
func (t *Transform) Panning() bool { return t.panning }

// Wire returns the connection curve between two canvas points in window
// space. The wiggle cap is in window pixels so wires look the same at any zoom.
func (t *Transform) Wire(from, to vector.Pt, wiggleMax float32) vector.Cubic {
	return vector.WireCurve(t.ToWindow(from), t.ToWindow(to), wiggleMax)
}
