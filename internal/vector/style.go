/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Styles and paint definitions consumed by draw surfaces.

type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}
)

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b, A: 255} }

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a uint8) Color {
	c.A = a
	return c
}

// Lighten moves each channel towards white by f in [0,1].
func (c Color) Lighten(f float32) Color {
	f = Clamp(f, 0, 1)
	mix := func(v uint8) uint8 { return uint8(float32(v) + (255-float32(v))*f) }
	return Color{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: c.A}
}

type Fill struct {
	Color   Color
	Enabled bool
}

// Solid is an enabled fill of color c.
func Solid(c Color) Fill { return Fill{Color: c, Enabled: true} }

type Stroke struct {
	Color   Color
	Width   float32
	Enabled bool
}

// Line is an enabled stroke of color c and width w.
func Line(c Color, w float32) Stroke { return Stroke{Color: c, Width: w, Enabled: true} }
