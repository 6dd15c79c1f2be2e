/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package textlayout measures label text for node layout. The measurement
// is deterministic so layouts are identical across hosts and in tests.
package textlayout

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, Height float32
}

// Measurer reports the pixel extent of a single line of text.
type Measurer interface {
	Width(s string) float32
	Metrics() Metrics
}

// Basic measures with x/image basicfont Face7x13.
type Basic struct {
	face font.Face
}

// NewBasic returns a measurer backed by basicfont.Face7x13.
func NewBasic() *Basic { return &Basic{face: basicfont.Face7x13} }

func (b *Basic) Width(s string) float32 {
	return toPx(font.MeasureString(b.face, s))
}

func (b *Basic) Metrics() Metrics {
	m := b.face.Metrics()
	return Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		Height:  float32(m.Height.Round()),
	}
}

func toPx(v fixed.Int26_6) float32 { return float32(v) / 64 }

const ellipsis = "..."

// Fit shortens s with a trailing ellipsis until it fits in maxWidth. When not
// even the ellipsis fits, the empty string is returned.
func Fit(m Measurer, s string, maxWidth float32) string {
	if m.Width(s) <= maxWidth {
		return s
	}
	r := []rune(s)
	for n := len(r) - 1; n >= 0; n-- {
		c := string(r[:n]) + ellipsis
		if m.Width(c) <= maxWidth {
			return c
		}
	}
	return ""
}
