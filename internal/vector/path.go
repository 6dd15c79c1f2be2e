/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Path commands for backends that draw from a command list.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
)

type PathCmd struct {
	Op   PathOp
	Data [6]float32 // enough for cubic; unused slots are zero
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float32{x, y}})
}
func (p *Path) LineTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float32{x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float32{cx1, cy1, cx2, cy2, x, y}})
}

// Flatten converts the path into a polyline, splitting every cubic into
// segments straight pieces. Backends without curve support draw the result.
func (p *Path) Flatten(segments int) []Pt {
	if segments < 1 {
		segments = 1
	}
	var out []Pt
	cur := Pt{}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo, LineTo:
			cur = Pt{c.Data[0], c.Data[1]}
			out = append(out, cur)
		case CubicTo:
			cb := Cubic{P0: cur, P1: Pt{c.Data[0], c.Data[1]}, P2: Pt{c.Data[2], c.Data[3]}, P3: Pt{c.Data[4], c.Data[5]}}
			for i := 1; i <= segments; i++ {
				out = append(out, cb.Eval(float32(i)/float32(segments)))
			}
			cur = cb.P3
		}
	}
	return out
}

// Bounds returns an axis-aligned bounding box over the path's points and
// control points.
func (p *Path) Bounds() Rect {
	minX, minY := float32(+1e9), float32(+1e9)
	maxX, maxY := float32(-1e9), float32(-1e9)
	grow := func(x, y float32) {
		minX, minY = min(minX, x), min(minY, y)
		maxX, maxY = max(maxX, x), max(maxY, y)
	}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo, LineTo:
			grow(c.Data[0], c.Data[1])
		case CubicTo:
			grow(c.Data[0], c.Data[1])
			grow(c.Data[2], c.Data[3])
			grow(c.Data[4], c.Data[5])
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
