/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Cubic is a cubic Bézier curve from P0 to P3 with control points P1, P2.
type Cubic struct{ P0, P1, P2, P3 Pt }

// Eval returns the point at parameter t in [0,1].
func (c Cubic) Eval(t float32) Pt {
	u := 1 - t
	w0 := u * u * u
	w1 := 3 * u * u * t
	w2 := 3 * u * t * t
	w3 := t * t * t
	return Pt{
		X: w0*c.P0.X + w1*c.P1.X + w2*c.P2.X + w3*c.P3.X,
		Y: w0*c.P0.Y + w1*c.P1.Y + w2*c.P2.Y + w3*c.P3.Y,
	}
}

// Path returns the curve as a MoveTo+CubicTo command list.
func (c Cubic) Path() Path {
	var p Path
	p.MoveTo(c.P0.X, c.P0.Y)
	p.CubicTo(c.P1.X, c.P1.Y, c.P2.X, c.P2.Y, c.P3.X, c.P3.Y)
	return p
}

// ClosestPoint approximates the point on the curve nearest to p by projecting
// p onto each of segments straight pieces.
func (c Cubic) ClosestPoint(p Pt, segments int) Pt {
	if segments < 1 {
		segments = 1
	}
	best := c.P0
	bestD := p.Dist2(best)
	prev := c.P0
	for i := 1; i <= segments; i++ {
		cur := c.Eval(float32(i) / float32(segments))
		q := closestOnSegment(prev, cur, p)
		if d := p.Dist2(q); d < bestD {
			best, bestD = q, d
		}
		prev = cur
	}
	return best
}

func closestOnSegment(a, b, p Pt) Pt {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return a
	}
	t := Clamp(p.Sub(a).Dot(ab)/l2, 0, 1)
	return a.Lerp(b, t)
}

// WireCurve returns the horizontal S-curve used for connections. The control
// point offset ("wiggle") is the endpoint distance capped at wiggleMax.
func WireCurve(from, to Pt, wiggleMax float32) Cubic {
	wiggle := min(from.Dist(to), wiggleMax)
	return Cubic{
		P0: from,
		P1: Pt{from.X + wiggle, from.Y},
		P2: Pt{to.X - wiggle, to.Y},
		P3: to,
	}
}
