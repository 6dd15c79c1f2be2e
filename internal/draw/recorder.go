/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package draw

import "patchwire/internal/vector"

// OpKind names a recorded primitive.
type OpKind uint8

const (
	OpLine OpKind = iota + 1
	OpRect
	OpFillRect
	OpCircle
	OpBezier
	OpText
)

// Op is one recorded primitive. Only the fields used by Kind are set.
type Op struct {
	Kind    OpKind
	Channel Channel
	A, B    vector.Pt
	Rect    vector.Rect
	Curve   vector.Cubic
	Radius  float32
	Fill    vector.Fill
	Stroke  vector.Stroke
	Color   vector.Color
	Text    string
}

// Recorder is a Surface that buffers primitives per channel so they can be
// replayed in compositing order onto a surface that paints immediately.
type Recorder struct {
	cur Channel
	ops [channelCount][]Op
}

func (r *Recorder) SetChannel(c Channel) {
	if c < channelCount {
		r.cur = c
	}
}

func (r *Recorder) add(op Op) {
	op.Channel = r.cur
	r.ops[r.cur] = append(r.ops[r.cur], op)
}

func (r *Recorder) Line(a, b vector.Pt, s vector.Stroke) {
	r.add(Op{Kind: OpLine, A: a, B: b, Stroke: s})
}

func (r *Recorder) Rect(rc vector.Rect, s vector.Stroke) {
	r.add(Op{Kind: OpRect, Rect: rc, Stroke: s})
}

func (r *Recorder) FillRect(rc vector.Rect, f vector.Fill) {
	r.add(Op{Kind: OpFillRect, Rect: rc, Fill: f})
}

func (r *Recorder) Circle(c vector.Pt, radius float32, f vector.Fill, s vector.Stroke) {
	r.add(Op{Kind: OpCircle, A: c, Radius: radius, Fill: f, Stroke: s})
}

func (r *Recorder) Bezier(c vector.Cubic, s vector.Stroke) {
	r.add(Op{Kind: OpBezier, Curve: c, Stroke: s})
}

func (r *Recorder) Text(p vector.Pt, s string, c vector.Color) {
	r.add(Op{Kind: OpText, A: p, Text: s, Color: c})
}

// Ops returns every recorded primitive in compositing order.
func (r *Recorder) Ops() []Op {
	var out []Op
	for _, ch := range r.ops {
		out = append(out, ch...)
	}
	return out
}

// Count returns how many primitives of kind were recorded.
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for _, ch := range r.ops {
		for _, op := range ch {
			if op.Kind == kind {
				n++
			}
		}
	}
	return n
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	for i := range r.ops {
		r.ops[i] = r.ops[i][:0]
	}
	r.cur = Background
}

// Replay paints the recording onto dst, lowest channel first.
func (r *Recorder) Replay(dst Surface) {
	for ch, ops := range r.ops {
		dst.SetChannel(Channel(ch))
		for _, op := range ops {
			switch op.Kind {
			case OpLine:
				dst.Line(op.A, op.B, op.Stroke)
			case OpRect:
				dst.Rect(op.Rect, op.Stroke)
			case OpFillRect:
				dst.FillRect(op.Rect, op.Fill)
			case OpCircle:
				dst.Circle(op.A, op.Radius, op.Fill, op.Stroke)
			case OpBezier:
				dst.Bezier(op.Curve, op.Stroke)
			case OpText:
				dst.Text(op.A, op.Text, op.Color)
			}
		}
	}
}
