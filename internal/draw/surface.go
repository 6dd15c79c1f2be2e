/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package draw defines the drawing surface the renderer paints on. All
// coordinates are window space.
package draw

import "patchwire/internal/vector"

// Channel is a compositing layer. Whatever order primitives are issued in,
// a surface presents lower channels beneath higher ones.
type Channel uint8

const (
	Background Channel = iota
	Wires
	Nodes
	Overlay

	channelCount
)

// Surface receives drawing primitives.
type Surface interface {
	SetChannel(Channel)
	Line(a, b vector.Pt, s vector.Stroke)
	Rect(r vector.Rect, s vector.Stroke)
	FillRect(r vector.Rect, f vector.Fill)
	Circle(center vector.Pt, radius float32, f vector.Fill, s vector.Stroke)
	Bezier(c vector.Cubic, s vector.Stroke)
	// Text draws s with its baseline starting at p.
	Text(p vector.Pt, s string, c vector.Color)
}
