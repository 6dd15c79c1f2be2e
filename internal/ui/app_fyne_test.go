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

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"

	"patchwire/internal/draw"
	"patchwire/internal/editor"
	"patchwire/internal/interact"
	"patchwire/internal/vector"
)

func TestObjectSurface_ReplayOrder(t *testing.T) {
	var rec draw.Recorder
	rec.SetChannel(draw.Overlay)
	rec.Text(vector.Pt{X: 5, Y: 20}, "top", vector.RGB(255, 255, 255))
	rec.SetChannel(draw.Background)
	rec.FillRect(vector.R(0, 0, 10, 10), vector.Solid(vector.RGB(1, 2, 3)))
	rec.SetChannel(draw.Wires)
	rec.Bezier(vector.WireCurve(vector.Pt{}, vector.Pt{X: 100}, 80), vector.Line(vector.RGB(9, 9, 9), 2))

	var s objectSurface
	rec.Replay(&s)
	if len(s.objects) != 1+wireSegments+1 {
		t.Fatalf("objects = %d, want %d", len(s.objects), wireSegments+2)
	}
	if _, ok := s.objects[0].(*canvas.Rectangle); !ok {
		t.Fatalf("background must come first, got %T", s.objects[0])
	}
	txt, ok := s.objects[len(s.objects)-1].(*canvas.Text)
	if !ok || txt.Text != "top" {
		t.Fatalf("overlay text must come last, got %T", s.objects[len(s.objects)-1])
	}
	if txt.Position().Y != 20-textSize {
		t.Fatalf("text top = %v", txt.Position().Y)
	}
}

func TestGraphCanvas_InputEdges(t *testing.T) {
	ed, err := editor.New(editor.Options{})
	if err != nil {
		t.Fatal(err)
	}
	gc := NewGraphCanvas(ed)
	ev := &desktop.MouseEvent{Button: desktop.MouseButtonPrimary}
	ev.AbsolutePosition = fyne.NewPos(12, 34)

	gc.MouseIn(ev)
	gc.MouseDown(ev)
	in := gc.takeInput()
	if !in.Down || !in.Pressed || !in.Hovered || in.Screen != (vector.Pt{X: 12, Y: 34}) {
		t.Fatalf("unexpected input %+v", in)
	}
	if in = gc.takeInput(); in.Pressed || !in.Down {
		t.Fatalf("pressed must clear after one tick: %+v", in)
	}
	gc.MouseUp(ev)
	gc.Answer(interact.ModalAnswer{Action: interact.ModalCancel})
	in = gc.takeInput()
	if in.Down || !in.Released || in.Modal.Action != interact.ModalCancel {
		t.Fatalf("unexpected input %+v", in)
	}
	if in = gc.takeInput(); in.Modal.Action != interact.NoAnswer {
		t.Fatalf("modal answer delivered twice")
	}
	gc.MouseOut()
	if gc.takeInput().Hovered {
		t.Fatalf("hover must clear on MouseOut")
	}
}
