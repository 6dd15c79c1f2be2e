/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package layout

import (
	"testing"

	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	"patchwire/internal/graph"
	"patchwire/internal/vector"
)

func setup(t *testing.T, kind string, at vector.Pt) (*graph.Graph, ecs.Entity) {
	t.Helper()
	g := graph.New(ecs.New(), engine.NewMemory(nil))
	n, err := g.CreateNode(kind, "")
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}
	if err := g.SetPosition(n, at); err != nil {
		t.Fatal(err)
	}
	New(DefaultConfig(), nil).Update(g)
	return g, n
}

func portLayout(t *testing.T, g *graph.Graph, node ecs.Entity, kind graph.PortKind, name string) PortLayout {
	t.Helper()
	p := g.FindPortByName(node, kind, name)
	pl, err := ecs.Get[PortLayout](g.Registry(), p)
	if err != nil {
		t.Fatalf("no layout for %s: %v", name, err)
	}
	return *pl
}

func TestThreeColumnNode(t *testing.T) {
	g, n := setup(t, "Filter", vector.Pt{X: 100, Y: 50})
	nl, err := ecs.Get[NodeLayout](g.Registry(), n)
	if err != nil {
		t.Fatalf("missing node layout: %v", err)
	}
	if nl.Columns != 3 || nl.Inputs != 3 || nl.Settings != 2 || nl.Outputs != 1 {
		t.Fatalf("column counts = %+v", nl)
	}
	if want := vector.R(100, 50, 360, 68); nl.Body != want {
		t.Fatalf("Body = %+v, want %+v", nl.Body, want)
	}
	if want := vector.R(100, 30, 360, 20); nl.Title != want {
		t.Fatalf("Title = %+v, want %+v", nl.Title, want)
	}
	if want := vector.R(100, 30, 20, 20); nl.Furniture != want {
		t.Fatalf("Furniture = %+v, want %+v", nl.Furniture, want)
	}
	if nl.Secondary.X != 120 {
		t.Fatalf("Secondary = %+v", nl.Secondary)
	}
	if h := nl.Hover(); h.Y != 30 || h.H != 88 {
		t.Fatalf("Hover = %+v", h)
	}

	in := portLayout(t, g, n, graph.BusInput, "in")
	if in.Column != 0 || in.Offset != 8 || in.Anchor() != (vector.Pt{X: 100, Y: 68}) {
		t.Fatalf("in = %+v anchor %+v", in, in.Anchor())
	}
	res := portLayout(t, g, n, graph.Parameter, "resonance")
	if res.Column != 0 || res.Offset != 48 {
		t.Fatalf("parameters must follow inputs in column 0: %+v", res)
	}
	mode := portLayout(t, g, n, graph.Setting, "mode")
	if mode.Column != 1 || mode.Label.X != 224 || mode.Icon.W != 0 {
		t.Fatalf("mode = %+v", mode)
	}
	if mode.Text != "mode lowpass" {
		t.Fatalf("mode label = %q", mode.Text)
	}
	out := portLayout(t, g, n, graph.BusOutput, "out")
	if out.Column != 2 || out.Anchor() != (vector.Pt{X: 460, Y: 68}) {
		t.Fatalf("out = %+v anchor %+v", out, out.Anchor())
	}
	if out.Label.X+out.Label.W > 460 {
		t.Fatalf("output label overflows the right edge: %+v", out.Label)
	}
}

func TestTwoColumnNodeWithoutSettings(t *testing.T) {
	g, n := setup(t, "Gain", vector.Pt{})
	nl, _ := ecs.Get[NodeLayout](g.Registry(), n)
	if nl.Columns != 2 || nl.Body.W != 240 || nl.Body.H != 48 {
		t.Fatalf("Gain layout = %+v", nl)
	}
	out := portLayout(t, g, n, graph.BusOutput, "out")
	if out.Column != 1 {
		t.Fatalf("outputs must use the last column: %+v", out)
	}
	if _, ok := PortAnchor(g.Registry(), g.FindPortByName(n, graph.BusOutput, "out")); !ok {
		t.Fatalf("PortAnchor missing")
	}
	if _, ok := PortAnchor(g.Registry(), ecs.Null); ok {
		t.Fatalf("PortAnchor on Null must fail")
	}
}

func TestLongLabelsAreFitted(t *testing.T) {
	g, n := setup(t, "Oscillator", vector.Pt{})
	f := portLayout(t, g, n, graph.Parameter, "frequency")
	if f.Label.W > DefaultConfig().Column {
		t.Fatalf("label wider than its column: %+v", f.Label)
	}
	if f.Text == "" || f.Text == "frequency 440.000000" {
		t.Fatalf("label not fitted: %q", f.Text)
	}
}

func TestRuntimePortPickedUpNextUpdate(t *testing.T) {
	g, n := setup(t, "Gain", vector.Pt{})
	if _, err := g.CreatePort(n, graph.BusOutput, "aux", "x", engine.TypeBus); err != nil {
		t.Fatal(err)
	}
	New(DefaultConfig(), nil).Update(g)
	aux := portLayout(t, g, n, graph.BusOutput, "aux")
	if aux.Offset != 28 {
		t.Fatalf("aux offset = %v, want 28", aux.Offset)
	}
}
