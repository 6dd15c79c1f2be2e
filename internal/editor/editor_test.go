/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"patchwire/internal/draw"
	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	"patchwire/internal/graph"
	"patchwire/internal/interact"
	applog "patchwire/internal/log"
	"patchwire/internal/metrics"
	"patchwire/internal/patch"
	"patchwire/internal/queue"
	"patchwire/internal/vector"
)

type session struct {
	t   *testing.T
	ed  *Editor
	mem *engine.Memory
}

func newSession(t *testing.T) *session {
	t.Helper()
	mem := engine.NewMemory(nil)
	ed, err := New(Options{Bridge: mem})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &session{t: t, ed: ed, mem: mem}
}

func (s *session) tick(in interact.Input) {
	in.Hovered = true
	s.ed.Tick(in, nil)
}

func (s *session) press(x, y float32) {
	s.tick(interact.Input{Screen: vector.Pt{X: x, Y: y}, Down: true, Pressed: true})
}

func (s *session) move(x, y float32) {
	s.tick(interact.Input{Screen: vector.Pt{X: x, Y: y}, Down: true})
}

func (s *session) release(x, y float32) {
	s.tick(interact.Input{Screen: vector.Pt{X: x, Y: y}, Released: true})
}

func (s *session) answer(a interact.ModalAction, text string) {
	s.tick(interact.Input{Modal: interact.ModalAnswer{Action: a, Text: text}})
}

// pair places a Gain "A" at the origin and an Oscillator "B" at x=400.
func (s *session) pair() (a, b ecs.Entity) {
	s.t.Helper()
	g := s.ed.Graph()
	a, err := g.CreateNode("Gain", "A")
	if err != nil {
		s.t.Fatal(err)
	}
	b, err = g.CreateNode("Oscillator", "B")
	if err != nil {
		s.t.Fatal(err)
	}
	_ = g.SetPosition(b, vector.Pt{X: 400})
	return a, b
}

func (s *session) calls(op engine.CallOp) int {
	n := 0
	for _, c := range s.mem.Journal() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func TestFirstTickCreatesRuntimeContext(t *testing.T) {
	s := newSession(t)
	if s.ed.ContextID() != "" {
		t.Fatalf("context exists before the first drain")
	}
	s.tick(interact.Input{})
	if s.ed.ContextID() == "" {
		t.Fatalf("no runtime context after first tick")
	}
	if s.ed.Frame() != 1 {
		t.Fatalf("frame = %d", s.ed.Frame())
	}
}

func TestDragOutputToInputConnects(t *testing.T) {
	s := newSession(t)
	a, b := s.pair()
	s.press(760, 18)
	s.move(300, 30)
	s.release(1, 18)

	g := s.ed.Graph()
	conns := g.Connections()
	if len(conns) != 1 {
		t.Fatalf("connections = %d, want 1", len(conns))
	}
	c, _ := ecs.Get[graph.Connection](s.ed.Registry(), conns[0])
	if c.SrcNode != b || c.DstNode != a || c.Param {
		t.Fatalf("unexpected connection %+v", c)
	}
	if n := s.calls(engine.CallConnect); n != 1 {
		t.Fatalf("connect calls = %d, want 1", n)
	}
	if s.ed.Interaction().State != interact.Idle {
		t.Fatalf("state = %s", s.ed.Interaction().State)
	}
}

func TestEditParameterValue(t *testing.T) {
	s := newSession(t)
	a, _ := s.pair()
	s.press(20, 38)
	if st := s.ed.Interaction().State; st != interact.EditingPortValue {
		t.Fatalf("state = %s", st)
	}
	s.release(20, 38)
	s.answer(interact.ModalCommit, "0.5")

	g := s.ed.Graph()
	gain := g.FindPortByName(a, graph.Parameter, "gain")
	p, _ := ecs.Get[graph.Port](s.ed.Registry(), gain)
	if p.Display != "0.500000" {
		t.Fatalf("display = %q, want 0.500000", p.Display)
	}
	v, _ := g.Value(gain)
	if v.Float != 0.5 {
		t.Fatalf("value = %v", v)
	}
}

func TestDeleteNodeDisconnectsBeforeRemoval(t *testing.T) {
	s := newSession(t)
	a, b := s.pair()
	g := s.ed.Graph()
	if _, err := g.Connect(g.FindPortByName(b, graph.BusOutput, "out"), g.FindPortByName(a, graph.BusInput, "in")); err != nil {
		t.Fatal(err)
	}
	node, _ := ecs.Get[graph.Node](s.ed.Registry(), a)
	unit := node.Unit
	s.mem.ResetJournal()

	s.press(100, -10)
	s.release(100, -10)
	if st := s.ed.Interaction().State; st != interact.EditingNode {
		t.Fatalf("state = %s", st)
	}
	s.answer(interact.ModalDelete, "")

	if ecs.Has[graph.Node](s.ed.Registry(), a) {
		t.Fatalf("node A survived delete")
	}
	if n := len(g.Connections()); n != 0 {
		t.Fatalf("connections = %d, want 0", n)
	}
	disc, destroy := -1, -1
	for i, c := range s.mem.Journal() {
		if c.Src != unit {
			continue
		}
		switch c.Op {
		case engine.CallDisconnectAll:
			if disc < 0 {
				disc = i
			}
		case engine.CallDestroy:
			destroy = i
		}
	}
	if disc < 0 || destroy < 0 || disc > destroy {
		t.Fatalf("disconnect_all at %d, destroy at %d", disc, destroy)
	}
}

func TestCreateThenConnectInOneTick(t *testing.T) {
	s := newSession(t)
	_, b := s.pair()
	fresh := s.ed.Reserve()
	s.ed.Enqueue(queue.Command{Op: queue.CreateNode, Src: fresh, Kind: "Filter", Name: "lp", Pos: vector.Pt{Y: 200}})
	s.ed.Enqueue(queue.Command{Op: queue.ConnectBusToBus, Src: b, SrcPortName: "out", Dst: fresh, DstPortName: "in"})
	s.tick(interact.Input{})

	g := s.ed.Graph()
	if len(g.Connections()) != 1 {
		t.Fatalf("connections = %d, want 1", len(g.Connections()))
	}
	if got := g.PositionOf(fresh); got != (vector.Pt{Y: 200}) {
		t.Fatalf("position = %+v", got)
	}
	if n, _ := ecs.Get[graph.Node](s.ed.Registry(), fresh); n.Name != "lp" {
		t.Fatalf("name = %q", n.Name)
	}
}

func TestFailedCreateReleasesReservation(t *testing.T) {
	s := newSession(t)
	fresh := s.ed.Reserve()
	if err := s.ed.Apply(context.Background(), queue.Command{Op: queue.CreateNode, Src: fresh, Kind: "Nope"}); err == nil {
		t.Fatalf("expected unknown kind error")
	}
	if s.ed.Registry().Valid(fresh) {
		t.Fatalf("reserved entity leaked")
	}
}

func TestApplyResolvesNames(t *testing.T) {
	s := newSession(t)
	s.pair()
	steps := []queue.Command{
		{Op: queue.ConnectBusToParam, SrcName: "B", SrcPortName: "out", DstName: "A", DstPortName: "gain"},
		{Op: queue.SetEnumSetting, DstName: "B", DstPortName: "waveform", Value: engine.Enum(1)},
		{Op: queue.StartOrStop, SrcName: "B"},
	}
	for _, c := range steps {
		if err := s.ed.Apply(context.Background(), c); err != nil {
			t.Fatalf("%s: %v", c.Op, err)
		}
	}
	if err := s.ed.Apply(context.Background(), queue.Command{Op: queue.Trigger, SrcName: "ghost"}); err == nil {
		t.Fatalf("expected error for unknown node")
	}
	if err := s.ed.Apply(context.Background(), queue.Command{Op: queue.SetParameter, DstName: "A", DstPortName: "nope"}); err == nil {
		t.Fatalf("expected error for unknown port")
	}
	if n := s.calls(engine.CallConnectParam); n != 1 {
		t.Fatalf("connect_param calls = %d", n)
	}
	if n := s.calls(engine.CallStart); n != 1 {
		t.Fatalf("start calls = %d", n)
	}
}

func TestNamedValueWritesUseEngineNames(t *testing.T) {
	s := newSession(t)
	a, b := s.pair()
	g := s.ed.Graph()
	ctx := context.Background()
	steps := []queue.Command{
		{Op: queue.SetParameter, Dst: a, DstPortName: "gain", Value: engine.Float(0.25)},
		{Op: queue.SetEnumSetting, DstName: "B", DstPortName: "waveform", Option: "saw"},
		{Op: queue.SetFloatSetting, Dst: b, DstPortName: "waveform", Value: engine.Float(1)},
	}
	for _, c := range steps {
		if err := s.ed.Apply(ctx, c); err != nil {
			t.Fatalf("%s %s: %v", c.Op, c.DstPortName, err)
		}
	}
	gain, _ := ecs.Get[graph.Port](g.Registry(), g.FindPortByName(a, graph.Parameter, "gain"))
	wave, _ := ecs.Get[graph.Port](g.Registry(), g.FindPortByName(b, graph.Setting, "waveform"))
	if gain.Display != "0.250000" || wave.Display != "square" {
		t.Fatalf("displays = %q, %q", gain.Display, wave.Display)
	}
	if n := s.calls(engine.CallSetParam); n != 1 {
		t.Fatalf("set_param calls = %d", n)
	}
	if n := s.calls(engine.CallSetSetting); n != 2 {
		t.Fatalf("set_setting calls = %d", n)
	}

	err := s.ed.Apply(ctx, queue.Command{Op: queue.SetIntSetting, Dst: b, DstPortName: "voices", Value: engine.Int(2)})
	if !errors.Is(err, engine.ErrUnknownName) {
		t.Fatalf("expected ErrUnknownName, got %v", err)
	}
	err = s.ed.Apply(ctx, queue.Command{Op: queue.SetEnumSetting, Dst: b, DstPortName: "waveform", Option: "noise"})
	if err == nil {
		t.Fatalf("expected unknown option error")
	}
}

func TestFailedCommandLogCarriesTickFrame(t *testing.T) {
	var buf bytes.Buffer
	applog.Init(applog.Options{Format: "json", Out: &buf})
	t.Cleanup(func() { applog.Init(applog.Options{}) })

	s := newSession(t)
	s.tick(interact.Input{})
	s.ed.Enqueue(queue.Command{Op: queue.Trigger, SrcName: "ghost"})
	s.tick(interact.Input{})

	var found map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		if json.Unmarshal([]byte(line), &rec) == nil && rec["msg"] == "command failed" {
			found = rec
		}
	}
	if found == nil {
		t.Fatalf("no failure logged:\n%s", buf.String())
	}
	if found["frame"] != float64(s.ed.Frame()) || found["op"] != "trigger" {
		t.Fatalf("record = %v", found)
	}
}

func TestBuildPatchScript(t *testing.T) {
	s := newSession(t)
	f, err := patch.Parse([]byte(`
node "osc" {
  kind    = "Oscillator"
  running = true
  set = {
    frequency = 110
  }
}

node "amp" {
  kind = "Gain"
  x    = 400
}

connect {
  from = "osc.out"
  to   = "amp.in"
}
`), "t.hcl")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Build(s.ed, s.ed.Bridge()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	s.ed.Flush()

	g := s.ed.Graph()
	if len(g.Nodes()) != 2 || len(g.Connections()) != 1 {
		t.Fatalf("graph = %s", g.Summary())
	}
	osc := g.NodeByName("osc")
	n, _ := ecs.Get[graph.Node](s.ed.Registry(), osc)
	if !n.Running {
		t.Fatalf("osc not running")
	}
	freq := g.FindPortByName(osc, graph.Parameter, "frequency")
	if p, _ := ecs.Get[graph.Port](s.ed.Registry(), freq); p.Display != "110.000000" {
		t.Fatalf("frequency display = %q", p.Display)
	}
}

func TestMetricsAndDrawing(t *testing.T) {
	rec := metrics.New()
	ed, err := New(Options{Metrics: rec})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ed.Graph().CreateNode("Gain", ""); err != nil {
		t.Fatal(err)
	}
	surface := &draw.Recorder{}
	ed.Tick(interact.Input{Hovered: true}, surface)

	if v := testutil.ToFloat64(rec.TicksTotal); v != 1 {
		t.Fatalf("ticks = %v", v)
	}
	if v := testutil.ToFloat64(rec.CommandsTotal.WithLabelValues("create_context", "ok")); v != 1 {
		t.Fatalf("create_context = %v", v)
	}
	if v := testutil.ToFloat64(rec.Nodes); v != 1 {
		t.Fatalf("nodes gauge = %v", v)
	}
	if surface.Count(draw.OpText) == 0 {
		t.Fatalf("nothing drawn")
	}
	if !strings.Contains(ed.Summary(), "nodes=1") {
		t.Fatalf("summary = %q", ed.Summary())
	}
}
