/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package patch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	"patchwire/internal/queue"
	"patchwire/internal/vector"
)

type fakeBuilder struct {
	next     ecs.Entity
	cmds     []queue.Command
	existing map[string]ecs.Entity
	kinds    map[string]string
}

func (f *fakeBuilder) Reserve() ecs.Entity {
	f.next++
	return 100 + f.next
}

func (f *fakeBuilder) Enqueue(c queue.Command) { f.cmds = append(f.cmds, c) }

func (f *fakeBuilder) Lookup(name string) (ecs.Entity, string, bool) {
	e, ok := f.existing[name]
	return e, f.kinds[name], ok
}

const script = `
node "osc" {
  kind    = "Oscillator"
  x       = 10
  y       = 20
  running = true
  set = {
    frequency = 220
    waveform  = "saw"
  }
}

node "amp" {
  kind = "Gain"
  x    = 200
}

connect {
  from = "osc.out"
  to   = "amp.in"
}

connect {
  from = "osc.out"
  to   = "amp.gain"
}
`

func TestParseAndBuild(t *testing.T) {
	f, err := Parse([]byte(script), "test.hcl")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Nodes) != 2 || len(f.Connects) != 2 {
		t.Fatalf("decoded %d nodes, %d connects", len(f.Nodes), len(f.Connects))
	}
	b := &fakeBuilder{}
	if err := f.Build(b, engine.BuiltinCatalog()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	osc, amp := ecs.Entity(101), ecs.Entity(102)
	want := []queue.Command{
		{Op: queue.CreateNode, Name: "osc", Kind: "Oscillator", Src: osc, Pos: vector.Pt{X: 10, Y: 20}},
		{Op: queue.SetParameter, Dst: osc, DstPortName: "frequency", Value: engine.Float(220)},
		{Op: queue.SetEnumSetting, Dst: osc, DstPortName: "waveform", Value: engine.Enum(2), Option: "saw"},
		{Op: queue.StartOrStop, Src: osc},
		{Op: queue.CreateNode, Name: "amp", Kind: "Gain", Src: amp, Pos: vector.Pt{X: 200}},
		{Op: queue.ConnectBusToBus, Src: osc, SrcPortName: "out", Dst: amp, DstPortName: "in"},
		{Op: queue.ConnectBusToParam, Src: osc, SrcPortName: "out", Dst: amp, DstPortName: "gain"},
	}
	if diff := cmp.Diff(want, b.cmds); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestConnectToExistingNode(t *testing.T) {
	f, err := Parse([]byte(`
node "s" {
  kind = "Sampler"
  set = {
    sample = "kick.wav"
    loop   = true
  }
}
connect {
  from = "s.out"
  to   = "main.left"
}
`), "x.hcl")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	b := &fakeBuilder{existing: map[string]ecs.Entity{"main": 7}, kinds: map[string]string{"main": "Output"}}
	if err := f.Build(b, engine.BuiltinCatalog()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []queue.Command{
		{Op: queue.CreateNode, Name: "s", Kind: "Sampler", Src: 101},
		{Op: queue.SetBoolSetting, Dst: 101, DstPortName: "loop", Value: engine.Bool(true)},
		{Op: queue.SetBusSettingFromFile, Dst: 101, DstPortName: "sample", Path: "kick.wav"},
		{Op: queue.ConnectBusToBus, Src: 101, SrcPortName: "out", Dst: 7, DstPortName: "left"},
	}
	if diff := cmp.Diff(want, b.cmds); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRejectsBadScripts(t *testing.T) {
	cases := map[string]string{
		"unknown kind":  `node "a" { kind = "Theremin" }`,
		"unknown set":   "node \"a\" {\n kind = \"Gain\"\n set = { volume = 1 }\n}",
		"bad enum":      "node \"a\" {\n kind = \"Oscillator\"\n set = { waveform = \"noise\" }\n}",
		"not startable": "node \"a\" {\n kind = \"Gain\"\n running = true\n}",
		"bad ref":       "node \"a\" { kind = \"Gain\" }\nconnect {\n from = \"a\"\n to = \"a.in\"\n}",
		"unknown node":  "node \"a\" { kind = \"Gain\" }\nconnect {\n from = \"b.out\"\n to = \"a.in\"\n}",
		"no output":     "node \"a\" { kind = \"Gain\" }\nconnect {\n from = \"a.in\"\n to = \"a.in\"\n}",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := Parse([]byte(src), name+".hcl")
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			b := &fakeBuilder{}
			err = f.Build(b, engine.BuiltinCatalog())
			if !errors.Is(err, ErrScript) {
				t.Fatalf("want ErrScript, got %v", err)
			}
			if len(b.cmds) != 0 || b.next != 0 {
				t.Fatalf("failed build enqueued %d commands, reserved %d", len(b.cmds), b.next)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte(`node "a" {`), "broken.hcl"); err == nil {
		t.Fatalf("expected syntax error")
	}
	if _, err := Parse([]byte(`node "a" { kind = "Gain" }
node "a" { kind = "Gain" }`), "dup.hcl"); !errors.Is(err, ErrScript) {
		t.Fatalf("duplicate node: %v", err)
	}
	typo := "node \"a\" { kind = \"Gain\" }\nconect {\n from = \"a.out\"\n to = \"a.in\"\n}"
	if _, err := Parse([]byte(typo), "typo.hcl"); err == nil || !strings.Contains(err.Error(), "Unsupported block type") {
		t.Fatalf("misspelled block: %v", err)
	}
	if _, err := Parse([]byte("version = 2\n"), "stray.hcl"); err == nil || !strings.Contains(err.Error(), "Unsupported argument") {
		t.Fatalf("stray attribute: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.hcl")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Nodes[0].Name != "osc" || !f.Nodes[0].Running {
		t.Fatalf("unexpected first node %+v", f.Nodes[0])
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.hcl")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
