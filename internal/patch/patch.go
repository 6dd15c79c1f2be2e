/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package patch loads HCL patch scripts and turns them into queued editor
// commands. A script only builds a graph; there is no writer.
//
//	node "osc" {
//	  kind = "Oscillator"
//	  x    = 0
//	  y    = 40
//	  set  = { frequency = 220, waveform = "saw" }
//	}
//
//	connect {
//	  from = "osc.out"
//	  to   = "gain.in"
//	}
package patch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	applog "patchwire/internal/log"
	"patchwire/internal/queue"
	"patchwire/internal/vector"
)

// ErrScript marks a script that parsed but cannot be built.
var ErrScript = errors.New("patch: invalid script")

// File is the decoded form of one script.
// Anything else at the top level, a misspelled block included, is a decode
// error.
type File struct {
	Nodes    []*Node    `hcl:"node,block"`
	Connects []*Connect `hcl:"connect,block"`
}

type Node struct {
	Name    string    `hcl:"name,label"`
	Kind    string    `hcl:"kind"`
	X       float64   `hcl:"x,optional"`
	Y       float64   `hcl:"y,optional"`
	Running bool      `hcl:"running,optional"`
	Set     cty.Value `hcl:"set,optional"`
}

type Connect struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// Load parses the script at path.
func Load(path string) (*File, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", path, diags)
	}
	return decode(f, path)
}

// Parse decodes a script held in memory. filename is only used in diagnostics.
func Parse(src []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", filename, diags)
	}
	return decode(f, filename)
}

func decode(f *hcl.File, name string) (*File, error) {
	var out File
	if diags := gohcl.DecodeBody(f.Body, nil, &out); diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %w", name, diags)
	}
	seen := map[string]bool{}
	for _, n := range out.Nodes {
		if seen[n.Name] {
			return nil, fmt.Errorf("%w: node %q declared twice", ErrScript, n.Name)
		}
		seen[n.Name] = true
	}
	return &out, nil
}

// Builder is the editor side of a build.
type Builder interface {
	// Reserve returns an entity for a node that a later CreateNode will fill.
	Reserve() ecs.Entity
	Enqueue(queue.Command)
	// Lookup finds a node that already exists in the graph.
	Lookup(name string) (node ecs.Entity, kind string, ok bool)
}

// Describer resolves unit kinds; engine.Bridge and *engine.Catalog both are.
type Describer interface {
	Describe(kind string) (engine.UnitDesc, bool)
}

type target struct {
	node ecs.Entity
	desc engine.UnitDesc
}

// Build validates the whole script and then enqueues, in order: one
// CreateNode per node, its settings, its start command, then every
// connection. Nothing is enqueued when validation fails.
func (f *File) Build(b Builder, d Describer) error {
	log := applog.WithComponent("patch")
	var cmds []queue.Command
	targets := map[string]target{}

	for _, n := range f.Nodes {
		desc, ok := d.Describe(n.Kind)
		if !ok {
			return fmt.Errorf("%w: node %q: %w %q", ErrScript, n.Name, engine.ErrUnknownKind, n.Kind)
		}
		sets, err := settings(n, desc)
		if err != nil {
			return err
		}
		targets[n.Name] = target{desc: desc}
		cmds = append(cmds, queue.Command{
			Op:   queue.CreateNode,
			Name: n.Name,
			Kind: n.Kind,
			Pos:  vector.Pt{X: float32(n.X), Y: float32(n.Y)},
		})
		cmds = append(cmds, sets...)
		if n.Running {
			if !desc.Has(engine.CapSchedulable) {
				return fmt.Errorf("%w: node %q: kind %s cannot be started", ErrScript, n.Name, n.Kind)
			}
			cmds = append(cmds, queue.Command{Op: queue.StartOrStop, SrcName: n.Name})
		}
	}

	resolve := func(name string) (target, error) {
		if t, ok := targets[name]; ok {
			return t, nil
		}
		e, kind, ok := b.Lookup(name)
		if !ok {
			return target{}, fmt.Errorf("%w: unknown node %q", ErrScript, name)
		}
		desc, _ := d.Describe(kind)
		return target{node: e, desc: desc}, nil
	}
	for _, c := range f.Connects {
		cmd, err := connection(c, resolve)
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
	}

	// Reserve entities last so a failed build leaks nothing.
	reserved := map[string]ecs.Entity{}
	for _, n := range f.Nodes {
		reserved[n.Name] = b.Reserve()
	}
	for _, c := range cmds {
		if c.Op == queue.CreateNode {
			c.Src = reserved[c.Name]
		}
		if e, ok := reserved[c.DstName]; ok {
			c.Dst, c.DstName = e, ""
		}
		if e, ok := reserved[c.SrcName]; ok {
			c.Src, c.SrcName = e, ""
		}
		b.Enqueue(c)
	}
	log.Debug("patch built", "nodes", len(f.Nodes), "connections", len(f.Connects), "commands", len(cmds))
	return nil
}

func settings(n *Node, desc engine.UnitDesc) ([]queue.Command, error) {
	if n.Set.IsNull() {
		return nil, nil
	}
	if !n.Set.Type().IsObjectType() && !n.Set.Type().IsMapType() {
		return nil, fmt.Errorf("%w: node %q: set must be an object", ErrScript, n.Name)
	}
	vals := n.Set.AsValueMap()
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []queue.Command
	for _, k := range keys {
		cmd, err := setting(n.Name, k, vals[k], desc)
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

func setting(node, name string, v cty.Value, desc engine.UnitDesc) (queue.Command, error) {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s.%s: %s", ErrScript, node, name, fmt.Sprintf(format, args...))
	}
	if v.IsNull() || !v.IsKnown() {
		return queue.Command{}, bad("no value")
	}
	cmd := queue.Command{DstName: node, DstPortName: name}
	for _, p := range desc.Params {
		if p.Name == name {
			f, err := number(v)
			if err != nil {
				return cmd, bad("%v", err)
			}
			cmd.Op, cmd.Value = queue.SetParameter, engine.Float(f)
			return cmd, nil
		}
	}
	for _, p := range desc.Settings {
		if p.Name != name {
			continue
		}
		if p.Type == engine.TypeBus {
			if v.Type() != cty.String {
				return cmd, bad("bus settings take a file path")
			}
			cmd.Op, cmd.Path = queue.SetBusSettingFromFile, v.AsString()
			return cmd, nil
		}
		val, err := value(p, v)
		if err != nil {
			return cmd, bad("%v", err)
		}
		cmd.Op, cmd.Value = settingOp(p.Type), val
		if p.Type == engine.TypeEnum && v.Type() == cty.String {
			cmd.Option = strings.TrimSpace(v.AsString())
		}
		return cmd, nil
	}
	return queue.Command{}, bad("%v", engine.ErrUnknownName)
}

func settingOp(t engine.DataType) queue.Op {
	switch t {
	case engine.TypeInt:
		return queue.SetIntSetting
	case engine.TypeBool:
		return queue.SetBoolSetting
	case engine.TypeEnum:
		return queue.SetEnumSetting
	}
	return queue.SetFloatSetting
}

func value(p engine.PortDesc, v cty.Value) (engine.Value, error) {
	switch v.Type() {
	case cty.String:
		return engine.ParseValue(p.Type, v.AsString(), p.Options)
	case cty.Bool:
		return engine.Bool(v.True()).Coerce(p.Type), nil
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return engine.Float(f).Coerce(p.Type), nil
	}
	return engine.Value{}, fmt.Errorf("unsupported value type %s", v.Type().FriendlyName())
}

func number(v cty.Value) (float64, error) {
	if v.Type() != cty.Number {
		return 0, fmt.Errorf("want a number, got %s", v.Type().FriendlyName())
	}
	f, _ := v.AsBigFloat().Float64()
	return f, nil
}

// splitRef splits "node.port". The node part may itself contain dots.
func splitRef(ref string) (node, port string, err error) {
	i := strings.LastIndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return "", "", fmt.Errorf("%w: reference %q is not node.port", ErrScript, ref)
	}
	return ref[:i], ref[i+1:], nil
}

func connection(c *Connect, resolve func(string) (target, error)) (queue.Command, error) {
	srcName, srcPort, err := splitRef(c.From)
	if err != nil {
		return queue.Command{}, err
	}
	dstName, dstPort, err := splitRef(c.To)
	if err != nil {
		return queue.Command{}, err
	}
	src, err := resolve(srcName)
	if err != nil {
		return queue.Command{}, err
	}
	dst, err := resolve(dstName)
	if err != nil {
		return queue.Command{}, err
	}
	if !hasPort(src.desc.Outputs, srcPort) {
		return queue.Command{}, fmt.Errorf("%w: %s has no output %q", ErrScript, srcName, srcPort)
	}
	cmd := queue.Command{
		Src: src.node, SrcName: srcName, SrcPortName: srcPort,
		Dst: dst.node, DstName: dstName, DstPortName: dstPort,
	}
	switch {
	case hasPort(dst.desc.Inputs, dstPort):
		cmd.Op = queue.ConnectBusToBus
	case hasPort(dst.desc.Params, dstPort):
		cmd.Op = queue.ConnectBusToParam
	default:
		return queue.Command{}, fmt.Errorf("%w: %s has no input or parameter %q", ErrScript, dstName, dstPort)
	}
	// Existing nodes travel by handle; the name is only a fallback.
	if cmd.Src != ecs.Null {
		cmd.SrcName = ""
	}
	if cmd.Dst != ecs.Null {
		cmd.DstName = ""
	}
	return cmd, nil
}

func hasPort(ports []engine.PortDesc, name string) bool {
	for _, p := range ports {
		if p.Name == name {
			return true
		}
	}
	return false
}
