/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	applog "patchwire/internal/log"
	"patchwire/internal/vector"
)

var (
	// ErrInvalidHandle means a node, port or connection no longer exists.
	ErrInvalidHandle = errors.New("graph: invalid handle")
	// ErrIncompatible means the port kinds cannot be wired together.
	ErrIncompatible = errors.New("graph: incompatible connection")
)

// Graph owns the graph components in a registry and keeps the engine in sync.
//
// Engine units are shared between the node that created them and every
// connection touching them. A unit is destroyed in the engine once the last
// of those components is gone.
type Graph struct {
	reg    *ecs.Registry
	bridge engine.Bridge
	refs   map[engine.UnitID]int
	log    *slog.Logger
}

// New returns a graph storing its components in reg.
func New(reg *ecs.Registry, bridge engine.Bridge) *Graph {
	return &Graph{
		reg:    reg,
		bridge: bridge,
		refs:   make(map[engine.UnitID]int),
		log:    applog.WithComponent("graph"),
	}
}

// Registry is the store holding nodes, ports, connections and the layout
// components other packages attach to them.
func (g *Graph) Registry() *ecs.Registry { return g.reg }

// Bridge is the engine the graph keeps in sync.
func (g *Graph) Bridge() engine.Bridge { return g.bridge }

func (g *Graph) acquire(u engine.UnitID) { g.refs[u]++ }

func (g *Graph) release(u engine.UnitID) {
	n, ok := g.refs[u]
	if !ok {
		return
	}
	if n > 1 {
		g.refs[u] = n - 1
		return
	}
	delete(g.refs, u)
	g.bridge.Destroy(u)
	g.log.Debug("unit released", slog.Uint64("unit", uint64(u)))
}

// Refs returns the number of components holding unit u.
func (g *Graph) Refs(u engine.UnitID) int { return g.refs[u] }

// CreateNode instantiates a unit of the given kind and a node for it with one
// port per unit input, output, parameter and setting. An empty or taken name
// is replaced by a unique one derived from the kind.
func (g *Graph) CreateNode(kind, name string) (ecs.Entity, error) {
	e := g.reg.Create()
	if _, err := g.CreateNodeAt(e, kind, name); err != nil {
		g.reg.Destroy(e)
		return ecs.Null, err
	}
	return e, nil
}

// CreateNodeAt is CreateNode for an entity reserved earlier with Registry.Create.
func (g *Graph) CreateNodeAt(e ecs.Entity, kind, name string) (ecs.Entity, error) {
	if !g.reg.Valid(e) || ecs.Has[Node](g.reg, e) {
		return ecs.Null, fmt.Errorf("create node %q: %w", kind, ErrInvalidHandle)
	}
	desc, ok := g.bridge.Describe(kind)
	if !ok {
		return ecs.Null, fmt.Errorf("create node: %w: %q", engine.ErrUnknownKind, kind)
	}
	unit, err := g.bridge.Create(kind)
	if err != nil {
		return ecs.Null, fmt.Errorf("create node %q: %w", kind, err)
	}
	g.acquire(unit)

	ecs.Assign(g.reg, e, Node{
		Name:        g.uniqueName(name, kind),
		Kind:        kind,
		Unit:        unit,
		CanSchedule: g.bridge.HasCapability(unit, engine.CapSchedulable),
		CanTrigger:  g.bridge.HasCapability(unit, engine.CapTriggerable),
	})
	ecs.Assign(g.reg, e, newPortIndex())
	if !ecs.Has[Position](g.reg, e) {
		ecs.Assign(g.reg, e, Position{})
	}

	add := func(k PortKind, list []engine.PortDesc, typed bool) {
		for i, d := range list {
			t := engine.TypeBus
			if typed {
				t = d.Type
			}
			g.addPort(e, Port{Kind: k, Type: t, Name: d.Name, Short: d.Short, Node: e, Index: i, Options: d.Options})
		}
	}
	add(BusInput, desc.Inputs, false)
	add(BusOutput, desc.Outputs, false)
	add(Parameter, desc.Params, true)
	add(Setting, desc.Settings, true)

	n, _ := ecs.Get[Node](g.reg, e)
	g.log.Debug("node created", slog.String("name", n.Name), slog.String("kind", kind), slog.Int("ports", len(n.Ports)))
	return e, nil
}

func (g *Graph) uniqueName(name, kind string) string {
	name = strings.TrimSpace(name)
	if name != "" && g.NodeByName(name) == ecs.Null {
		return name
	}
	base := name
	if base == "" {
		base = strings.ToLower(kind)
	}
	for i := 1; ; i++ {
		cand := base + strconv.Itoa(i)
		if g.NodeByName(cand) == ecs.Null {
			return cand
		}
	}
}

func (g *Graph) addPort(node ecs.Entity, p Port) ecs.Entity {
	pe := g.reg.Create()
	ecs.Assign(g.reg, pe, p)
	n, _ := ecs.Get[Node](g.reg, node)
	n.Ports = append(n.Ports, pe)
	if idx, err := ecs.Get[portIndex](g.reg, node); err == nil {
		idx.byKind[p.Kind][p.Name] = pe
	}
	if err := g.RefreshValue(pe); err != nil {
		g.log.Debug("no initial value", slog.String("port", p.Name), slog.Any("err", err))
	}
	return pe
}

// CreatePort adds a port to an existing node, for units that expose new
// buses at runtime. The engine index is the next free one for that kind.
func (g *Graph) CreatePort(node ecs.Entity, kind PortKind, name, short string, t engine.DataType) (ecs.Entity, error) {
	n, err := ecs.Get[Node](g.reg, node)
	if err != nil {
		return ecs.Null, fmt.Errorf("create port %q: %w", name, ErrInvalidHandle)
	}
	index := 0
	for _, pe := range n.Ports {
		if p, err := ecs.Get[Port](g.reg, pe); err == nil && p.Kind == kind {
			index = max(index, p.Index+1)
		}
	}
	if kind == BusInput || kind == BusOutput {
		t = engine.TypeBus
	}
	return g.addPort(node, Port{Kind: kind, Type: t, Name: name, Short: short, Node: node, Index: index}), nil
}

// RemovePort disconnects and destroys a single port. Its index entry is left
// for FindPortByName to evict.
func (g *Graph) RemovePort(port ecs.Entity) error {
	p, err := ecs.Get[Port](g.reg, port)
	if err != nil {
		return fmt.Errorf("remove port: %w", ErrInvalidHandle)
	}
	for _, c := range g.ConnectionsOf(p.Node) {
		conn, _ := ecs.Get[Connection](g.reg, c)
		if conn.SrcPort == port || conn.DstPort == port {
			_ = g.Disconnect(c)
		}
	}
	if n, err := ecs.Get[Node](g.reg, p.Node); err == nil {
		n.Ports = slices.DeleteFunc(n.Ports, func(e ecs.Entity) bool { return e == port })
	}
	g.reg.Destroy(port)
	return nil
}

// DeleteNode removes a node and everything hanging off it. The engine unit
// is force-disconnected first, then the ports go, then every connection
// referencing the node, and finally the node's own unit reference.
func (g *Graph) DeleteNode(node ecs.Entity) error {
	n, err := ecs.Get[Node](g.reg, node)
	if err != nil {
		return fmt.Errorf("delete node: %w", ErrInvalidHandle)
	}
	unit, name := n.Unit, n.Name
	g.bridge.DisconnectAll(unit)

	for _, pe := range n.Ports {
		g.reg.Destroy(pe)
	}
	n.Ports = nil

	for _, c := range g.ConnectionsOf(node) {
		g.dropConnection(c)
	}

	ecs.Remove[portIndex](g.reg, node)
	g.reg.Destroy(node)
	g.release(unit)
	g.log.Debug("node deleted", slog.String("name", name))
	return nil
}

func (g *Graph) unitOf(node ecs.Entity) (engine.UnitID, bool) {
	n, err := ecs.Get[Node](g.reg, node)
	if err != nil {
		return engine.NoUnit, false
	}
	return n.Unit, true
}

// Connect wires src to dst and returns the connection. Incompatible or stale
// endpoints yield ecs.Null and an error; connecting an existing pair returns
// the existing connection.
func (g *Graph) Connect(src, dst ecs.Entity) (ecs.Entity, error) {
	sp, err1 := ecs.Get[Port](g.reg, src)
	dp, err2 := ecs.Get[Port](g.reg, dst)
	if err1 != nil || err2 != nil {
		return ecs.Null, fmt.Errorf("connect: %w", ErrInvalidHandle)
	}
	if !CanConnect(sp.Kind, dp.Kind) {
		return ecs.Null, fmt.Errorf("connect %s %q to %s %q: %w", sp.Kind, sp.Name, dp.Kind, dp.Name, ErrIncompatible)
	}
	su, ok1 := g.unitOf(sp.Node)
	du, ok2 := g.unitOf(dp.Node)
	if !ok1 || !ok2 {
		return ecs.Null, fmt.Errorf("connect: %w", ErrInvalidHandle)
	}
	if c := g.FindConnection(src, dst); c != ecs.Null {
		return c, nil
	}
	param := dp.Kind == Parameter
	if param {
		err1 = g.bridge.ConnectParam(su, sp.Index, du, dp.Index)
	} else {
		err1 = g.bridge.Connect(su, sp.Index, du, dp.Index)
	}
	if err1 != nil {
		return ecs.Null, fmt.Errorf("connect %q to %q: %w", sp.Name, dp.Name, err1)
	}
	c := g.reg.Create()
	ecs.Assign(g.reg, c, Connection{SrcNode: sp.Node, SrcPort: src, DstNode: dp.Node, DstPort: dst, Param: param})
	g.acquire(su)
	g.acquire(du)
	return c, nil
}

// Disconnect severs the engine link behind conn and removes the record. The
// record goes even when the engine refuses; its error is returned.
func (g *Graph) Disconnect(conn ecs.Entity) error {
	c, err := ecs.Get[Connection](g.reg, conn)
	if err != nil {
		return fmt.Errorf("disconnect: %w", ErrInvalidHandle)
	}
	sp, err1 := ecs.Get[Port](g.reg, c.SrcPort)
	dp, err2 := ecs.Get[Port](g.reg, c.DstPort)
	su, ok1 := g.unitOf(c.SrcNode)
	du, ok2 := g.unitOf(c.DstNode)
	var berr error
	if err1 == nil && err2 == nil && ok1 && ok2 {
		if c.Param {
			berr = g.bridge.DisconnectParam(su, sp.Index, du, dp.Index)
		} else {
			berr = g.bridge.Disconnect(su, sp.Index, du, dp.Index)
		}
		if berr != nil {
			berr = fmt.Errorf("disconnect %q from %q: %w", sp.Name, dp.Name, berr)
		}
	}
	g.dropConnection(conn)
	return berr
}

// dropConnection removes the record without talking to the engine link.
func (g *Graph) dropConnection(conn ecs.Entity) {
	c, err := ecs.Get[Connection](g.reg, conn)
	if err != nil {
		return
	}
	su, ok1 := g.unitOf(c.SrcNode)
	du, ok2 := g.unitOf(c.DstNode)
	g.reg.Destroy(conn)
	if ok1 {
		g.release(su)
	}
	if ok2 {
		g.release(du)
	}
}

// FindConnection returns the connection from src to dst, or ecs.Null.
func (g *Graph) FindConnection(src, dst ecs.Entity) ecs.Entity {
	for _, e := range ecs.View[Connection](g.reg) {
		c, _ := ecs.Get[Connection](g.reg, e)
		if c.SrcPort == src && c.DstPort == dst {
			return e
		}
	}
	return ecs.Null
}

// FindPortByName resolves a port through the node's name index. A stale
// entry is evicted and reported as ecs.Null.
func (g *Graph) FindPortByName(node ecs.Entity, kind PortKind, name string) ecs.Entity {
	idx, err := ecs.Get[portIndex](g.reg, node)
	if err != nil {
		return ecs.Null
	}
	names := idx.byKind[kind]
	e, ok := names[name]
	if !ok {
		return ecs.Null
	}
	if !g.reg.Valid(e) || !ecs.Has[Port](g.reg, e) {
		delete(names, name)
		return ecs.Null
	}
	return e
}

// IndexLen returns the number of index entries of a kind, stale ones included.
func (g *Graph) IndexLen(node ecs.Entity, kind PortKind) int {
	idx, err := ecs.Get[portIndex](g.reg, node)
	if err != nil {
		return 0
	}
	return len(idx.byKind[kind])
}

// NodeByName returns the node with the given display name, or ecs.Null.
func (g *Graph) NodeByName(name string) ecs.Entity {
	for _, e := range ecs.View[Node](g.reg) {
		if n, _ := ecs.Get[Node](g.reg, e); n.Name == name {
			return e
		}
	}
	return ecs.Null
}

// Nodes returns every node in creation order.
func (g *Graph) Nodes() []ecs.Entity {
	v := ecs.View[Node](g.reg)
	slices.Sort(v)
	return v
}

// Connections returns every connection in creation order.
func (g *Graph) Connections() []ecs.Entity {
	v := ecs.View[Connection](g.reg)
	slices.Sort(v)
	return v
}

// ConnectionsOf returns the connections that start or end at node.
func (g *Graph) ConnectionsOf(node ecs.Entity) []ecs.Entity {
	var out []ecs.Entity
	for _, e := range g.Connections() {
		c, _ := ecs.Get[Connection](g.reg, e)
		if c.SrcNode == node || c.DstNode == node {
			out = append(out, e)
		}
	}
	return out
}

// Ports returns the ports of node that are still valid.
func (g *Graph) Ports(node ecs.Entity) []ecs.Entity {
	n, err := ecs.Get[Node](g.reg, node)
	if err != nil {
		return nil
	}
	out := make([]ecs.Entity, 0, len(n.Ports))
	for _, pe := range n.Ports {
		if ecs.Has[Port](g.reg, pe) {
			out = append(out, pe)
		}
	}
	return out
}

// SetPosition moves a node on the canvas.
func (g *Graph) SetPosition(node ecs.Entity, p vector.Pt) error {
	if !ecs.Has[Node](g.reg, node) {
		return fmt.Errorf("set position: %w", ErrInvalidHandle)
	}
	ecs.Assign(g.reg, node, Position{Pt: p})
	return nil
}

// PositionOf returns the canvas origin of node.
func (g *Graph) PositionOf(node ecs.Entity) vector.Pt {
	if p, err := ecs.Get[Position](g.reg, node); err == nil {
		return p.Pt
	}
	return vector.Pt{}
}

// Summary is a one-line description used in logs and crash reports.
func (g *Graph) Summary() string {
	return fmt.Sprintf("nodes=%d connections=%d units=%d", ecs.Count[Node](g.reg), ecs.Count[Connection](g.reg), len(g.refs))
}
