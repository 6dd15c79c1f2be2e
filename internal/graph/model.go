/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package graph is the editable node graph: nodes, their ports and the
// connections between them, stored as components in an ecs.Registry and
// mirrored into an engine.Bridge.
package graph

import (
	"time"

	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	"patchwire/internal/vector"
)

// PortKind is fixed when the port is created.
type PortKind uint8

const (
	BusInput PortKind = iota + 1
	BusOutput
	Parameter
	Setting
)

// PortKinds lists every kind in display order.
var PortKinds = []PortKind{BusInput, BusOutput, Parameter, Setting}

func (k PortKind) String() string {
	switch k {
	case BusInput:
		return "bus-input"
	case BusOutput:
		return "bus-output"
	case Parameter:
		return "parameter"
	case Setting:
		return "setting"
	}
	return "unknown"
}

// InputLike reports whether wires can end on this kind.
func (k PortKind) InputLike() bool { return k == BusInput || k == Parameter }

// CanConnect reports whether a wire from a src port to a dst port is valid.
// The only valid source is a bus output.
func CanConnect(src, dst PortKind) bool {
	return src == BusOutput && dst.InputLike()
}

// Node is the component carried by every node entity.
type Node struct {
	Name string
	Kind string
	Unit engine.UnitID
	// Ports in creation order: inputs, outputs, parameters, settings, then
	// anything added later.
	Ports []ecs.Entity

	CanSchedule bool
	CanTrigger  bool
	Running     bool

	Cumulative time.Duration
	Self       time.Duration
}

// Port is the component carried by every port entity.
type Port struct {
	Kind  PortKind
	Type  engine.DataType
	Name  string
	Short string
	Node  ecs.Entity
	// Index is the bus, parameter or setting index on the engine unit.
	Index   int
	Options []string
	Display string
}

// Connection is the component carried by every connection entity.
type Connection struct {
	SrcNode, SrcPort ecs.Entity
	DstNode, DstPort ecs.Entity
	// Param is set when the destination is a parameter rather than a bus input.
	Param bool
}

// Position is the canvas-space origin of a node.
type Position struct {
	vector.Pt
}

// portIndex maps port names to handles, per kind. Entries may go stale when
// a port is removed; FindPortByName evicts them on read.
type portIndex struct {
	byKind map[PortKind]map[string]ecs.Entity
}

func newPortIndex() portIndex {
	idx := portIndex{byKind: make(map[PortKind]map[string]ecs.Entity, len(PortKinds))}
	for _, k := range PortKinds {
		idx.byKind[k] = make(map[string]ecs.Entity)
	}
	return idx
}
