/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package interact turns pointer input into gestures. It is a pure state
// machine: Update takes the previous Context and this frame's Input and
// returns the next Context. Structural edits are never applied here; they
// are pushed to the queue and run after the frame's read pass.
package interact

import (
	"context"
	"log/slog"

	"patchwire/internal/canvas"
	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	"patchwire/internal/graph"
	"patchwire/internal/queue"
	"patchwire/internal/vector"
)

// State is the active gesture.
type State uint8

const (
	Idle State = iota
	PanningOrZooming
	DraggingNode
	DraggingWire
	EditingPortValue
	EditingConnection
	EditingNode
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PanningOrZooming:
		return "panning"
	case DraggingNode:
		return "dragging-node"
	case DraggingWire:
		return "dragging-wire"
	case EditingPortValue:
		return "editing-port-value"
	case EditingConnection:
		return "editing-connection"
	case EditingNode:
		return "editing-node"
	}
	return "unknown"
}

// Modal reports whether the state waits for a modal answer.
func (s State) Modal() bool {
	return s == EditingPortValue || s == EditingConnection || s == EditingNode
}

// Furniture is a title-band button.
type Furniture uint8

const (
	NoFurniture Furniture = iota
	StartStop
	TriggerButton
	Menu
)

// Hover holds the current hover target per category. At most one of Port,
// Label, Node and Connection is set; Furniture refines Node.
type Hover struct {
	Port       ecs.Entity
	Label      ecs.Entity
	Node       ecs.Entity
	Furniture  Furniture
	Connection ecs.Entity
}

// Empty reports whether nothing is hovered.
func (h Hover) Empty() bool {
	return h.Port == ecs.Null && h.Label == ecs.Null && h.Node == ecs.Null && h.Connection == ecs.Null
}

// Mouse is the pointer position in every space.
type Mouse struct {
	Screen vector.Pt
	Window vector.Pt
	Canvas vector.Pt
	// Click is the canvas position of the last press.
	Click vector.Pt
}

// Edit describes the target of the active gesture or modal.
type Edit struct {
	Port ecs.Entity
	Node ecs.Entity
	Conn ecs.Entity

	// NodeStart is the node position when a node drag began.
	NodeStart vector.Pt
	// WireFrom is the canvas anchor of the port a wire drag started at.
	WireFrom vector.Pt

	// Seed is the current value shown when a value modal opens.
	Seed    string
	Type    engine.DataType
	Options []string
}

// Context is the whole transient interaction state.
type Context struct {
	State State
	Mouse Mouse
	Hover Hover
	Edit  Edit
}

// ModalAction is the host's answer to an open modal.
type ModalAction uint8

const (
	NoAnswer ModalAction = iota
	ModalCommit
	ModalDelete
	ModalCancel
)

// ModalAnswer carries the action and, for commits, the entered text.
type ModalAnswer struct {
	Action ModalAction
	Text   string
}

// Input is the host's pointer state for one frame.
type Input struct {
	Screen    vector.Pt
	WindowPos vector.Pt
	Down      bool
	Pressed   bool
	Released  bool
	// Scroll is the wheel delta in notches; positive zooms in.
	Scroll float32
	// Hovered is false when the pointer is outside the editor region.
	Hovered bool
	Modal   ModalAnswer
}

// PathPicker asks the host for a file to load into a bus setting. It returns
// false when the user cancelled or the host answers asynchronously.
type PathPicker interface {
	Pick(port ecs.Entity) (string, bool)
}

// Config holds the interaction tunables.
type Config struct {
	ZoomStep  float32
	WiggleMax float32
	// WireTolerance is the hit distance for connections in window pixels.
	WireTolerance float32
	// Segments controls the curve approximation for wire hit tests.
	Segments int
}

// DefaultConfig matches the editor defaults.
func DefaultConfig() Config {
	return Config{ZoomStep: 1.1, WiggleMax: 80, WireTolerance: 6, Segments: 24}
}

// Env is what Update reads from and writes to.
type Env struct {
	Graph  *graph.Graph
	View   *canvas.Transform
	Queue  *queue.Queue
	Config Config
	Picker PathPicker
	Log    *slog.Logger

	// LogContext scopes log records, typically with the editor frame.
	LogContext context.Context
}
