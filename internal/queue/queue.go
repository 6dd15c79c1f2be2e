/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package queue holds structural edits requested during a frame until the
// frame's read pass is over. Commands are plain tagged records; Drain
// applies them in FIFO order exactly once.
package queue

import (
	"context"
	"log/slog"

	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	applog "patchwire/internal/log"
	"patchwire/internal/vector"
)

// Op tags a command.
type Op uint8

const (
	CreateContext Op = iota + 1
	CreateNode
	SetParameter
	SetFloatSetting
	SetIntSetting
	SetBoolSetting
	SetEnumSetting
	SetBusSettingFromFile
	ConnectBusToBus
	ConnectBusToParam
	Disconnect
	DeleteNode
	StartOrStop
	Trigger
)

var opNames = map[Op]string{
	CreateContext:         "create_context",
	CreateNode:            "create_node",
	SetParameter:          "set_parameter",
	SetFloatSetting:       "set_float_setting",
	SetIntSetting:         "set_int_setting",
	SetBoolSetting:        "set_bool_setting",
	SetEnumSetting:        "set_enum_setting",
	SetBusSettingFromFile: "set_bus_setting_from_file",
	ConnectBusToBus:       "connect_bus_to_bus",
	ConnectBusToParam:     "connect_bus_to_param",
	Disconnect:            "disconnect",
	DeleteNode:            "delete_node",
	StartOrStop:           "start_or_stop",
	Trigger:               "trigger",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "unknown"
}

// Ops lists every tag in declaration order.
func Ops() []Op {
	out := make([]Op, 0, len(opNames))
	for o := CreateContext; o <= Trigger; o++ {
		out = append(out, o)
	}
	return out
}

// Command is one deferred edit. Only the fields relevant to Op are set.
//
// Ports can be given by handle (SrcPort, DstPort) or, for scripted
// construction where the handles do not exist yet, by node and port name
// (SrcName/SrcPortName, DstName/DstPortName). Names are resolved when the
// command is applied.
type Command struct {
	Op Op

	// Name is the node name for CreateNode; Kind its unit kind.
	Name string
	Kind string

	// Src is the node for node-level ops, or the reserved entity for CreateNode.
	Src     ecs.Entity
	Dst     ecs.Entity
	SrcPort ecs.Entity
	DstPort ecs.Entity
	// Conn is the connection for Disconnect.
	Conn ecs.Entity

	SrcName, SrcPortName string
	DstName, DstPortName string

	Value engine.Value
	// Option names an enum option, for SetEnumSetting addressed by name.
	Option string
	Path   string
	Pos    vector.Pt
}

// Applier executes one command against the model. ctx is the drain's
// context and only carries logging scope.
type Applier interface {
	Apply(ctx context.Context, c Command) error
}

// ApplyFunc adapts a function to Applier.
type ApplyFunc func(context.Context, Command) error

func (f ApplyFunc) Apply(ctx context.Context, c Command) error { return f(ctx, c) }

// Observer is told about every applied command.
type Observer interface {
	Applied(op Op, err error)
}

// Queue is append-only between drains. Not safe for concurrent use.
type Queue struct {
	pending []Command
	obs     Observer
	log     *slog.Logger
}

// New returns an empty queue.
func New() *Queue { return &Queue{log: applog.WithComponent("queue")} }

// SetObserver installs o; nil removes it.
func (q *Queue) SetObserver(o Observer) { q.obs = o }

// Push appends a command.
func (q *Queue) Push(c Command) { q.pending = append(q.pending, c) }

// Len returns the number of pending commands.
func (q *Queue) Len() int { return len(q.pending) }

// Pending returns a copy of the pending commands.
func (q *Queue) Pending() []Command {
	out := make([]Command, len(q.pending))
	copy(out, q.pending)
	return out
}

// Drain applies the commands pending at call time in FIFO order and returns
// how many were applied. Commands pushed while draining wait for the next
// drain. Failures are logged with ctx and do not stop the drain.
func (q *Queue) Drain(ctx context.Context, a Applier) int {
	batch := q.pending
	q.pending = nil
	for _, c := range batch {
		err := a.Apply(ctx, c)
		if err != nil {
			q.log.WarnContext(ctx, "command failed", slog.String("op", c.Op.String()), slog.Any("err", err))
		}
		if q.obs != nil {
			q.obs.Applied(c.Op, err)
		}
	}
	return len(batch)
}
