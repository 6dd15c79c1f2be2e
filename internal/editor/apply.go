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
	"context"
	"fmt"

	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	"patchwire/internal/graph"
	"patchwire/internal/queue"
	"patchwire/internal/vector"
)

// Apply executes one drained command. Every handle is checked by the graph;
// names are resolved here when a command carries no handle. Value writes
// addressed by port name go to the engine's by-name accessors.
func (e *Editor) Apply(ctx context.Context, c queue.Command) error {
	switch c.Op {
	case queue.CreateContext:
		id, err := e.bridge.NewContext()
		if err != nil {
			return fmt.Errorf("create context: %w", err)
		}
		e.contextID = id
		e.log.DebugContext(ctx, "context ready", "id", id)
		return nil

	case queue.CreateNode:
		return e.createNode(c)

	case queue.SetParameter:
		v := c.Value.Coerce(engine.TypeFloat).Float
		if byName(c) {
			node, err := e.resolveNode(c.Dst, c.DstName)
			if err != nil {
				return err
			}
			return e.graph.SetParameterByName(ctx, node, c.DstPortName, v)
		}
		port, err := e.dstPort(c, graph.Parameter)
		if err != nil {
			return err
		}
		return e.graph.SetParameter(port, v)

	case queue.SetFloatSetting, queue.SetIntSetting, queue.SetBoolSetting, queue.SetEnumSetting:
		if byName(c) {
			node, err := e.resolveNode(c.Dst, c.DstName)
			if err != nil {
				return err
			}
			if c.Op == queue.SetEnumSetting && c.Option != "" {
				return e.graph.SetEnumByName(ctx, node, c.DstPortName, c.Option)
			}
			return e.graph.SetSettingByName(ctx, node, c.DstPortName, c.Value)
		}
		port, err := e.dstPort(c, graph.Setting)
		if err != nil {
			return err
		}
		return e.graph.SetSetting(port, c.Value)

	case queue.SetBusSettingFromFile:
		port, err := e.dstPort(c, graph.Setting)
		if err != nil {
			return err
		}
		return e.graph.LoadBus(port, c.Path)

	case queue.ConnectBusToBus, queue.ConnectBusToParam:
		src, err := e.resolvePort(c.Src, c.SrcPort, graph.BusOutput, c.SrcName, c.SrcPortName)
		if err != nil {
			return err
		}
		kind := graph.BusInput
		if c.Op == queue.ConnectBusToParam {
			kind = graph.Parameter
		}
		dst, err := e.dstPort(c, kind)
		if err != nil {
			return err
		}
		_, err = e.graph.Connect(src, dst)
		return err

	case queue.Disconnect:
		return e.graph.Disconnect(c.Conn)

	case queue.DeleteNode:
		node, err := e.resolveNode(c.Src, c.SrcName)
		if err != nil {
			return err
		}
		return e.graph.DeleteNode(node)

	case queue.StartOrStop:
		node, err := e.resolveNode(c.Src, c.SrcName)
		if err != nil {
			return err
		}
		return e.graph.ToggleRunning(node)

	case queue.Trigger:
		node, err := e.resolveNode(c.Src, c.SrcName)
		if err != nil {
			return err
		}
		return e.graph.Trigger(node)
	}
	return fmt.Errorf("apply: unknown op %d", c.Op)
}

// byName reports whether a value write names its port instead of holding it.
func byName(c queue.Command) bool { return c.DstPort == ecs.Null && c.DstPortName != "" }

func (e *Editor) createNode(c queue.Command) error {
	node := c.Src
	reserved := node != ecs.Null
	if !reserved {
		node = e.reg.Create()
	}
	if !e.reg.Valid(node) {
		return fmt.Errorf("create node %q: %w", c.Kind, graph.ErrInvalidHandle)
	}
	if c.Pos != (vector.Pt{}) && !ecs.Has[graph.Node](e.reg, node) {
		ecs.Assign(e.reg, node, graph.Position{Pt: c.Pos})
	}
	if _, err := e.graph.CreateNodeAt(node, c.Kind, c.Name); err != nil {
		// A reserved entity that already holds a node is not ours to destroy.
		if !ecs.Has[graph.Node](e.reg, node) {
			e.reg.Destroy(node)
		}
		return err
	}
	return nil
}

func (e *Editor) dstPort(c queue.Command, kind graph.PortKind) (ecs.Entity, error) {
	return e.resolvePort(c.Dst, c.DstPort, kind, c.DstName, c.DstPortName)
}

func (e *Editor) resolveNode(node ecs.Entity, name string) (ecs.Entity, error) {
	if node != ecs.Null {
		return node, nil
	}
	if name != "" {
		if n := e.graph.NodeByName(name); n != ecs.Null {
			return n, nil
		}
	}
	return ecs.Null, fmt.Errorf("node %q: %w", name, graph.ErrInvalidHandle)
}

func (e *Editor) resolvePort(node, port ecs.Entity, kind graph.PortKind, nodeName, portName string) (ecs.Entity, error) {
	if port != ecs.Null {
		return port, nil
	}
	n, err := e.resolveNode(node, nodeName)
	if err != nil {
		return ecs.Null, err
	}
	p := e.graph.FindPortByName(n, kind, portName)
	if p == ecs.Null {
		return ecs.Null, fmt.Errorf("%s %q: %w", kind, portName, engine.ErrUnknownName)
	}
	return p, nil
}
