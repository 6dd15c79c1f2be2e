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
	"context"
	"fmt"

	"patchwire/internal/ecs"
	"patchwire/internal/engine"
)

func (g *Graph) portAndUnit(port ecs.Entity) (*Port, engine.UnitID, error) {
	p, err := ecs.Get[Port](g.reg, port)
	if err != nil {
		return nil, engine.NoUnit, ErrInvalidHandle
	}
	u, ok := g.unitOf(p.Node)
	if !ok {
		return nil, engine.NoUnit, ErrInvalidHandle
	}
	return p, u, nil
}

// Value reads the current engine value behind a parameter or setting port.
func (g *Graph) Value(port ecs.Entity) (engine.Value, error) {
	p, u, err := g.portAndUnit(port)
	if err != nil {
		return engine.Value{}, fmt.Errorf("value: %w", err)
	}
	switch p.Kind {
	case Parameter:
		f, err := g.bridge.Param(u, p.Index)
		return engine.Float(f), err
	case Setting:
		return g.bridge.Setting(u, p.Index)
	}
	return engine.Value{Type: engine.TypeBus}, nil
}

// RefreshValue re-reads the engine value of a parameter or setting port into
// its display string. Bus ports display nothing.
func (g *Graph) RefreshValue(port ecs.Entity) error {
	p, err := ecs.Get[Port](g.reg, port)
	if err != nil || (p.Kind != Parameter && p.Kind != Setting) {
		return nil
	}
	v, err := g.Value(port)
	if err != nil {
		return fmt.Errorf("refresh %q: %w", p.Name, err)
	}
	p.Display = v.Format(p.Options)
	return nil
}

func (g *Graph) refreshNamed(node ecs.Entity, kind PortKind, name string) error {
	if pe := g.FindPortByName(node, kind, name); pe != ecs.Null {
		return g.RefreshValue(pe)
	}
	return nil
}

// SetParameter writes a parameter value through the bridge.
func (g *Graph) SetParameter(port ecs.Entity, v float64) error {
	p, u, err := g.portAndUnit(port)
	if err != nil {
		return fmt.Errorf("set parameter: %w", err)
	}
	if p.Kind != Parameter {
		return fmt.Errorf("set parameter on %s %q: %w", p.Kind, p.Name, ErrIncompatible)
	}
	if err := g.bridge.SetParam(u, p.Index, v); err != nil {
		return fmt.Errorf("set parameter %q: %w", p.Name, err)
	}
	return g.RefreshValue(port)
}

// SetSetting writes a setting value, coerced to the setting's type.
func (g *Graph) SetSetting(port ecs.Entity, v engine.Value) error {
	p, u, err := g.portAndUnit(port)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	if p.Kind != Setting || p.Type == engine.TypeBus {
		return fmt.Errorf("set setting on %s %q: %w", p.Kind, p.Name, ErrIncompatible)
	}
	if err := g.bridge.SetSetting(u, p.Index, v.Coerce(p.Type)); err != nil {
		return fmt.Errorf("set setting %q: %w", p.Name, err)
	}
	return g.RefreshValue(port)
}

// LoadBus loads a file into a bus-typed setting.
func (g *Graph) LoadBus(port ecs.Entity, path string) error {
	p, u, err := g.portAndUnit(port)
	if err != nil {
		return fmt.Errorf("load bus: %w", err)
	}
	if p.Kind != Setting || p.Type != engine.TypeBus {
		return fmt.Errorf("load bus into %s %q: %w", p.Kind, p.Name, ErrIncompatible)
	}
	if err := g.bridge.LoadBus(u, p.Index, path); err != nil {
		return fmt.Errorf("load bus %q: %w", p.Name, err)
	}
	return g.RefreshValue(port)
}

// SetParameterByName writes a parameter the engine resolves by name. Unknown
// names are logged by the engine helper and come back as
// engine.ErrUnknownName.
func (g *Graph) SetParameterByName(ctx context.Context, node ecs.Entity, name string, v float64) error {
	u, ok := g.unitOf(node)
	if !ok {
		return fmt.Errorf("set parameter %q: %w", name, ErrInvalidHandle)
	}
	if err := engine.SetParamByName(ctx, g.bridge, u, name, v); err != nil {
		return fmt.Errorf("set parameter: %w", err)
	}
	return g.refreshNamed(node, Parameter, name)
}

// SetSettingByName is SetParameterByName for scalar settings. The value is
// coerced to the type of the matching port when the node has one.
func (g *Graph) SetSettingByName(ctx context.Context, node ecs.Entity, name string, v engine.Value) error {
	u, ok := g.unitOf(node)
	if !ok {
		return fmt.Errorf("set setting %q: %w", name, ErrInvalidHandle)
	}
	if pe := g.FindPortByName(node, Setting, name); pe != ecs.Null {
		p, _ := ecs.Get[Port](g.reg, pe)
		if p.Type == engine.TypeBus {
			return fmt.Errorf("set setting %q: %w", name, ErrIncompatible)
		}
		v = v.Coerce(p.Type)
	}
	if err := engine.SetSettingByName(ctx, g.bridge, u, name, v); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return g.refreshNamed(node, Setting, name)
}

// SetEnumByName selects an option of an enum setting by its display name.
func (g *Graph) SetEnumByName(ctx context.Context, node ecs.Entity, setting, option string) error {
	u, ok := g.unitOf(node)
	if !ok {
		return fmt.Errorf("set enum %q: %w", setting, ErrInvalidHandle)
	}
	if err := engine.SetEnumByName(ctx, g.bridge, u, setting, option); err != nil {
		return fmt.Errorf("set enum %q: %w", setting, err)
	}
	return g.refreshNamed(node, Setting, setting)
}

// ToggleRunning starts a stopped node or stops a running one.
func (g *Graph) ToggleRunning(node ecs.Entity) error {
	n, err := ecs.Get[Node](g.reg, node)
	if err != nil {
		return fmt.Errorf("start/stop: %w", ErrInvalidHandle)
	}
	if !n.CanSchedule {
		return fmt.Errorf("start/stop %q: %w", n.Name, engine.ErrUnsupported)
	}
	if g.bridge.Running(n.Unit) {
		err = g.bridge.Stop(n.Unit)
	} else {
		err = g.bridge.Start(n.Unit)
	}
	n.Running = g.bridge.Running(n.Unit)
	if err != nil {
		return fmt.Errorf("start/stop %q: %w", n.Name, err)
	}
	return nil
}

// Trigger fires a triggerable node once.
func (g *Graph) Trigger(node ecs.Entity) error {
	n, err := ecs.Get[Node](g.reg, node)
	if err != nil {
		return fmt.Errorf("trigger: %w", ErrInvalidHandle)
	}
	if !n.CanTrigger {
		return fmt.Errorf("trigger %q: %w", n.Name, engine.ErrUnsupported)
	}
	if err := g.bridge.Trigger(n.Unit); err != nil {
		return fmt.Errorf("trigger %q: %w", n.Name, err)
	}
	return nil
}

// RefreshProfile copies the engine timing counters into every node.
func (g *Graph) RefreshProfile() {
	ecs.Each(g.reg, func(_ ecs.Entity, n *Node) {
		n.Cumulative, n.Self = g.bridge.Profile(n.Unit)
		n.Running = g.bridge.Running(n.Unit)
	})
}
