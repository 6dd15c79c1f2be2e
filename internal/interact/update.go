/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package interact

import (
	"context"
	"log/slog"

	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	"patchwire/internal/graph"
	"patchwire/internal/layout"
	applog "patchwire/internal/log"
	"patchwire/internal/queue"
)

// Update advances the state machine by one frame. The graph is only read,
// except for the position of a node being dragged; everything else the
// user asks for is pushed to env.Queue.
func Update(ctx Context, in Input, env Env) Context {
	if env.Log == nil {
		env.Log = applog.WithComponent("interact")
	}
	if env.LogContext == nil {
		env.LogContext = context.Background()
	}
	v := env.View
	v.SetWindowOffset(in.WindowPos)
	ctx.Mouse.Screen = in.Screen
	ctx.Mouse.Window = v.ScreenToWindow(in.Screen)
	ctx.Mouse.Canvas = v.ScreenToCanvas(in.Screen)

	switch {
	case ctx.State == DraggingNode:
		// keep the hover of the dragged node
	case in.Hovered:
		ctx.Hover = resolveHover(ctx.Mouse, env)
	default:
		ctx.Hover = Hover{}
	}

	switch ctx.State {
	case Idle:
		return idle(ctx, in, env)
	case PanningOrZooming:
		if in.Down && !in.Released {
			v.UpdatePan(in.Screen)
			return ctx
		}
		v.EndPan()
		return reset(ctx)
	case DraggingNode:
		if in.Down && !in.Released {
			pos := ctx.Edit.NodeStart.Add(ctx.Mouse.Canvas.Sub(ctx.Mouse.Click))
			if err := env.Graph.SetPosition(ctx.Edit.Node, pos); err != nil {
				return reset(ctx)
			}
			return ctx
		}
		return reset(ctx)
	case DraggingWire:
		if in.Down && !in.Released {
			return ctx
		}
		commitWire(ctx, env)
		return reset(ctx)
	case EditingPortValue, EditingConnection, EditingNode:
		return answerModal(ctx, in.Modal, env)
	}
	return reset(ctx)
}

func reset(ctx Context) Context {
	ctx.State = Idle
	ctx.Edit = Edit{}
	return ctx
}

func idle(ctx Context, in Input, env Env) Context {
	if !in.Hovered {
		return ctx
	}
	h := ctx.Hover
	if in.Scroll != 0 && h.Empty() {
		env.View.ZoomBy(in.Screen, env.Config.ZoomStep, in.Scroll)
	}
	if in.Pressed {
		return press(ctx, in, env)
	}
	if in.Released {
		switch {
		case h.Connection != ecs.Null:
			ctx.State = EditingConnection
			ctx.Edit = Edit{Conn: h.Connection}
		case h.Node != ecs.Null && h.Furniture == Menu:
			ctx.State = EditingNode
			ctx.Edit = Edit{Node: h.Node}
		}
	}
	return ctx
}

func press(ctx Context, in Input, env Env) Context {
	h := ctx.Hover
	reg := env.Graph.Registry()
	ctx.Mouse.Click = ctx.Mouse.Canvas
	switch {
	case h.Port != ecs.Null:
		from, _ := layout.PortAnchor(reg, h.Port)
		ctx.State = DraggingWire
		ctx.Edit = Edit{Port: h.Port, WireFrom: from}
	case h.Label != ecs.Null:
		return openValueEditor(ctx, h.Label, env)
	case h.Node != ecs.Null && h.Furniture == StartStop:
		env.Queue.Push(queue.Command{Op: queue.StartOrStop, Src: h.Node})
	case h.Node != ecs.Null && h.Furniture == TriggerButton:
		env.Queue.Push(queue.Command{Op: queue.Trigger, Src: h.Node})
	case h.Node != ecs.Null && h.Furniture == Menu:
		// opens on release
	case h.Connection != ecs.Null:
		// opens on release
	case h.Node != ecs.Null:
		ctx.State = DraggingNode
		ctx.Edit = Edit{Node: h.Node, NodeStart: env.Graph.PositionOf(h.Node)}
	default:
		ctx.State = PanningOrZooming
		env.View.BeginPan(in.Screen)
	}
	return ctx
}

func openValueEditor(ctx Context, pe ecs.Entity, env Env) Context {
	p, err := ecs.Get[graph.Port](env.Graph.Registry(), pe)
	if err != nil {
		return ctx
	}
	if p.Kind == graph.Setting && p.Type == engine.TypeBus {
		if env.Picker == nil {
			return ctx
		}
		if path, ok := env.Picker.Pick(pe); ok {
			env.Queue.Push(queue.Command{Op: queue.SetBusSettingFromFile, DstPort: pe, Path: path})
		}
		return ctx
	}
	seed := p.Display
	if val, err := env.Graph.Value(pe); err == nil {
		seed = val.Format(p.Options)
	}
	ctx.State = EditingPortValue
	ctx.Edit = Edit{Port: pe, Node: p.Node, Seed: seed, Type: p.Type, Options: p.Options}
	return ctx
}

// commitWire queues a connection for a wire dropped on a port. The pair is
// ordered so the bus output is the source; anything else is rejected.
func commitWire(ctx Context, env Env) {
	target := ctx.Hover.Port
	if target == ecs.Null || target == ctx.Edit.Port {
		return
	}
	reg := env.Graph.Registry()
	a, err1 := ecs.Get[graph.Port](reg, ctx.Edit.Port)
	b, err2 := ecs.Get[graph.Port](reg, target)
	if err1 != nil || err2 != nil {
		return
	}
	src, dst := ctx.Edit.Port, target
	if b.Kind == graph.BusOutput {
		src, dst = dst, src
		a, b = b, a
	}
	if !graph.CanConnect(a.Kind, b.Kind) {
		env.Log.InfoContext(env.LogContext, "connection rejected",
			slog.String("from", a.Kind.String()+" "+a.Name),
			slog.String("to", b.Kind.String()+" "+b.Name))
		return
	}
	op := queue.ConnectBusToBus
	if b.Kind == graph.Parameter {
		op = queue.ConnectBusToParam
	}
	env.Queue.Push(queue.Command{Op: op, Src: a.Node, SrcPort: src, Dst: b.Node, DstPort: dst})
}

func answerModal(ctx Context, ans ModalAnswer, env Env) Context {
	switch ans.Action {
	case NoAnswer:
		return ctx
	case ModalCancel:
		return reset(ctx)
	}
	switch ctx.State {
	case EditingPortValue:
		if ans.Action == ModalCommit {
			commitValue(ctx.Edit, ans.Text, env)
		}
	case EditingConnection:
		if ans.Action == ModalDelete {
			env.Queue.Push(queue.Command{Op: queue.Disconnect, Conn: ctx.Edit.Conn})
		}
	case EditingNode:
		if ans.Action == ModalDelete {
			env.Queue.Push(queue.Command{Op: queue.DeleteNode, Src: ctx.Edit.Node})
		}
	}
	return reset(ctx)
}

func commitValue(e Edit, text string, env Env) {
	p, err := ecs.Get[graph.Port](env.Graph.Registry(), e.Port)
	if err != nil {
		return
	}
	val, err := engine.ParseValue(p.Type, text, p.Options)
	if err != nil {
		env.Log.InfoContext(env.LogContext, "value rejected", slog.String("port", p.Name), slog.String("text", text), slog.Any("err", err))
		return
	}
	var op queue.Op
	switch {
	case p.Kind == graph.Parameter:
		op = queue.SetParameter
	case p.Type == engine.TypeFloat:
		op = queue.SetFloatSetting
	case p.Type == engine.TypeInt:
		op = queue.SetIntSetting
	case p.Type == engine.TypeBool:
		op = queue.SetBoolSetting
	case p.Type == engine.TypeEnum:
		op = queue.SetEnumSetting
	default:
		return
	}
	env.Queue.Push(queue.Command{Op: op, Dst: p.Node, DstPort: e.Port, Value: val})
}
