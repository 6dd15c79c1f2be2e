/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor owns one graph editing session and drives it one tick at a
// time: layout, interaction, drawing, then the deferred command drain.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"patchwire/internal/canvas"
	"patchwire/internal/config"
	"patchwire/internal/draw"
	"patchwire/internal/ecs"
	"patchwire/internal/engine"
	"patchwire/internal/graph"
	"patchwire/internal/interact"
	"patchwire/internal/layout"
	applog "patchwire/internal/log"
	"patchwire/internal/metrics"
	"patchwire/internal/queue"
	"patchwire/internal/render"
	"patchwire/internal/textlayout"
	"patchwire/internal/vector"
)

// Options configures New. Zero fields select defaults.
type Options struct {
	Config   config.AppConfig
	Bridge   engine.Bridge
	Picker   interact.PathPicker
	Measurer textlayout.Measurer
	Metrics  *metrics.Recorder
}

// Editor is not safe for concurrent use. Hosts call Tick from their UI thread.
type Editor struct {
	reg    *ecs.Registry
	graph  *graph.Graph
	bridge engine.Bridge
	view   *canvas.Transform
	layout *layout.Engine
	queue  *queue.Queue
	render *render.Renderer
	icfg   interact.Config
	picker interact.PathPicker
	stats  *metrics.Recorder

	ctx       interact.Context
	frame     uint64
	contextID string
	log       *slog.Logger
	ilog      *slog.Logger
}

// New builds an editor. The runtime context is requested through the queue
// and exists after the first drain.
func New(opts Options) (*Editor, error) {
	cfg := opts.Config
	if cfg == (config.AppConfig{}) {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bridge := opts.Bridge
	if bridge == nil {
		var cat *engine.Catalog
		if cfg.Engine.Catalog != "" {
			c, err := engine.LoadCatalog(cfg.Engine.Catalog)
			if err != nil {
				return nil, fmt.Errorf("editor: %w", err)
			}
			cat = c
		}
		bridge = engine.NewMemory(cat)
	}

	reg := ecs.New()
	e := &Editor{
		reg:    reg,
		graph:  graph.New(reg, bridge),
		bridge: bridge,
		view:   canvas.New(cfg.Editor.MinZoom, cfg.Editor.MaxZoom),
		layout: layout.New(layout.Config{
			Title:  cfg.Layout.Title,
			Header: cfg.Layout.Header,
			Row:    cfg.Layout.Row,
			Column: cfg.Layout.Column,
			Icon:   cfg.Layout.Icon,
		}, opts.Measurer),
		queue: queue.New(),
		render: render.New(render.Options{
			Grid:      cfg.Editor.Grid,
			WiggleMax: cfg.Editor.WiggleMax,
		}),
		icfg: interact.Config{
			ZoomStep:      cfg.Editor.ZoomStep,
			WiggleMax:     cfg.Editor.WiggleMax,
			WireTolerance: cfg.Editor.WireHitTolerance,
			Segments:      interact.DefaultConfig().Segments,
		},
		picker: opts.Picker,
		stats:  opts.Metrics,
		log:    applog.WithComponent("editor"),
		ilog:   applog.WithComponent("interact"),
	}
	if e.stats != nil {
		e.queue.SetObserver(e.stats)
	}
	e.queue.Push(queue.Command{Op: queue.CreateContext})
	return e, nil
}

func (e *Editor) Graph() *graph.Graph           { return e.graph }
func (e *Editor) Registry() *ecs.Registry       { return e.reg }
func (e *Editor) Bridge() engine.Bridge         { return e.bridge }
func (e *Editor) View() *canvas.Transform       { return e.view }
func (e *Editor) Layout() *layout.Engine        { return e.layout }
func (e *Editor) Interaction() interact.Context { return e.ctx }
func (e *Editor) Pending() int                  { return e.queue.Len() }
func (e *Editor) Frame() uint64                 { return e.frame }

// ContextID is the runtime context id, empty until the first drain.
func (e *Editor) ContextID() string { return e.contextID }

// SetPicker replaces the bus file picker.
func (e *Editor) SetPicker(p interact.PathPicker) { e.picker = p }

// Resize tells the renderer how large the window is.
func (e *Editor) Resize(sz vector.Size) { e.render.SetViewport(sz) }

// Tick runs one frame. A nil surface skips drawing.
func (e *Editor) Tick(in interact.Input, s draw.Surface) {
	start := time.Now()
	e.frame++
	ctx := applog.WithFrame(context.Background(), e.frame)

	e.layout.Update(e.graph)
	e.ctx = interact.Update(e.ctx, in, interact.Env{
		Graph:  e.graph,
		View:   e.view,
		Queue:  e.queue,
		Config: e.icfg,
		Picker: e.picker,
		Log:    e.ilog,

		LogContext: ctx,
	})
	if s != nil {
		e.render.Frame(s, e.graph, e.view, e.ctx)
	}
	if n := e.queue.Drain(ctx, e); n > 0 {
		e.log.DebugContext(ctx, "drained", slog.Int("commands", n), slog.String("state", e.ctx.State.String()))
	}
	e.graph.RefreshProfile()
	e.observe(time.Since(start))
}

// Draw paints the current state without advancing the interaction.
func (e *Editor) Draw(s draw.Surface) {
	e.layout.Update(e.graph)
	e.render.Frame(s, e.graph, e.view, e.ctx)
}

// Flush drains until the queue is empty, for callers with no frame loop.
// Commands that keep re-queueing work are cut off after a few rounds.
func (e *Editor) Flush() int {
	ctx := applog.WithFrame(context.Background(), e.frame)
	total := 0
	for i := 0; i < 8 && e.queue.Len() > 0; i++ {
		total += e.queue.Drain(ctx, e)
	}
	e.layout.Update(e.graph)
	e.graph.RefreshProfile()
	return total
}

func (e *Editor) observe(d time.Duration) {
	if e.stats == nil {
		return
	}
	e.stats.Tick(d)
	e.Report()
}

// Report pushes the graph size and unit profile to the metrics recorder.
func (e *Editor) Report() {
	if e.stats == nil {
		return
	}
	nodes := e.graph.Nodes()
	e.stats.Graph(len(nodes), len(e.graph.Connections()))
	units := make([]metrics.Unit, 0, len(nodes))
	for _, ne := range nodes {
		n, err := ecs.Get[graph.Node](e.reg, ne)
		if err != nil {
			continue
		}
		units = append(units, metrics.Unit{Node: n.Name, Kind: n.Kind, Self: n.Self, Cumulative: n.Cumulative})
	}
	e.stats.Profile(units)
}

// Enqueue appends a command for the next drain.
func (e *Editor) Enqueue(c queue.Command) { e.queue.Push(c) }

// Reserve allocates an entity for a node a queued CreateNode will fill.
func (e *Editor) Reserve() ecs.Entity { return e.reg.Create() }

// Lookup finds a node by name.
func (e *Editor) Lookup(name string) (ecs.Entity, string, bool) {
	ne := e.graph.NodeByName(name)
	if ne == ecs.Null {
		return ecs.Null, "", false
	}
	n, _ := ecs.Get[graph.Node](e.reg, ne)
	return ne, n.Kind, true
}

// Summary describes the session for crash reports.
func (e *Editor) Summary() string {
	return fmt.Sprintf("%s frame=%d pending=%d state=%s context=%s",
		e.graph.Summary(), e.frame, e.queue.Len(), e.ctx.State, e.contextID)
}
