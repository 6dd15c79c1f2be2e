/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package metrics exposes editor activity as Prometheus metrics: applied
// commands, graph size, ticks and per-unit profile times.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patchwire/internal/queue"
)

// Recorder owns a private registry so several editors never collide.
type Recorder struct {
	registry *prometheus.Registry

	CommandsTotal   *prometheus.CounterVec
	Nodes           prometheus.Gauge
	Connections     prometheus.Gauge
	TicksTotal      prometheus.Counter
	TickDuration    prometheus.Histogram
	UnitSelfSeconds *prometheus.GaugeVec
	UnitCumSeconds  *prometheus.GaugeVec
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)
	r.CommandsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchwire_commands_total",
			Help: "Deferred commands applied, by op and status",
		},
		[]string{"op", "status"},
	)
	r.Nodes = f.NewGauge(prometheus.GaugeOpts{
		Name: "patchwire_graph_nodes",
		Help: "Nodes in the graph",
	})
	r.Connections = f.NewGauge(prometheus.GaugeOpts{
		Name: "patchwire_graph_connections",
		Help: "Connections in the graph",
	})
	r.TicksTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "patchwire_ticks_total",
		Help: "Editor ticks run",
	})
	r.TickDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "patchwire_tick_duration_seconds",
		Help:    "Wall time of one editor tick",
		Buckets: []float64{0.0005, 0.001, 0.004, 0.008, 0.016, 0.033, 0.1},
	})
	r.UnitSelfSeconds = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "patchwire_unit_self_seconds",
			Help: "Processing time spent in the unit itself",
		},
		[]string{"node", "kind"},
	)
	r.UnitCumSeconds = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "patchwire_unit_cumulative_seconds",
			Help: "Processing time of the unit including everything upstream",
		},
		[]string{"node", "kind"},
	)
	return r
}

// Applied implements queue.Observer.
func (r *Recorder) Applied(op queue.Op, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.CommandsTotal.WithLabelValues(op.String(), status).Inc()
}

// Tick records one finished tick.
func (r *Recorder) Tick(d time.Duration) {
	r.TicksTotal.Inc()
	r.TickDuration.Observe(d.Seconds())
}

// Graph sets the graph size gauges.
func (r *Recorder) Graph(nodes, connections int) {
	r.Nodes.Set(float64(nodes))
	r.Connections.Set(float64(connections))
}

// Unit is one profiled node.
type Unit struct {
	Node, Kind       string
	Self, Cumulative time.Duration
}

// Profile replaces the per-unit gauges, so deleted nodes disappear.
func (r *Recorder) Profile(units []Unit) {
	r.UnitSelfSeconds.Reset()
	r.UnitCumSeconds.Reset()
	for _, u := range units {
		r.UnitSelfSeconds.WithLabelValues(u.Node, u.Kind).Set(u.Self.Seconds())
		r.UnitCumSeconds.WithLabelValues(u.Node, u.Kind).Set(u.Cumulative.Seconds())
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
