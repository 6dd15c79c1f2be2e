/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"patchwire/internal/queue"
)

func TestAppliedCountsByStatus(t *testing.T) {
	r := New()
	r.Applied(queue.CreateNode, nil)
	r.Applied(queue.CreateNode, nil)
	r.Applied(queue.ConnectBusToBus, errors.New("boom"))

	if v := testutil.ToFloat64(r.CommandsTotal.WithLabelValues("create_node", "ok")); v != 2 {
		t.Fatalf("create_node ok = %v, want 2", v)
	}
	if v := testutil.ToFloat64(r.CommandsTotal.WithLabelValues("connect_bus_to_bus", "error")); v != 1 {
		t.Fatalf("connect error = %v, want 1", v)
	}
}

func TestGraphTickAndProfile(t *testing.T) {
	r := New()
	r.Graph(3, 2)
	r.Tick(2 * time.Millisecond)
	r.Tick(3 * time.Millisecond)
	r.Profile([]Unit{{Node: "osc", Kind: "Oscillator", Self: 500 * time.Millisecond, Cumulative: time.Second}})

	if v := testutil.ToFloat64(r.Nodes); v != 3 {
		t.Fatalf("nodes = %v", v)
	}
	if v := testutil.ToFloat64(r.Connections); v != 2 {
		t.Fatalf("connections = %v", v)
	}
	if v := testutil.ToFloat64(r.TicksTotal); v != 2 {
		t.Fatalf("ticks = %v", v)
	}
	if v := testutil.ToFloat64(r.UnitCumSeconds.WithLabelValues("osc", "Oscillator")); v != 1 {
		t.Fatalf("cumulative = %v", v)
	}

	r.Profile(nil)
	if n := testutil.CollectAndCount(r.UnitSelfSeconds); n != 0 {
		t.Fatalf("stale unit gauges survived: %d", n)
	}
}

func TestHandlerServesText(t *testing.T) {
	r := New()
	r.Applied(queue.Trigger, nil)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `patchwire_commands_total{op="trigger",status="ok"} 1`) {
		t.Fatalf("metric missing from output:\n%s", body)
	}
}
