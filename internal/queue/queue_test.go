/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"patchwire/internal/engine"
	applog "patchwire/internal/log"
)

type countingObserver struct {
	ok, failed int
}

func (c *countingObserver) Applied(_ Op, err error) {
	if err != nil {
		c.failed++
		return
	}
	c.ok++
}

func TestDrainFIFOAndClears(t *testing.T) {
	q := New()
	q.Push(Command{Op: CreateNode, Kind: "Oscillator", Name: "osc"})
	q.Push(Command{Op: SetParameter, Value: engine.Float(0.5)})
	q.Push(Command{Op: Trigger})

	var seen []Command
	n := q.Drain(context.Background(), ApplyFunc(func(_ context.Context, c Command) error {
		seen = append(seen, c)
		return nil
	}))
	if n != 3 || q.Len() != 0 {
		t.Fatalf("Drain = %d, Len = %d", n, q.Len())
	}
	want := []Command{
		{Op: CreateNode, Kind: "Oscillator", Name: "osc"},
		{Op: SetParameter, Value: engine.Float(0.5)},
		{Op: Trigger},
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("applied commands mismatch (-want +got):\n%s", diff)
	}
	if q.Drain(context.Background(), ApplyFunc(func(context.Context, Command) error { t.Fatal("drained twice"); return nil })) != 0 {
		t.Fatalf("second drain must be empty")
	}
}

func TestPushDuringDrainRunsNextDrain(t *testing.T) {
	q := New()
	q.Push(Command{Op: DeleteNode})
	var order []Op
	apply := ApplyFunc(func(_ context.Context, c Command) error {
		order = append(order, c.Op)
		if c.Op == DeleteNode {
			q.Push(Command{Op: CreateContext})
		}
		return nil
	})
	if n := q.Drain(context.Background(), apply); n != 1 {
		t.Fatalf("first drain applied %d", n)
	}
	if q.Len() != 1 {
		t.Fatalf("command pushed during drain lost: Len=%d", q.Len())
	}
	q.Drain(context.Background(), apply)
	if diff := cmp.Diff([]Op{DeleteNode, CreateContext}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFailuresAreSwallowedAndObserved(t *testing.T) {
	q := New()
	obs := &countingObserver{}
	q.SetObserver(obs)
	q.Push(Command{Op: Disconnect})
	q.Push(Command{Op: StartOrStop})
	q.Push(Command{Op: Trigger})
	boom := errors.New("boom")
	n := q.Drain(context.Background(), ApplyFunc(func(_ context.Context, c Command) error {
		if c.Op == StartOrStop {
			return boom
		}
		return nil
	}))
	if n != 3 || obs.ok != 2 || obs.failed != 1 {
		t.Fatalf("n=%d ok=%d failed=%d", n, obs.ok, obs.failed)
	}
}

func TestFailureLogCarriesFrame(t *testing.T) {
	var buf bytes.Buffer
	applog.Init(applog.Options{Format: "json", Out: &buf})
	t.Cleanup(func() { applog.Init(applog.Options{}) })

	q := New()
	q.Push(Command{Op: ConnectBusToBus})
	ctx := applog.WithFrame(context.Background(), 9)
	q.Drain(ctx, ApplyFunc(func(got context.Context, _ Command) error {
		if f, ok := applog.FrameFrom(got); !ok || f != 9 {
			t.Fatalf("applier context frame = %d,%v", f, ok)
		}
		return errors.New("incompatible ports")
	}))

	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &rec); err != nil {
		t.Fatalf("log output %q: %v", buf.String(), err)
	}
	if rec["msg"] != "command failed" || rec["op"] != "connect_bus_to_bus" || rec["frame"] != float64(9) {
		t.Fatalf("record = %v", rec)
	}
}

func TestPendingIsACopy(t *testing.T) {
	q := New()
	q.Push(Command{Op: Trigger})
	p := q.Pending()
	p[0].Op = DeleteNode
	if q.Pending()[0].Op != Trigger {
		t.Fatalf("Pending leaked internal slice")
	}
}

func TestOpNames(t *testing.T) {
	ops := Ops()
	if len(ops) != len(opNames) {
		t.Fatalf("Ops() = %d, names = %d", len(ops), len(opNames))
	}
	for _, o := range ops {
		if o.String() == "unknown" {
			t.Fatalf("op %d has no name", o)
		}
	}
	if Op(0).String() != "unknown" {
		t.Fatalf("zero op must be unknown")
	}
}
