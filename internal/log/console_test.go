/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestConsoleLineLayout(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Out: &buf})

	l := WithOperation(WithComponent("editor"), "tick")
	l.InfoContext(WithFrame(context.Background(), 3), "drained", slog.Int("commands", 2), slog.String("state", "idle"))
	l.Debug("hidden")

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
	if !strings.Contains(out, " INF [editor] #3 drained op=tick commands=2 state=idle") {
		t.Fatalf("line = %q", out)
	}
	if strings.Contains(out, "app=") || strings.Contains(out, "ver=") {
		t.Fatalf("static attrs belong in the file only: %q", out)
	}
}

func TestConsoleGroupsAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	h := newConsole(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info enabled at warn level")
	}

	g := h.WithAttrs([]slog.Attr{slog.String("component", "graph")}).WithGroup("unit")
	r := slog.NewRecord(time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), slog.LevelError, "disconnect failed", 0)
	r.AddAttrs(
		slog.String("kind", "Gain"),
		slog.Float64("self", 0.25),
		slog.Any("err", errors.New("no such port")),
		slog.Group("link", slog.Int("src", 1), slog.Int("dst", 2)),
	)
	if err := g.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	want := `15:04:05.000 ERR [graph] disconnect failed unit.kind=Gain unit.self=0.25 unit.err="no such port" unit.link.src=1 unit.link.dst=2` + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("line =\n%q\nwant\n%q", got, want)
	}
}

func TestLevelTags(t *testing.T) {
	cases := map[slog.Level]string{
		slog.LevelDebug:     "DBG",
		slog.LevelInfo:      "INF",
		slog.LevelWarn:      "WRN",
		slog.LevelError:     "ERR",
		slog.LevelError + 4: "ERR",
	}
	for l, want := range cases {
		if got := levelTag(l); got != want {
			t.Fatalf("levelTag(%v) = %s, want %s", l, got, want)
		}
	}
}
