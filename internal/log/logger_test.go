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
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func lastJSON(t *testing.T, data []byte) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestFrameStampedOnJSONRecords(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Out: &buf})

	l := WithOperation(WithComponent("queue"), "drain")
	l.WarnContext(WithFrame(context.Background(), 12), "command failed", "cmd", "connect_bus_to_bus")
	m := lastJSON(t, buf.Bytes())
	if m["frame"] != float64(12) || m["component"] != "queue" || m["op"] != "drain" {
		t.Fatalf("record = %v", m)
	}
	if m["app"] != "patchwire" || m["msg"] != "command failed" {
		t.Fatalf("static attrs missing: %v", m)
	}

	l.Info("outside a tick")
	if m := lastJSON(t, buf.Bytes()); m["frame"] != nil {
		t.Fatalf("plain context must not carry a frame: %v", m)
	}
}

func TestFrameFromContext(t *testing.T) {
	if _, ok := FrameFrom(context.Background()); ok {
		t.Fatalf("empty context must not carry a frame")
	}
	if f, ok := FrameFrom(WithFrame(context.Background(), 42)); !ok || f != 42 {
		t.Fatalf("FrameFrom = %d,%v", f, ok)
	}
}

func TestFromEnv(t *testing.T) {
	for _, k := range []string{EnvLevel, EnvFormat, EnvSource, EnvFile} {
		t.Setenv(k, "")
	}
	if got := FromEnv(); got != (Options{Level: "info", Format: "console"}) {
		t.Fatalf("defaults = %+v", got)
	}

	t.Setenv(EnvLevel, "warn")
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvSource, "yes")
	t.Setenv(EnvFile, " /tmp/pw.log ")
	want := Options{Level: "warn", Format: "json", AddSource: true, File: "/tmp/pw.log"}
	if got := FromEnv(); got != want {
		t.Fatalf("FromEnv = %+v, want %+v", got, want)
	}
}

func TestRotatedFileGetsFramedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patchwire.log")
	Init(Options{Level: "info", File: path, Out: io.Discard})
	WithComponent("editor").InfoContext(WithFrame(context.Background(), 5), "drained")
	// re-init closes the file
	Init(Options{Out: io.Discard})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	m := lastJSON(t, data)
	if m["frame"] != float64(5) || m["component"] != "editor" {
		t.Fatalf("file record = %v", m)
	}
}

func TestLevelAppliesToEveryInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "error", Format: "json", Out: &buf})
	L().Warn("dropped")
	if buf.Len() != 0 {
		t.Fatalf("warn logged at error level: %s", buf.String())
	}
	Init(Options{Level: "debug", Format: "json", Out: &buf})
	L().Debug("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("debug not logged after re-init: %q", buf.String())
	}
}
