/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/fatih/color"

	"patchwire/internal/config"
)

const testPatch = `
node "osc" {
  kind    = "Oscillator"
  running = true
}

node "amp" {
  kind = "Gain"
  x    = 400
  set  = { gain = 0.25 }
}

connect {
  from = "osc.out"
  to   = "amp.in"
}
`

func run(t *testing.T, args ...string) string {
	t.Helper()
	color.NoColor = true
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	configPath, initForce = "", false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func writePatch(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.hcl")
	if err := os.WriteFile(path, []byte(testPatch), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	if out := run(t, "version"); !strings.HasPrefix(out, "patchwire ") {
		t.Fatalf("version output %q", out)
	}
}

func TestUnitsListsCatalog(t *testing.T) {
	out := run(t, "units")
	for _, want := range []string{"Oscillator", "SpectrumAnalyzer", "schedulable"} {
		if !strings.Contains(out, want) {
			t.Fatalf("units output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectPrintsGraph(t *testing.T) {
	out := run(t, "inspect", writePatch(t))
	for _, want := range []string{"nodes=2 connections=1", "running", "gain=0.250000", "waveform=sine", "osc.out -> amp.in"} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestExportWritesPDF(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out", "demo.pdf")
	out := run(t, "export", writePatch(t), dst)
	if !strings.Contains(out, "wrote "+dst) {
		t.Fatalf("export output %q", out)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("not a PDF: %q", data[:8])
	}
}

func TestConfigInitThenShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	if out := run(t, "--config", path, "config", "init"); !strings.Contains(out, "wrote "+path) {
		t.Fatalf("init output %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "tick_hz: 60") {
		t.Fatalf("defaults not written:\n%s", data)
	}

	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	if err := rootCmd.Execute(); err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("second init without --force: %v", err)
	}
	run(t, "--config", path, "config", "init", "--force")

	t.Setenv("PW_LOG_LEVEL", "debug")
	out := run(t, "--config", path, "config", "show")
	for _, want := range []string{"# " + path, "level: debug", "logging.level overridden by PW_LOG_LEVEL"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "metrics.listen overridden") {
		t.Fatalf("unset variable reported as override:\n%s", out)
	}
}

func TestConfigInitUsesUserDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("config dir comes from AppData on windows")
	}
	home := t.TempDir()
	color.NoColor = true
	t.Setenv("HOME", home)
	configPath, initForce = "", false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"config", "init"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	want, err := config.ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(want, home) {
		t.Fatalf("config path %q outside HOME", want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("config not written: %v", err)
	}
}
