/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvOverridesCatalog(t *testing.T) {
	t.Setenv(EnvCatalog, "/opt/units.yaml")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if got, want := cfg.Engine.Catalog, "/opt/units.yaml"; got != want {
		t.Fatalf("Engine.Catalog = %q, want %q", got, want)
	}
	if name, ok := EnvOverrideFor("engine.catalog"); !ok || name != EnvCatalog {
		t.Fatalf("EnvOverrideFor(engine.catalog) = %q,%v", name, ok)
	}
}

func TestEnvOverridesMaxZoom(t *testing.T) {
	t.Setenv(EnvMaxZoom, "8")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Editor.MaxZoom != 8 {
		t.Fatalf("Editor.MaxZoom = %g, want 8", cfg.Editor.MaxZoom)
	}
}

func TestFileMergeKeepsDefaultsForUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("editor:\n  wiggle_max: 40\nlayout:\n  column: 150\nmetrics:\n  listen: 127.0.0.1:9464\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	def := Defaults()
	if cfg.Editor.WiggleMax != 40 || cfg.Layout.Column != 150 || cfg.Metrics.Listen != "127.0.0.1:9464" {
		t.Fatalf("file values not merged: %#v", cfg)
	}
	if cfg.Editor.MinZoom != def.Editor.MinZoom || cfg.Layout.Row != def.Layout.Row {
		t.Fatalf("defaults lost during merge: %#v", cfg)
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Editor.Grid = 16
	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Editor.Grid != 16 {
		t.Fatalf("Grid = %g, want 16", got.Editor.Grid)
	}
}

func TestValidateRejectsBadZoomRange(t *testing.T) {
	cfg := Defaults()
	cfg.Editor.MaxZoom = 0.1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	cfg = Defaults()
	cfg.Editor.ZoomStep = 1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for zoom_step, got %v", err)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/pw.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/pw.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/pw.log")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/pw.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}
