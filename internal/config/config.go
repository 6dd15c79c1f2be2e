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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	applog "patchwire/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type EditorConfig struct {
	MinZoom          float32 `yaml:"min_zoom"`
	MaxZoom          float32 `yaml:"max_zoom"`
	ZoomStep         float32 `yaml:"zoom_step"`  // scale factor per scroll notch
	WiggleMax        float32 `yaml:"wiggle_max"` // upper bound of the wire control-point offset
	WireHitTolerance float32 `yaml:"wire_hit_tolerance"`
	Grid             float32 `yaml:"grid"`
	TickHz           int     `yaml:"tick_hz"`
}

type LayoutConfig struct {
	Title  float32 `yaml:"title"`
	Header float32 `yaml:"header"`
	Row    float32 `yaml:"row"`
	Column float32 `yaml:"column"`
	Icon   float32 `yaml:"icon"`
}

type EngineConfig struct {
	// Catalog is an optional YAML unit catalog replacing the built-in one.
	Catalog string `yaml:"catalog"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type MetricsConfig struct {
	// Listen is the address of the Prometheus endpoint; empty disables it.
	Listen string `yaml:"listen"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Layout        LayoutConfig  `yaml:"layout"`
	Engine        EngineConfig  `yaml:"engine"`
	Logging       LoggingConfig `yaml:"logging"`
	Metrics       MetricsConfig `yaml:"metrics"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor: EditorConfig{
			MinZoom: 0.25, MaxZoom: 4, ZoomStep: 1.1,
			WiggleMax: 80, WireHitTolerance: 6, Grid: 32, TickHz: 60,
		},
		Layout:  LayoutConfig{Title: 20, Header: 8, Row: 20, Column: 120, Icon: 10},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvCatalog       = "PW_ENGINE_CATALOG"
	EnvMetricsListen = "PW_METRICS_LISTEN"
	EnvMaxZoom       = "PW_MAX_ZOOM"
	// logging, shared with the log package
	EnvLogLevel  = applog.EnvLevel
	EnvLogFormat = applog.EnvFormat
	EnvLogSource = applog.EnvSource
	EnvLogFile   = applog.EnvFile
)

// ErrInvalid is wrapped by Validate.
var ErrInvalid = errors.New("config: invalid value")

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Patchwire")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Patchwire")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "patchwire")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit path. A missing or malformed file leaves the defaults in place.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg to path, creating parent directories.
func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks the numeric ranges the editor relies on.
func (c AppConfig) Validate() error {
	e := c.Editor
	if e.MinZoom <= 0 || e.MaxZoom < e.MinZoom {
		return fmt.Errorf("%w: zoom range [%g, %g]", ErrInvalid, e.MinZoom, e.MaxZoom)
	}
	if e.ZoomStep <= 1 {
		return fmt.Errorf("%w: zoom_step %g must exceed 1", ErrInvalid, e.ZoomStep)
	}
	if e.TickHz <= 0 {
		return fmt.Errorf("%w: tick_hz %d", ErrInvalid, e.TickHz)
	}
	l := c.Layout
	if l.Row <= 0 || l.Column <= 0 || l.Icon <= 0 {
		return fmt.Errorf("%w: layout row/column/icon must be positive", ErrInvalid)
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	mergeF := func(d *float32, s float32) {
		if s != 0 {
			*d = s
		}
	}
	mergeF(&dst.Editor.MinZoom, src.Editor.MinZoom)
	mergeF(&dst.Editor.MaxZoom, src.Editor.MaxZoom)
	mergeF(&dst.Editor.ZoomStep, src.Editor.ZoomStep)
	mergeF(&dst.Editor.WiggleMax, src.Editor.WiggleMax)
	mergeF(&dst.Editor.WireHitTolerance, src.Editor.WireHitTolerance)
	mergeF(&dst.Editor.Grid, src.Editor.Grid)
	if src.Editor.TickHz != 0 {
		dst.Editor.TickHz = src.Editor.TickHz
	}
	mergeF(&dst.Layout.Title, src.Layout.Title)
	mergeF(&dst.Layout.Header, src.Layout.Header)
	mergeF(&dst.Layout.Row, src.Layout.Row)
	mergeF(&dst.Layout.Column, src.Layout.Column)
	mergeF(&dst.Layout.Icon, src.Layout.Icon)
	if strings.TrimSpace(src.Engine.Catalog) != "" {
		dst.Engine.Catalog = strings.TrimSpace(src.Engine.Catalog)
	}
	if strings.TrimSpace(src.Metrics.Listen) != "" {
		dst.Metrics.Listen = strings.TrimSpace(src.Metrics.Listen)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvCatalog)); v != "" {
		cfg.Engine.Catalog = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMetricsListen)); v != "" {
		cfg.Metrics.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxZoom)); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Editor.MaxZoom = float32(f)
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var name string
	switch key {
	case "engine.catalog":
		name = EnvCatalog
	case "metrics.listen":
		name = EnvMetricsListen
	case "editor.max_zoom":
		name = EnvMaxZoom
	case "logging.level":
		name = EnvLogLevel
	case "logging.format":
		name = EnvLogFormat
	case "logging.source":
		name = EnvLogSource
	case "logging.file":
		name = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
