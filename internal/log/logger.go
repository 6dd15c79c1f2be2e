/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package log sets up the process-wide slog logger. Records go to a console
// (or JSON) handler on stderr and, when a file is configured, to a rotated
// JSON log. A context prepared with WithFrame stamps every record logged
// through it with the editor frame number.
package log

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"patchwire/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "PW_LOG_LEVEL"  // debug, info, warn or error
	EnvFormat = "PW_LOG_FORMAT" // console or json
	EnvFile   = "PW_LOG_FILE"   // rotated JSON log
	EnvSource = "PW_LOG_SOURCE" // 1, true, yes or on
)

// Options controls Init. The zero value logs INFO and above to stderr in
// console format.
type Options struct {
	Level     string
	Format    string
	AddSource bool
	File      string
	// Out receives console records; nil means os.Stderr.
	Out io.Writer
}

var (
	mu    sync.RWMutex
	root  *slog.Logger
	file  *lj.Logger
	level slog.LevelVar
)

// L returns the process logger, initialising it from the environment on
// first use.
func L() *slog.Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Init replaces the process logger and slog's default. A rotated file opened
// by an earlier Init is closed.
func Init(opts Options) {
	level.Set(parseLevel(opts.Level))
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: &level, AddSource: opts.AddSource}

	var sink slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		sink = slog.NewJSONHandler(out, hopts)
	} else {
		sink = newConsole(out, hopts)
	}
	var rotated *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		rotated = &lj.Logger{Filename: path, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		sink = fanout{sink, slog.NewJSONHandler(rotated, hopts)}
	}
	l := slog.New(framed{next: sink}).With(
		slog.String("app", "patchwire"),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	prev := file
	root, file = l, rotated
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	slog.SetDefault(l)
}

// FromEnv reads Options from the PW_LOG_* variables.
func FromEnv() Options {
	o := Options{Level: "info", Format: "console"}
	if v := strings.TrimSpace(os.Getenv(EnvLevel)); v != "" {
		o.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFormat)); v != "" {
		o.Format = v
	}
	o.AddSource = truthy(os.Getenv(EnvSource))
	o.File = strings.TrimSpace(os.Getenv(EnvFile))
	return o
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WithComponent returns the process logger tagged with component=name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with op.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type frameKey struct{}

// WithFrame returns a context carrying the editor frame number.
func WithFrame(ctx context.Context, frame uint64) context.Context {
	return context.WithValue(ctx, frameKey{}, frame)
}

// FrameFrom returns the frame stored by WithFrame.
func FrameFrom(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	f, ok := ctx.Value(frameKey{}).(uint64)
	return f, ok
}

// framed adds frame=N to records whose context carries a frame.
type framed struct{ next slog.Handler }

func (h framed) Enabled(ctx context.Context, l slog.Level) bool { return h.next.Enabled(ctx, l) }

func (h framed) Handle(ctx context.Context, r slog.Record) error {
	if f, ok := FrameFrom(ctx); ok {
		r = r.Clone()
		r.AddAttrs(slog.Uint64("frame", f))
	}
	return h.next.Handle(ctx, r)
}

func (h framed) WithAttrs(as []slog.Attr) slog.Handler { return framed{next: h.next.WithAttrs(as)} }
func (h framed) WithGroup(name string) slog.Handler    { return framed{next: h.next.WithGroup(name)} }

// fanout hands each record to every handler that wants it.
type fanout []slog.Handler

func (hs fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range hs {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (hs fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range hs {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (hs fanout) WithAttrs(as []slog.Attr) slog.Handler {
	out := make(fanout, len(hs))
	for i, h := range hs {
		out[i] = h.WithAttrs(as)
	}
	return out
}

func (hs fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(hs))
	for i, h := range hs {
		out[i] = h.WithGroup(name)
	}
	return out
}
