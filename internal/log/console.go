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
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// console writes one line per record:
//
//	15:04:05.000 WRN [queue] #12 command failed op=connect_bus_to_bus err="..."
//
// The component and frame attributes move to the front; app and ver are left
// to the JSON file.
type console struct {
	mu     *sync.Mutex
	w      io.Writer
	opts   slog.HandlerOptions
	comp   string
	attrs  string // preformatted WithAttrs output
	prefix string // open groups, dotted
}

var quiet = map[string]bool{"app": true, "ver": true}

func newConsole(w io.Writer, opts *slog.HandlerOptions) *console {
	h := &console{mu: &sync.Mutex{}, w: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *console) Enabled(_ context.Context, l slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}
	return l >= floor
}

func (h *console) Handle(_ context.Context, r slog.Record) error {
	comp, frame := h.comp, ""
	var rest strings.Builder
	r.Attrs(func(a slog.Attr) bool {
		switch {
		case h.prefix == "" && a.Key == "component":
			comp = a.Value.String()
		case h.prefix == "" && a.Key == "frame":
			frame = a.Value.String()
		default:
			writeAttr(&rest, h.prefix, a)
		}
		return true
	})

	var b strings.Builder
	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	b.WriteString(t.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	if comp != "" {
		b.WriteString(" [" + comp + "]")
	}
	if frame != "" {
		b.WriteString(" #" + frame)
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	b.WriteString(rest.String())
	if h.opts.AddSource && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		b.WriteString(" src=" + filepath.Base(f.File) + ":" + strconv.Itoa(f.Line))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *console) WithAttrs(as []slog.Attr) slog.Handler {
	n := *h
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range as {
		switch {
		case h.prefix == "" && a.Key == "component":
			n.comp = a.Value.String()
		case h.prefix == "" && quiet[a.Key]:
		default:
			writeAttr(&b, h.prefix, a)
		}
	}
	n.attrs = b.String()
	return &n
}

func (h *console) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	n := *h
	n.prefix = h.prefix + name + "."
	return &n
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			writeAttr(b, p, g)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERR"
	case l >= slog.LevelWarn:
		return "WRN"
	case l >= slog.LevelInfo:
		return "INF"
	}
	return "DBG"
}
