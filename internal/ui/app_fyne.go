//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"patchwire/internal/config"
	"patchwire/internal/crash"
	"patchwire/internal/draw/pdfsurface"
	"patchwire/internal/ecs"
	"patchwire/internal/editor"
	"patchwire/internal/engine"
	"patchwire/internal/interact"
	applog "patchwire/internal/log"
	"patchwire/internal/metrics"
	"patchwire/internal/patch"
	"patchwire/internal/queue"
	"patchwire/internal/version"
)

// Run starts the desktop editor, optionally building the patch script at
// patchPath first.
func Run(patchPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.Version))

	fyneApp := app.NewWithID("patchwire")
	w := fyneApp.NewWindow("Patchwire")
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1200), 800)
	winH := max(prefs.IntWithFallback("window.height", 800), 600)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	picker := &filePicker{w: w}
	ed, err := editor.New(editor.Options{Config: cfg, Picker: picker, Metrics: metrics.New()})
	if err != nil {
		return err
	}
	picker.ed = ed
	defer crash.Recover(ed)

	status := widget.NewLabel("Ready")
	gc := NewGraphCanvas(ed)
	gc.OnModal = func(ctx interact.Context) { showModal(w, gc, ctx) }

	loadPatch := func(path string) {
		if err := buildPatch(ed, path); err != nil {
			l.Error("patch failed", slog.String("path", path), slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Loaded " + path)
	}
	if patchPath != "" {
		loadPatch(patchPath)
	}

	openItem := fyne.NewMenuItem("Open Patch...", func() {
		dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			loadPatch(path)
		}, w).Show()
	})
	exportItem := fyne.NewMenuItem("Export PDF...", func() {
		dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if wc == nil {
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			sz := gc.Size()
			surf := pdfsurface.New(float64(sz.Width), float64(sz.Height))
			surf.Title = "Patchwire"
			ed.Draw(surf)
			if err := surf.WriteFile(path); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Exported " + path)
		}, w).Show()
	})

	var addItems []*fyne.MenuItem
	for _, kind := range ed.Bridge().Kinds() {
		addItems = append(addItems, fyne.NewMenuItem(kind, func() {
			sz := gc.Size()
			center := ed.View().WindowToCanvas(pt(fyne.NewPos(sz.Width/2, sz.Height/2)))
			ed.Enqueue(queue.Command{Op: queue.CreateNode, Kind: kind, Pos: center})
		}))
	}
	w.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File", openItem, exportItem),
		fyne.NewMenu("Add", addItems...),
	))

	w.SetContent(container.NewBorder(nil, status, nil, nil, gc))
	done := make(chan struct{})
	w.SetOnClosed(func() {
		close(done)
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})

	hz := cfg.Editor.TickHz
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()
	frames := 0
	go pump(done, ticker.C, func() {
		fyne.Do(func() {
			gc.Tick()
			frames++
			if frames%hz == 0 {
				status.SetText(ed.Summary())
			}
		})
	})

	w.ShowAndRun()
	return nil
}

func buildPatch(ed *editor.Editor, path string) error {
	f, err := patch.Load(path)
	if err != nil {
		return err
	}
	return f.Build(ed, ed.Bridge())
}

// filePicker answers asynchronously: it opens a file dialog and enqueues the
// load itself once the user picked a file.
type filePicker struct {
	w  fyne.Window
	ed *editor.Editor
}

func (p *filePicker) Pick(port ecs.Entity) (string, bool) {
	dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		p.ed.Enqueue(queue.Command{Op: queue.SetBusSettingFromFile, DstPort: port, Path: path})
	}, p.w).Show()
	return "", false
}

func showModal(w fyne.Window, gc *GraphCanvas, ctx interact.Context) {
	answer := func(a interact.ModalAction, text string) {
		gc.Answer(interact.ModalAnswer{Action: a, Text: text})
	}
	switch ctx.State {
	case interact.EditingPortValue:
		var item *widget.FormItem
		var read func() string
		switch {
		case ctx.Edit.Type == engine.TypeEnum && len(ctx.Edit.Options) > 0:
			sel := widget.NewSelect(ctx.Edit.Options, nil)
			sel.SetSelected(ctx.Edit.Seed)
			item, read = widget.NewFormItem("Value", sel), func() string { return sel.Selected }
		case ctx.Edit.Type == engine.TypeBool:
			chk := widget.NewCheck("", nil)
			chk.SetChecked(ctx.Edit.Seed == "true")
			item, read = widget.NewFormItem("Value", chk), func() string { return strconv.FormatBool(chk.Checked) }
		default:
			entry := widget.NewEntry()
			entry.SetText(ctx.Edit.Seed)
			item, read = widget.NewFormItem("Value", entry), func() string { return entry.Text }
		}
		dialog.NewForm("Edit Value", "Set", "Cancel", []*widget.FormItem{item}, func(ok bool) {
			if !ok {
				answer(interact.ModalCancel, "")
				return
			}
			answer(interact.ModalCommit, read())
		}, w).Show()
	case interact.EditingConnection:
		dialog.NewConfirm("Connection", "Remove this connection?", func(ok bool) {
			if ok {
				answer(interact.ModalDelete, "")
				return
			}
			answer(interact.ModalCancel, "")
		}, w).Show()
	case interact.EditingNode:
		dialog.NewConfirm("Node", fmt.Sprintf("Delete node and its %d connections?", len(gc.ed.Graph().ConnectionsOf(ctx.Edit.Node))), func(ok bool) {
			if ok {
				answer(interact.ModalDelete, "")
				return
			}
			answer(interact.ModalCancel, "")
		}, w).Show()
	}
}
