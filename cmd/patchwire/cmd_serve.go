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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"patchwire/internal/crash"
	"patchwire/internal/interact"
	applog "patchwire/internal/log"
	"patchwire/internal/metrics"
	"patchwire/internal/ui"
)

var metricsFlags struct {
	listen string
}

var metricsCmd = &cobra.Command{
	Use:   "metrics <patch.hcl>",
	Short: "Run a patch headless and serve Prometheus metrics",
	Args:  cobra.ExactArgs(1),
	RunE:  runMetrics,
}

var uiCmd = &cobra.Command{
	Use:   "ui [patch.hcl]",
	Short: "Open the desktop editor (build with -tags fyne)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return ui.Run(path)
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsFlags.listen, "listen", "", "listen address (default from config)")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	l := applog.WithComponent("cli")
	addr := metricsFlags.listen
	if addr == "" {
		addr = appCfg.Metrics.Listen
	}
	if addr == "" {
		return errors.New("no listen address: pass --listen or set metrics.listen")
	}
	rec := metrics.New()
	ed, mem, err := openPatch(args[0], rec)
	if err != nil {
		return err
	}
	defer crash.Recover(ed)
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		l.Info("serving metrics", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	period := time.Second / time.Duration(appCfg.Editor.TickHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ticker.C:
			mem.Advance(period)
			ed.Tick(interact.Input{}, nil)
		}
	}
}
