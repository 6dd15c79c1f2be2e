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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"patchwire/internal/config"
	applog "patchwire/internal/log"
	"patchwire/internal/version"
)

var (
	configPath string
	appCfg     config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "patchwire",
	Short: "Graph editor for audio node patches",
	Long:  "Patchwire edits audio node graphs: build patches from HCL scripts,\ninspect them, export them as PDF or open them in the desktop editor.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is the user config dir)")
	rootCmd.AddCommand(versionCmd, unitsCmd, inspectCmd, exportCmd, metricsCmd, uiCmd, configCmd)
	rootCmd.Version = version.Version
}

func setup(_ *cobra.Command, _ []string) error {
	var err error
	if configPath != "" {
		appCfg, err = config.LoadFile(configPath)
	} else {
		appCfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applog.Init(applog.Options{
		Level:     appCfg.Logging.Level,
		Format:    appCfg.Logging.Format,
		AddSource: appCfg.Logging.Source,
		File:      appCfg.Logging.File,
	})
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
