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
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"patchwire/internal/config"
)

var initForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration and its environment overrides",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

// overridable lists the keys an environment variable can replace.
var overridable = []string{
	"editor.max_zoom",
	"engine.catalog",
	"metrics.listen",
	"logging.level",
	"logging.format",
	"logging.source",
	"logging.file",
}

func init() {
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd, configInitCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	path, err := targetPath()
	if err != nil {
		return err
	}
	subtle.Fprintf(out, "# %s\n", path)
	data, err := yaml.Marshal(appCfg)
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(data))
	for _, key := range overridable {
		if name, ok := config.EnvOverrideFor(key); ok {
			info.Fprintf(out, "# %s overridden by %s\n", key, name)
		}
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := targetPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if configPath != "" {
		err = config.SaveFile(configPath, config.Defaults())
	} else {
		err = config.Save(config.Defaults())
	}
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	good.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func targetPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.ConfigPath()
}
