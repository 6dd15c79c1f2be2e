/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package engine

import (
	"context"
	"fmt"
	"log/slog"

	applog "patchwire/internal/log"
)

// Name based accessors. Names usually come from scripts or from an older
// definition of a unit kind, so an unknown name is logged with ctx and
// reported as ErrUnknownName rather than treated as fatal.

func SetParamByName(ctx context.Context, b Bridge, u UnitID, name string, v float64) error {
	i, ok := b.ParamIndex(u, name)
	if !ok {
		return unknown(ctx, b, u, "param", name)
	}
	return b.SetParam(u, i, v)
}

func ParamByName(ctx context.Context, b Bridge, u UnitID, name string) (float64, error) {
	i, ok := b.ParamIndex(u, name)
	if !ok {
		return 0, unknown(ctx, b, u, "param", name)
	}
	return b.Param(u, i)
}

func SetSettingByName(ctx context.Context, b Bridge, u UnitID, name string, v Value) error {
	i, ok := b.SettingIndex(u, name)
	if !ok {
		return unknown(ctx, b, u, "setting", name)
	}
	return b.SetSetting(u, i, v)
}

func SettingByName(ctx context.Context, b Bridge, u UnitID, name string) (Value, error) {
	i, ok := b.SettingIndex(u, name)
	if !ok {
		return Value{}, unknown(ctx, b, u, "setting", name)
	}
	return b.Setting(u, i)
}

// SetEnumByName selects an enum option of a setting by its display name.
func SetEnumByName(ctx context.Context, b Bridge, u UnitID, setting, option string) error {
	i, ok := b.SettingIndex(u, setting)
	if !ok {
		return unknown(ctx, b, u, "setting", setting)
	}
	desc, _ := b.Describe(b.KindOf(u))
	var options []string
	if i < len(desc.Settings) {
		options = desc.Settings[i].Options
	}
	v, err := ParseValue(TypeEnum, option, options)
	if err != nil {
		applog.WithComponent("engine").WarnContext(ctx, "unknown enum option",
			slog.String("kind", b.KindOf(u)), slog.String("setting", setting), slog.String("option", option))
		return err
	}
	return b.SetSetting(u, i, v)
}

func unknown(ctx context.Context, b Bridge, u UnitID, what, name string) error {
	applog.WithComponent("engine").WarnContext(ctx, "unknown "+what+" name",
		slog.String("kind", b.KindOf(u)), slog.String("name", name))
	return fmt.Errorf("%w: %s %q on %s", ErrUnknownName, what, name, b.KindOf(u))
}
