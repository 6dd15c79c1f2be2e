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
	"errors"
	"time"
)

var (
	ErrUnknownKind = errors.New("engine: unknown unit kind")
	ErrUnknownUnit = errors.New("engine: unknown unit")
	ErrUnknownName = errors.New("engine: unknown name")
	ErrIndex       = errors.New("engine: index out of range")
	ErrLoad        = errors.New("engine: resource load failed")
	ErrUnsupported = errors.New("engine: operation not supported by unit")
)

// Bridge is everything the editor needs from a processing engine.
//
// Calls never block on the engine's real-time thread: a successful return
// means the request was accepted for application, not that running audio
// already reflects it. Implementations own any cross-thread synchronization.
type Bridge interface {
	// NewContext creates a runtime context and returns its id.
	NewContext() (string, error)

	Kinds() []string
	Describe(kind string) (UnitDesc, bool)
	KindOf(u UnitID) string

	Create(kind string) (UnitID, error)
	// Destroy releases a unit, force-disconnecting it first.
	Destroy(u UnitID)
	// DisconnectAll severs every bus and parameter link touching u.
	DisconnectAll(u UnitID)

	ParamIndex(u UnitID, name string) (int, bool)
	Param(u UnitID, index int) (float64, error)
	SetParam(u UnitID, index int, v float64) error

	SettingIndex(u UnitID, name string) (int, bool)
	Setting(u UnitID, index int) (Value, error)
	SetSetting(u UnitID, index int, v Value) error
	// LoadBus reads a bus/sample resource from path into a bus-typed setting.
	LoadBus(u UnitID, index int, path string) error

	Connect(src UnitID, srcBus int, dst UnitID, dstBus int) error
	Disconnect(src UnitID, srcBus int, dst UnitID, dstBus int) error
	ConnectParam(src UnitID, srcBus int, dst UnitID, param int) error
	DisconnectParam(src UnitID, srcBus int, dst UnitID, param int) error

	Start(u UnitID) error
	Stop(u UnitID) error
	Running(u UnitID) bool
	Trigger(u UnitID) error

	// Profile reports the time spent in u including its upstream graph
	// (cumulative) and in u alone (self).
	Profile(u UnitID) (cumulative, self time.Duration)
	HasCapability(u UnitID, c Capability) bool
}
