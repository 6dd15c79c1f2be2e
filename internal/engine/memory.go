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
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "patchwire/internal/log"
)

// CallOp names a bridge operation recorded in the Memory journal.
type CallOp string

const (
	CallCreate          CallOp = "create"
	CallDestroy         CallOp = "destroy"
	CallDisconnectAll   CallOp = "disconnect_all"
	CallConnect         CallOp = "connect"
	CallDisconnect      CallOp = "disconnect"
	CallConnectParam    CallOp = "connect_param"
	CallDisconnectParam CallOp = "disconnect_param"
	CallSetParam        CallOp = "set_param"
	CallSetSetting      CallOp = "set_setting"
	CallLoadBus         CallOp = "load_bus"
	CallStart           CallOp = "start"
	CallStop            CallOp = "stop"
	CallTrigger         CallOp = "trigger"
)

// Call is one journaled bridge request.
type Call struct {
	Op       CallOp
	Src      UnitID
	SrcIndex int
	Dst      UnitID
	DstIndex int
}

type link struct {
	src      UnitID
	srcBus   int
	dst      UnitID
	dstIndex int
	param    bool
}

type unit struct {
	kind     string
	desc     UnitDesc
	params   []float64
	settings []Value
	running  bool
	triggers int
	self     time.Duration
}

// Memory is an in-process engine that keeps unit state in maps and journals
// every mutating call. It does not produce audio; Advance simulates processing
// time for profiling. Safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	catalog  *Catalog
	next     UnitID
	units    map[UnitID]*unit
	links    map[link]struct{}
	journal  []Call
	contexts []string
	log      *slog.Logger
}

// NewMemory returns an engine serving the kinds in catalog (builtin if nil).
func NewMemory(catalog *Catalog) *Memory {
	if catalog == nil {
		catalog = BuiltinCatalog()
	}
	return &Memory{
		catalog: catalog,
		units:   make(map[UnitID]*unit),
		links:   make(map[link]struct{}),
		log:     applog.WithComponent("engine"),
	}
}

var _ Bridge = (*Memory)(nil)

func (m *Memory) record(c Call) { m.journal = append(m.journal, c) }

// Journal returns a copy of the recorded calls.
func (m *Memory) Journal() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.journal...)
}

// ResetJournal clears the recorded calls.
func (m *Memory) ResetJournal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal = nil
}

// Units returns the number of live units.
func (m *Memory) Units() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.units)
}

// Links returns the number of live bus and parameter links.
func (m *Memory) Links() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links)
}

// Triggers returns how often u was triggered.
func (m *Memory) Triggers(u UnitID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if x, ok := m.units[u]; ok {
		return x.triggers
	}
	return 0
}

func (m *Memory) NewContext() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.contexts = append(m.contexts, id)
	m.log.Info("runtime context created", slog.String("id", id))
	return id, nil
}

func (m *Memory) Kinds() []string { return m.catalog.Kinds() }

func (m *Memory) Describe(kind string) (UnitDesc, bool) { return m.catalog.Describe(kind) }

func (m *Memory) KindOf(u UnitID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if x, ok := m.units[u]; ok {
		return x.kind
	}
	return ""
}

func (m *Memory) Create(kind string) (UnitID, error) {
	d, ok := m.catalog.Describe(kind)
	if !ok {
		return NoUnit, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	x := &unit{kind: kind, desc: d, params: make([]float64, len(d.Params)), settings: make([]Value, len(d.Settings))}
	for i, p := range d.Params {
		x.params[i] = p.Default
	}
	for i, s := range d.Settings {
		if s.Type == TypeBus {
			x.settings[i] = Value{Type: TypeBus}
			continue
		}
		x.settings[i] = Float(s.Default).Coerce(s.Type)
	}
	m.units[m.next] = x
	m.record(Call{Op: CallCreate, Src: m.next})
	return m.next, nil
}

func (m *Memory) Destroy(u UnitID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.units[u]; !ok {
		return
	}
	m.disconnectAllLocked(u)
	delete(m.units, u)
	m.record(Call{Op: CallDestroy, Src: u})
}

func (m *Memory) DisconnectAll(u UnitID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectAllLocked(u)
	m.record(Call{Op: CallDisconnectAll, Src: u})
}

func (m *Memory) disconnectAllLocked(u UnitID) {
	for l := range m.links {
		if l.src == u || l.dst == u {
			delete(m.links, l)
		}
	}
}

func (m *Memory) unitLocked(u UnitID) (*unit, error) {
	x, ok := m.units[u]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, u)
	}
	return x, nil
}

func (m *Memory) ParamIndex(u UnitID, name string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.units[u]
	if !ok {
		return 0, false
	}
	for i, p := range x.desc.Params {
		if p.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (m *Memory) Param(u UnitID, index int) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, err := m.unitLocked(u)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(x.params) {
		return 0, fmt.Errorf("%w: param %d", ErrIndex, index)
	}
	return x.params[index], nil
}

func (m *Memory) SetParam(u UnitID, index int, v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, err := m.unitLocked(u)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(x.params) {
		return fmt.Errorf("%w: param %d", ErrIndex, index)
	}
	if math.IsNaN(v) {
		return fmt.Errorf("%w: NaN for param %d", ErrUnsupported, index)
	}
	x.params[index] = v
	m.record(Call{Op: CallSetParam, Src: u, SrcIndex: index})
	return nil
}

func (m *Memory) SettingIndex(u UnitID, name string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.units[u]
	if !ok {
		return 0, false
	}
	for i, s := range x.desc.Settings {
		if s.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (m *Memory) Setting(u UnitID, index int) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, err := m.unitLocked(u)
	if err != nil {
		return Value{}, err
	}
	if index < 0 || index >= len(x.settings) {
		return Value{}, fmt.Errorf("%w: setting %d", ErrIndex, index)
	}
	return x.settings[index], nil
}

func (m *Memory) SetSetting(u UnitID, index int, v Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, err := m.unitLocked(u)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(x.settings) {
		return fmt.Errorf("%w: setting %d", ErrIndex, index)
	}
	want := x.desc.Settings[index]
	if want.Type == TypeBus {
		return fmt.Errorf("%w: bus setting %q must be loaded from a file", ErrUnsupported, want.Name)
	}
	v = v.Coerce(want.Type)
	if want.Type == TypeEnum && (v.Int < 0 || v.Int >= len(want.Options)) {
		return fmt.Errorf("%w: enum index %d for %q", ErrIndex, v.Int, want.Name)
	}
	x.settings[index] = v
	m.record(Call{Op: CallSetSetting, Src: u, SrcIndex: index})
	return nil
}

// LoadBus accepts raw little-endian float32 sample files.
func (m *Memory) LoadBus(u UnitID, index int, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if len(data)%4 != 0 {
		return fmt.Errorf("%w: %s is not a float32 sample file", ErrLoad, path)
	}
	frames := len(data) / 4
	for i := 0; i < frames; i++ {
		s := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		if math.IsNaN(float64(s)) {
			return fmt.Errorf("%w: NaN sample at frame %d", ErrLoad, i)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	x, err := m.unitLocked(u)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(x.settings) || x.desc.Settings[index].Type != TypeBus {
		return fmt.Errorf("%w: bus setting %d", ErrIndex, index)
	}
	x.settings[index] = Value{Type: TypeBus, Path: path, Int: frames}
	m.record(Call{Op: CallLoadBus, Src: u, SrcIndex: index})
	return nil
}

func (m *Memory) checkLink(src UnitID, srcBus int, dst UnitID, dstIndex int, param bool) error {
	s, err := m.unitLocked(src)
	if err != nil {
		return err
	}
	d, err := m.unitLocked(dst)
	if err != nil {
		return err
	}
	if srcBus < 0 || srcBus >= len(s.desc.Outputs) {
		return fmt.Errorf("%w: output bus %d", ErrIndex, srcBus)
	}
	limit := len(d.desc.Inputs)
	if param {
		limit = len(d.desc.Params)
	}
	if dstIndex < 0 || dstIndex >= limit {
		return fmt.Errorf("%w: destination %d", ErrIndex, dstIndex)
	}
	return nil
}

func (m *Memory) Connect(src UnitID, srcBus int, dst UnitID, dstBus int) error {
	return m.link(CallConnect, link{src, srcBus, dst, dstBus, false}, true)
}

func (m *Memory) Disconnect(src UnitID, srcBus int, dst UnitID, dstBus int) error {
	return m.link(CallDisconnect, link{src, srcBus, dst, dstBus, false}, false)
}

func (m *Memory) ConnectParam(src UnitID, srcBus int, dst UnitID, param int) error {
	return m.link(CallConnectParam, link{src, srcBus, dst, param, true}, true)
}

func (m *Memory) DisconnectParam(src UnitID, srcBus int, dst UnitID, param int) error {
	return m.link(CallDisconnectParam, link{src, srcBus, dst, param, true}, false)
}

func (m *Memory) link(op CallOp, l link, add bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if add {
		if err := m.checkLink(l.src, l.srcBus, l.dst, l.dstIndex, l.param); err != nil {
			return err
		}
		m.links[l] = struct{}{}
	} else {
		// severing a link that no longer exists is accepted
		delete(m.links, l)
	}
	m.record(Call{Op: op, Src: l.src, SrcIndex: l.srcBus, Dst: l.dst, DstIndex: l.dstIndex})
	return nil
}

func (m *Memory) schedulable(u UnitID) (*unit, error) {
	x, err := m.unitLocked(u)
	if err != nil {
		return nil, err
	}
	if !x.desc.Has(CapSchedulable) {
		return nil, fmt.Errorf("%w: %s cannot start/stop", ErrUnsupported, x.kind)
	}
	return x, nil
}

func (m *Memory) Start(u UnitID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, err := m.schedulable(u)
	if err != nil {
		return err
	}
	x.running = true
	m.record(Call{Op: CallStart, Src: u})
	return nil
}

func (m *Memory) Stop(u UnitID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, err := m.schedulable(u)
	if err != nil {
		return err
	}
	x.running = false
	m.record(Call{Op: CallStop, Src: u})
	return nil
}

func (m *Memory) Running(u UnitID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.units[u]
	return ok && x.running
}

func (m *Memory) Trigger(u UnitID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, err := m.unitLocked(u)
	if err != nil {
		return err
	}
	if !x.desc.Has(CapTriggerable) {
		return fmt.Errorf("%w: %s cannot be triggered", ErrUnsupported, x.kind)
	}
	x.triggers++
	m.record(Call{Op: CallTrigger, Src: u})
	return nil
}

// Advance simulates one processing block of length d: every unit that is
// running, or has no scheduling capability, accrues d of self time.
func (m *Memory) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.units {
		if x.running || !x.desc.Has(CapSchedulable) {
			x.self += d
		}
	}
}

func (m *Memory) Profile(u UnitID) (cumulative, self time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.units[u]
	if !ok {
		return 0, 0
	}
	seen := map[UnitID]bool{}
	var walk func(id UnitID) time.Duration
	walk = func(id UnitID) time.Duration {
		if seen[id] {
			return 0
		}
		seen[id] = true
		y, ok := m.units[id]
		if !ok {
			return 0
		}
		total := y.self
		for l := range m.links {
			if l.dst == id {
				total += walk(l.src)
			}
		}
		return total
	}
	return walk(u), x.self
}

func (m *Memory) HasCapability(u UnitID, c Capability) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.units[u]
	return ok && x.desc.Has(c)
}
