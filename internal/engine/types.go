/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package engine defines the narrow capability interface the editor consumes
// from the audio processing engine, plus an in-process reference engine.
package engine

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// UnitID identifies one processing unit inside an engine. Zero is never issued.
type UnitID uint64

// NoUnit is the invalid unit id.
const NoUnit UnitID = 0

// Capability is an optional behavior a unit may support.
type Capability uint8

const (
	CapSchedulable Capability = iota + 1 // start/stop
	CapTriggerable                       // fire once
	CapSpectrum                          // exposes a spectrum for visualization
)

func (c Capability) String() string {
	switch c {
	case CapSchedulable:
		return "schedulable"
	case CapTriggerable:
		return "triggerable"
	case CapSpectrum:
		return "spectrum"
	default:
		return "capability(" + strconv.Itoa(int(c)) + ")"
	}
}

// ParseCapability maps a catalog name to a Capability.
func ParseCapability(s string) (Capability, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "schedulable":
		return CapSchedulable, true
	case "triggerable":
		return CapTriggerable, true
	case "spectrum":
		return CapSpectrum, true
	}
	return 0, false
}

// DataType is the value type carried by a port.
type DataType uint8

const (
	TypeBus DataType = iota
	TypeFloat
	TypeInt
	TypeBool
	TypeEnum
)

func (d DataType) String() string {
	switch d {
	case TypeBus:
		return "bus"
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	case TypeEnum:
		return "enum"
	default:
		return "type(" + strconv.Itoa(int(d)) + ")"
	}
}

// ParseDataType maps a catalog name to a DataType. Empty means float.
func ParseDataType(s string) (DataType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "float":
		return TypeFloat, true
	case "int", "integer":
		return TypeInt, true
	case "bool", "boolean":
		return TypeBool, true
	case "enum":
		return TypeEnum, true
	case "bus":
		return TypeBus, true
	}
	return 0, false
}

// Value is a scalar setting or parameter value. Only the field matching Type
// is meaningful; Enum values use Int as the option index. Bus values carry
// the loaded resource path and its frame count in Int.
type Value struct {
	Type  DataType
	Float float64
	Int   int
	Bool  bool
	Path  string
}

func Float(v float64) Value { return Value{Type: TypeFloat, Float: v} }
func Int(v int) Value       { return Value{Type: TypeInt, Int: v} }
func Bool(v bool) Value     { return Value{Type: TypeBool, Bool: v} }
func Enum(i int) Value      { return Value{Type: TypeEnum, Int: i} }

// Coerce converts v to type t. Bus values cannot be produced by coercion.
func (v Value) Coerce(t DataType) Value {
	if v.Type == t {
		return v
	}
	f := v.asFloat()
	switch t {
	case TypeFloat:
		return Float(f)
	case TypeInt:
		return Int(int(f))
	case TypeEnum:
		return Enum(int(f))
	case TypeBool:
		return Bool(f != 0)
	}
	return Value{Type: t}
}

func (v Value) asFloat() float64 {
	switch v.Type {
	case TypeFloat:
		return v.Float
	case TypeInt, TypeEnum, TypeBus:
		return float64(v.Int)
	case TypeBool:
		if v.Bool {
			return 1
		}
	}
	return 0
}

// Format renders v for display. Enum options, when known, replace the index.
func (v Value) Format(options []string) string {
	switch v.Type {
	case TypeFloat:
		return fmt.Sprintf("%f", v.Float)
	case TypeInt:
		return strconv.Itoa(v.Int)
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	case TypeEnum:
		if v.Int >= 0 && v.Int < len(options) {
			return options[v.Int]
		}
		return strconv.Itoa(v.Int)
	case TypeBus:
		if v.Path == "" {
			return "(empty)"
		}
		return filepath.Base(v.Path)
	}
	return ""
}

func (v Value) String() string { return v.Format(nil) }

// ParseValue parses s as a value of type t. Enum accepts an option name or an index.
func ParseValue(t DataType, s string, options []string) (Value, error) {
	s = strings.TrimSpace(s)
	switch t {
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse float %q: %w", s, err)
		}
		return Float(f), nil
	case TypeInt:
		n, err := strconv.Atoi(s)
		if err != nil {
			return Value{}, fmt.Errorf("parse int %q: %w", s, err)
		}
		return Int(n), nil
	case TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("parse bool %q: %w", s, err)
		}
		return Bool(b), nil
	case TypeEnum:
		for i, o := range options {
			if strings.EqualFold(o, s) {
				return Enum(i), nil
			}
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || (len(options) > 0 && n >= len(options)) {
			return Value{}, fmt.Errorf("%w: enum option %q", ErrUnknownName, s)
		}
		return Enum(n), nil
	}
	return Value{}, fmt.Errorf("cannot parse %s values", t)
}

// PortDesc describes one named input, output, parameter or setting of a unit kind.
type PortDesc struct {
	Name    string
	Short   string
	Type    DataType
	Default float64
	Options []string
}

// UnitDesc describes a unit kind as exposed by the engine.
type UnitDesc struct {
	Kind         string
	Inputs       []PortDesc
	Outputs      []PortDesc
	Params       []PortDesc
	Settings     []PortDesc
	Capabilities []Capability
}

// Has reports whether the kind declares capability c.
func (d UnitDesc) Has(c Capability) bool {
	for _, x := range d.Capabilities {
		if x == c {
			return true
		}
	}
	return false
}
