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
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

//go:embed catalog.schema.json
var catalogSchema string

// Catalog is the set of unit kinds an engine can instantiate.
type Catalog struct {
	kinds map[string]UnitDesc
}

type catalogFile struct {
	Units []catalogUnit `yaml:"units"`
}

type catalogUnit struct {
	Kind         string        `yaml:"kind"`
	Inputs       []catalogPort `yaml:"inputs"`
	Outputs      []catalogPort `yaml:"outputs"`
	Params       []catalogPort `yaml:"params"`
	Settings     []catalogPort `yaml:"settings"`
	Capabilities []string      `yaml:"capabilities"`
}

type catalogPort struct {
	Name    string   `yaml:"name"`
	Short   string   `yaml:"short"`
	Type    string   `yaml:"type"`
	Default float64  `yaml:"default"`
	Options []string `yaml:"options"`
}

// BuiltinCatalog returns the catalog embedded in the binary.
func BuiltinCatalog() *Catalog {
	c, err := ParseCatalog(builtinCatalog)
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return c
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog validates YAML data against the catalog schema and decodes it.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	res, err := gojsonschema.Validate(gojsonschema.NewStringLoader(catalogSchema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid catalog: %s", strings.Join(msgs, "; "))
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c := &Catalog{kinds: make(map[string]UnitDesc, len(f.Units))}
	for _, u := range f.Units {
		if _, dup := c.kinds[u.Kind]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate kind %q", u.Kind)
		}
		d, err := u.desc()
		if err != nil {
			return nil, err
		}
		c.kinds[u.Kind] = d
	}
	return c, nil
}

func (u catalogUnit) desc() (UnitDesc, error) {
	d := UnitDesc{Kind: u.Kind}
	var errs []error
	conv := func(ps []catalogPort, def DataType) []PortDesc {
		out := make([]PortDesc, 0, len(ps))
		for _, p := range ps {
			t := def
			if p.Type != "" {
				var ok bool
				if t, ok = ParseDataType(p.Type); !ok {
					errs = append(errs, fmt.Errorf("%s.%s: unknown type %q", u.Kind, p.Name, p.Type))
				}
			}
			short := p.Short
			if short == "" {
				short = p.Name
			}
			out = append(out, PortDesc{Name: p.Name, Short: short, Type: t, Default: p.Default, Options: p.Options})
		}
		return out
	}
	d.Inputs = conv(u.Inputs, TypeBus)
	d.Outputs = conv(u.Outputs, TypeBus)
	d.Params = conv(u.Params, TypeFloat)
	d.Settings = conv(u.Settings, TypeFloat)
	for _, s := range u.Capabilities {
		c, ok := ParseCapability(s)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: unknown capability %q", u.Kind, s))
			continue
		}
		d.Capabilities = append(d.Capabilities, c)
	}
	return d, errors.Join(errs...)
}

// Kinds returns the sorted kind names.
func (c *Catalog) Kinds() []string {
	out := make([]string, 0, len(c.kinds))
	for k := range c.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Describe returns the description of kind.
func (c *Catalog) Describe(kind string) (UnitDesc, bool) {
	d, ok := c.kinds[kind]
	return d, ok
}
