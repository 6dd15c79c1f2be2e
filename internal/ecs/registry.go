/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package ecs is a small entity/component store. Entities are opaque handles,
// components are arbitrary Go values keyed by their static type.
//
// Handles are allocated from a monotonic counter and never reused, so a stale
// handle held by some component can never alias a newer entity.
package ecs

import (
	"errors"
	"reflect"
)

// Entity is an opaque, comparable handle. The zero value is the invalid sentinel.
type Entity uint64

// Null is the invalid entity.
const Null Entity = 0

// ErrNotFound is returned by Get when the entity does not carry the component.
var ErrNotFound = errors.New("ecs: component not found")

// Registry owns every entity and its component pools.
// It is not safe for concurrent use; the editor drives it from a single thread.
type Registry struct {
	next  Entity
	alive map[Entity]struct{}
	pools map[reflect.Type]pool
}

// pool is the type-erased view of a component store.
type pool interface {
	has(e Entity) bool
	remove(e Entity)
	size() int
}

// store is a sparse set: dense entity and value slices plus an index map.
// Values are boxed so pointers handed out by Get survive later appends.
type store[T any] struct {
	dense []Entity
	vals  []*T
	index map[Entity]int
}

func newStore[T any]() *store[T] {
	return &store[T]{index: make(map[Entity]int)}
}

func (s *store[T]) has(e Entity) bool {
	_, ok := s.index[e]
	return ok
}

func (s *store[T]) size() int { return len(s.dense) }

// remove swaps the last element into the hole, so order is not stable.
func (s *store[T]) remove(e Entity) {
	i, ok := s.index[e]
	if !ok {
		return
	}
	last := len(s.dense) - 1
	if i != last {
		s.dense[i] = s.dense[last]
		s.vals[i] = s.vals[last]
		s.index[s.dense[i]] = i
	}
	s.dense = s.dense[:last]
	s.vals[last] = nil
	s.vals = s.vals[:last]
	delete(s.index, e)
}

func (s *store[T]) put(e Entity, v T) *T {
	if i, ok := s.index[e]; ok {
		*s.vals[i] = v
		return s.vals[i]
	}
	p := new(T)
	*p = v
	s.index[e] = len(s.dense)
	s.dense = append(s.dense, e)
	s.vals = append(s.vals, p)
	return p
}

func (s *store[T]) get(e Entity) (*T, bool) {
	i, ok := s.index[e]
	if !ok {
		return nil, false
	}
	return s.vals[i], true
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{alive: make(map[Entity]struct{}), pools: make(map[reflect.Type]pool)}
}

// Create allocates a fresh entity with no components.
func (r *Registry) Create() Entity {
	r.next++
	r.alive[r.next] = struct{}{}
	return r.next
}

// Valid reports whether e was created by this registry and not yet destroyed.
func (r *Registry) Valid(e Entity) bool {
	if e == Null {
		return false
	}
	_, ok := r.alive[e]
	return ok
}

// Destroy removes e and every component keyed by it. Destroying an invalid
// entity is a no-op.
func (r *Registry) Destroy(e Entity) {
	if !r.Valid(e) {
		return
	}
	for _, p := range r.pools {
		p.remove(e)
	}
	delete(r.alive, e)
}

// Alive returns the number of live entities.
func (r *Registry) Alive() int { return len(r.alive) }

func poolOf[T any](r *Registry, create bool) *store[T] {
	key := reflect.TypeFor[T]()
	if p, ok := r.pools[key]; ok {
		return p.(*store[T])
	}
	if !create {
		return nil
	}
	s := newStore[T]()
	r.pools[key] = s
	return s
}

// Assign sets the T component of e, creating or overwriting it, and returns a
// pointer to the stored value. Assigning to an invalid entity returns nil.
func Assign[T any](r *Registry, e Entity, v T) *T {
	if !r.Valid(e) {
		return nil
	}
	return poolOf[T](r, true).put(e, v)
}

// Get returns a pointer to the T component of e, or ErrNotFound.
func Get[T any](r *Registry, e Entity) (*T, error) {
	s := poolOf[T](r, false)
	if s == nil {
		return nil, ErrNotFound
	}
	p, ok := s.get(e)
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Has reports whether e carries a T component.
func Has[T any](r *Registry, e Entity) bool {
	s := poolOf[T](r, false)
	return s != nil && s.has(e)
}

// Remove drops the T component of e if present.
func Remove[T any](r *Registry, e Entity) {
	if s := poolOf[T](r, false); s != nil {
		s.remove(e)
	}
}

// Count returns the number of entities carrying T.
func Count[T any](r *Registry) int {
	if s := poolOf[T](r, false); s != nil {
		return s.size()
	}
	return 0
}

// View returns a snapshot of the entities currently carrying T. The slice is
// private to the caller, so destroying entities while ranging over it is safe.
func View[T any](r *Registry) []Entity {
	s := poolOf[T](r, false)
	if s == nil {
		return nil
	}
	out := make([]Entity, len(s.dense))
	copy(out, s.dense)
	return out
}

// Each calls fn for every entity carrying T. Entities destroyed by fn before
// they are visited are skipped.
func Each[T any](r *Registry, fn func(Entity, *T)) {
	for _, e := range View[T](r) {
		if p, err := Get[T](r, e); err == nil {
			fn(e, p)
		}
	}
}
