// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package object implements the hierarchical object registry that every
// context in the engine (HTTP, basic-protocol, main) embeds.
//
// A Context owns a set of objects and exposes references to them (and to
// objects owned further up the parent chain) under string ids. Lookups walk
// the parent chain; writes are only permitted before Initialize is called.
package object

import (
	"sync"
)

// Object is the empty interface every registry entry satisfies. Capability
// probes (Initializable, Procedure, Dirty) are asserted against it rather
// than branching on concrete types.
type Object any

// Initializable is implemented by objects that need a one-time hook once the
// context tree around them is fully built, before any request is served.
type Initializable interface {
	Initialize(ctx *Context) error
}

// Procedure is implemented by objects with a managed run/cancel lifecycle.
// The supervisor (package supervisor) drives Procedures; Contexts invoke
// Procedure entries as a side effect of request dispatch (see httpctx,
// basicctx).
type Procedure interface {
	Run(ctx *Context) error
	Cancel()
}

// Dirty is an optional probe used by pool.Pool: an item that reports itself
// dirty is destroyed instead of recycled.
type Dirty interface {
	Dirty() bool
}

// Context is a named object registry with parent-chained lookup. It
// distinguishes objects it owns from references (which may resolve into the
// parent chain).
type Context struct {
	parent *Context

	mu         sync.RWMutex
	owned      map[string]Object
	references map[string]Object
	frozen     bool
}

// NewContext creates a context with the given parent. A nil parent marks a
// root context (the main supervisor's context has no parent).
func NewContext(parent *Context) *Context {
	return &Context{
		parent:     parent,
		owned:      make(map[string]Object),
		references: make(map[string]Object),
	}
}

// Parent returns the enclosing context, or nil for a root.
func (c *Context) Parent() *Context {
	return c.parent
}

// AddObject stores an owned object under id and registers a reference with
// the same id pointing at it. Returns EmptyIDError if id is empty, or
// DuplicateIDError if a reference with that id already exists.
func (c *Context) AddObject(id string, owned Object) error {
	if id == "" {
		return EmptyIDError{}
	}
	if owned == nil {
		return EmptyObjectError{ID: id}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return FrozenError{ID: id}
	}
	if _, exists := c.references[id]; exists {
		return DuplicateIDError{ID: id}
	}
	c.owned[id] = owned
	c.references[id] = owned
	return nil
}

// AddReference registers target under id without taking ownership of it.
// Fails with the same checks as AddObject.
func (c *Context) AddReference(id string, target Object) error {
	if id == "" {
		return EmptyIDError{}
	}
	if target == nil {
		return EmptyObjectError{ID: id}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frozen {
		return FrozenError{ID: id}
	}
	if _, exists := c.references[id]; exists {
		return DuplicateIDError{ID: id}
	}
	c.references[id] = target
	return nil
}

// FindObject looks up id in this context's references, then in the parent
// chain. Returns nil if no registration is found anywhere in the chain.
func (c *Context) FindObject(id string) Object {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		ctx.mu.RLock()
		obj, ok := ctx.references[id]
		ctx.mu.RUnlock()
		if ok {
			return obj
		}
	}
	return nil
}

// FindObjectAs resolves id and type-asserts it to T, returning the zero
// value and false if the id is unregistered or does not satisfy T.
func FindObjectAs[T any](c *Context, id string) (T, bool) {
	var zero T
	obj := c.FindObject(id)
	if obj == nil {
		return zero, false
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// selfInitializer is satisfied by any object that is itself a context (a
// nested object.Context, or a type embedding it such as httpctx.Context or
// basicctx.Context) and therefore knows how to initialize its own subtree.
// *Context satisfies it via its own Initialize method below, which is what
// lets plain nested object.Context values recurse through the same path as
// richer embedding types.
type selfInitializer interface {
	Initialize() error
}

// Initialize recursively initializes owned objects: nested contexts (those
// satisfying selfInitializer) are descended into via their own Initialize;
// other Initializable objects have Initialize called with this context.
// Safe to call exactly once, before any request is served or any Procedure
// is run. After
// Initialize returns, the context is frozen against further writes.
func (c *Context) Initialize() error {
	c.mu.Lock()
	owned := make(map[string]Object, len(c.owned))
	for id, obj := range c.owned {
		owned[id] = obj
	}
	c.frozen = true
	c.mu.Unlock()

	for _, obj := range owned {
		if nested, ok := obj.(selfInitializer); ok {
			if err := nested.Initialize(); err != nil {
				return err
			}
			continue
		}
		if initable, ok := obj.(Initializable); ok {
			if err := initable.Initialize(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Frozen reports whether Initialize has already run on this context.
func (c *Context) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}
