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

// Package basicctx implements the dispatch tree for the "basic" message
// protocol. Structurally it is httpctx.Context's sibling minus
// Host/Endpoint, keyed instead by "notifier" topic strings exposed by each
// leaf handler.
package basicctx

import (
	"context"

	"rivaas.dev/appserver/httpctx"
	"rivaas.dev/appserver/object"
)

// Input mirrors httpctx.Input: empty means "not my request", non-empty
// carries a Consumer.
type Input = httpctx.Input

// NewInput wraps a Consumer into a non-empty Input.
var NewInput = httpctx.NewInput

// RequestContext is the per-request value for the basic protocol. Unlike
// httpctx.RequestContext there is no URL path, but there is a notifier
// "topic" used to pre-select handlers.
type RequestContext struct {
	Ctx           context.Context
	ObjectContext *object.Context
	Topic         string
	Values        map[string]string
	CorrelationID string
}

// Value looks up a request metadata field by name.
func (r *RequestContext) Value(key string) string {
	if r.Values == nil {
		return ""
	}
	return r.Values[key]
}

// RequestHandler is the leaf contract for the basic protocol: Accept plus a
// notifier set used to advertise subscriptions to the transport.
type RequestHandler interface {
	Accept(reqCtx *RequestContext) (Input, error)
	Notifiers() map[string]struct{}
}

type entry interface {
	dispatch(reqCtx *RequestContext) (Input, error)
}

type procedureEntry struct{ procedure object.Procedure }

func (e procedureEntry) dispatch(reqCtx *RequestContext) (Input, error) {
	if err := e.procedure.Run(reqCtx.ObjectContext); err != nil {
		return Input{}, err
	}
	return Input{}, nil
}

type contextEntry struct{ context *Context }

func (e contextEntry) dispatch(reqCtx *RequestContext) (Input, error) {
	return e.context.Accept(reqCtx)
}

type requestHandlerEntry struct{ handler RequestHandler }

func (e requestHandlerEntry) dispatch(reqCtx *RequestContext) (Input, error) {
	return e.handler.Accept(reqCtx)
}

// Context is a node in the basic dispatch tree.
type Context struct {
	*object.Context
	entries []entry
}

// NewContext creates a basic context whose object registry parent is
// parent's (nil for a root).
func NewContext(parent *Context) *Context {
	var objParent *object.Context
	if parent != nil {
		objParent = parent.Context
	}
	return &Context{Context: object.NewContext(objParent)}
}

// Initialize recursively initializes owned objects, then descends into
// nested context entries the owned pass did not reach (contexts appended
// without an id are entries but not owned objects). The Frozen probe keeps
// a context registered under an id from being initialized twice.
func (c *Context) Initialize() error {
	if err := c.Context.Initialize(); err != nil {
		return err
	}
	for _, e := range c.entries {
		ce, ok := e.(contextEntry)
		if !ok || ce.context.Frozen() {
			continue
		}
		if err := ce.context.Initialize(); err != nil {
			return err
		}
	}
	return nil
}

// AddProcedure appends an owned procedure entry.
func (c *Context) AddProcedure(id string, p object.Procedure) error {
	if id != "" {
		if err := c.AddObject(id, p); err != nil {
			return err
		}
	}
	c.entries = append(c.entries, procedureEntry{procedure: p})
	return nil
}

// AddProcedureRef appends a procedure entry referencing an already
// registered object.
func (c *Context) AddProcedureRef(refID string) error {
	obj, ok := object.FindObjectAs[object.Procedure](c.Context, refID)
	if !ok {
		return object.ObjectNotFoundError{RefID: refID}
	}
	c.entries = append(c.entries, procedureEntry{procedure: obj})
	return nil
}

// AddContext appends a nested, owned Context entry.
func (c *Context) AddContext(id string, nested *Context) error {
	if id != "" {
		if err := c.AddObject(id, nested); err != nil {
			return err
		}
	}
	c.entries = append(c.entries, contextEntry{context: nested})
	return nil
}

// AddRequestHandler appends a RequestHandler entry.
func (c *Context) AddRequestHandler(h RequestHandler) {
	c.entries = append(c.entries, requestHandlerEntry{handler: h})
}

// Notifiers returns the union of every entry's notifier set.
func (c *Context) Notifiers() map[string]struct{} {
	out := make(map[string]struct{})
	for _, e := range c.entries {
		switch v := e.(type) {
		case requestHandlerEntry:
			for n := range v.handler.Notifiers() {
				out[n] = struct{}{}
			}
		case contextEntry:
			for n := range v.context.Notifiers() {
				out[n] = struct{}{}
			}
		}
	}
	return out
}

// Accept iterates entries in order: procedures run as a side effect,
// contexts recurse, and the first handler returning a non-empty Input
// wins. Handlers are responsible for checking the request's topic against
// their own notifier set and early-returning empty otherwise; the context
// itself applies no topic filter.
func (c *Context) Accept(reqCtx *RequestContext) (Input, error) {
	for _, e := range c.entries {
		input, err := e.dispatch(reqCtx)
		if err != nil {
			return Input{}, err
		}
		if !input.Empty() {
			return input, nil
		}
	}
	return Input{}, nil
}
