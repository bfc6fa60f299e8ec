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

package httpctx

import "rivaas.dev/appserver/object"

// entry is the dispatch-time behaviour of a single Entry. Each concrete
// entry type implements the match/propagate rule for its kind.
type entry interface {
	dispatch(reqCtx *RequestContext) (Input, error)
	initialize() error
}

// initializeOnce descends into a nested context unless the owned-object
// pass already did (contexts added with an id are owned and get initialized
// there; the Frozen probe keeps this from running twice). Referenced
// contexts are frozen by their owning context first, so they are skipped
// here too.
func initializeOnce(c *Context) error {
	if c.Frozen() {
		return nil
	}
	return c.Initialize()
}

type procedureEntry struct {
	procedure object.Procedure
}

func (e procedureEntry) dispatch(reqCtx *RequestContext) (Input, error) {
	if err := e.procedure.Run(reqCtx.ObjectContext); err != nil {
		return Input{}, err
	}
	return Input{}, nil
}

func (e procedureEntry) initialize() error { return nil }

type contextEntry struct {
	context *Context
}

func (e contextEntry) dispatch(reqCtx *RequestContext) (Input, error) {
	return e.context.Accept(reqCtx)
}

func (e contextEntry) initialize() error { return initializeOnce(e.context) }

type hostEntry struct {
	host *Host
}

func (e hostEntry) dispatch(reqCtx *RequestContext) (Input, error) {
	if !e.host.IsMatch(reqCtx.Request.Host) {
		return Input{}, nil
	}
	return e.host.Accept(reqCtx)
}

func (e hostEntry) initialize() error { return initializeOnce(e.host.Context) }

type endpointEntry struct {
	endpoint *Endpoint
}

func (e endpointEntry) dispatch(reqCtx *RequestContext) (Input, error) {
	sub, ok := e.endpoint.GetMatch(reqCtx.Path)
	if !ok {
		return Input{}, nil
	}

	savedPath := reqCtx.Path
	reqCtx.Path = sub

	input, err := e.endpoint.Accept(reqCtx)
	if err != nil {
		reqCtx.Path = savedPath
		return Input{}, err
	}
	if !input.Empty() {
		return input, nil
	}

	reqCtx.Path = savedPath
	return Input{}, nil
}

func (e endpointEntry) initialize() error { return initializeOnce(e.endpoint.Context) }

type requestHandlerEntry struct {
	handler RequestHandler
}

func (e requestHandlerEntry) dispatch(reqCtx *RequestContext) (Input, error) {
	return e.handler.Accept(reqCtx)
}

func (e requestHandlerEntry) initialize() error { return nil }

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

// AddProcedureRef appends a procedure entry referencing an object already
// registered under refId. Fails with object.ObjectNotFoundError if refId is
// unresolved at add time.
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

// AddContextRef appends a Context entry referencing one already registered
// under refID.
func (c *Context) AddContextRef(refID string) error {
	nested, ok := object.FindObjectAs[*Context](c.Context, refID)
	if !ok {
		return object.ObjectNotFoundError{RefID: refID}
	}
	c.entries = append(c.entries, contextEntry{context: nested})
	return nil
}

// AddEndpoint appends an owned Endpoint entry.
func (c *Context) AddEndpoint(id string, ep *Endpoint) error {
	if id != "" {
		if err := c.AddObject(id, ep); err != nil {
			return err
		}
	}
	c.entries = append(c.entries, endpointEntry{endpoint: ep})
	return nil
}

// AddHost appends an owned Host entry.
func (c *Context) AddHost(id string, h *Host) error {
	if id != "" {
		if err := c.AddObject(id, h); err != nil {
			return err
		}
	}
	c.entries = append(c.entries, hostEntry{host: h})
	return nil
}

// AddRequestHandler appends a RequestHandler entry. Handlers are always
// owned by value, never referenced.
func (c *Context) AddRequestHandler(h RequestHandler) {
	c.entries = append(c.entries, requestHandlerEntry{handler: h})
}
