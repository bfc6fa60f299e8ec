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

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/appserver/object"
	"rivaas.dev/appserver/xerror"
)

// Context is a node in the HTTP dispatch tree: an object.Context extended
// with an ordered entry list and the header/error-document inheritance
// rules.
type Context struct {
	*object.Context

	dispatchParent *Context // inheritance parent, distinct from object.Context's owner chain

	entries []entry

	tracer trace.Tracer

	showException  *bool
	showStacktrace *bool

	inheritErrorDocuments bool
	errorDocuments        map[int]xerror.Document

	headers          map[string]string
	effectiveHeaders map[string]string
}

// NewContext creates an HTTP context. parent may be nil for a root context;
// when non-nil it supplies both the object-registry parent chain and the
// header/error-document inheritance parent.
func NewContext(parent *Context) *Context {
	var objParent *object.Context
	if parent != nil {
		objParent = parent.Context
	}
	return &Context{
		Context:               object.NewContext(objParent),
		dispatchParent:        parent,
		inheritErrorDocuments: true,
		errorDocuments:        make(map[int]xerror.Document),
		headers:               make(map[string]string),
	}
}

// SetTracer enables a dispatch span around this context's Accept calls.
// Usually only the root context of a server gets one; nested contexts then
// run inside the root's span via reqCtx.Ctx.
func (c *Context) SetTracer(t trace.Tracer) { c.tracer = t }

// SetShowException overrides the show-exception flag for this context and
// its descendants that don't set their own.
func (c *Context) SetShowException(v bool) { c.showException = &v }

// SetShowStacktrace overrides the show-stacktrace flag analogously.
func (c *Context) SetShowStacktrace(v bool) { c.showStacktrace = &v }

// SetInheritErrorDocuments controls whether FindErrorDocument recurses into
// the dispatch parent when this context has no matching document. Default
// true.
func (c *Context) SetInheritErrorDocuments(v bool) { c.inheritErrorDocuments = v }

// AddErrorDocument registers the error document for statusCode. Returns
// DuplicateErrorDocumentError if one is already registered for that code.
func (c *Context) AddErrorDocument(statusCode int, doc xerror.Document) error {
	if _, exists := c.errorDocuments[statusCode]; exists {
		return DuplicateErrorDocumentError{StatusCode: statusCode}
	}
	c.errorDocuments[statusCode] = doc
	return nil
}

// AddHeader adds a local response header override.
func (c *Context) AddHeader(key, value string) {
	c.headers[key] = value
}

// ShowException resolves bottom-up: if unset here, ask the dispatch parent;
// the root default is true.
func (c *Context) ShowException() bool {
	if c.showException != nil {
		return *c.showException
	}
	if c.dispatchParent != nil {
		return c.dispatchParent.ShowException()
	}
	return true
}

// ShowStacktrace resolves bottom-up analogously to ShowException; the root
// default is false.
func (c *Context) ShowStacktrace() bool {
	if c.showStacktrace != nil {
		return *c.showStacktrace
	}
	if c.dispatchParent != nil {
		return c.dispatchParent.ShowStacktrace()
	}
	return false
}

// FindErrorDocument checks this context's own map first; if absent and
// inheritErrorDocuments is true, recurses into the dispatch parent.
func (c *Context) FindErrorDocument(statusCode int) (xerror.Document, bool) {
	if doc, ok := c.errorDocuments[statusCode]; ok {
		return doc, true
	}
	if c.inheritErrorDocuments && c.dispatchParent != nil {
		return c.dispatchParent.FindErrorDocument(statusCode)
	}
	return xerror.Document{}, false
}

// EffectiveHeaders returns the frozen, computed header set. Valid only after Initialize has run.
func (c *Context) EffectiveHeaders() map[string]string {
	if c.effectiveHeaders == nil {
		return map[string]string{}
	}
	return c.effectiveHeaders
}

// Initialize computes effectiveHeaders = parent.effectiveHeaders merged
// with local headers (local wins), then recursively initializes owned
// objects via object.Context, then initializes every entry. The header
// merge runs first so descendants observe this context's frozen header set
// during their own merge.
func (c *Context) Initialize() error {
	merged := make(map[string]string)
	if c.dispatchParent != nil {
		for k, v := range c.dispatchParent.EffectiveHeaders() {
			merged[k] = v
		}
	}
	for k, v := range c.headers {
		merged[k] = v
	}
	c.effectiveHeaders = merged

	if err := c.Context.Initialize(); err != nil {
		return err
	}

	for _, e := range c.entries {
		if err := e.initialize(); err != nil {
			return err
		}
	}
	return nil
}

// Accept iterates entries in insertion order. For each entry
// it updates reqCtx.HeadersContext/ErrorHandlingContext to this context (so
// an error thrown deeper in the tree still resolves against the nearest
// enclosing context), dispatches, and returns the first non-empty Input.
func (c *Context) Accept(reqCtx *RequestContext) (Input, error) {
	if c.tracer != nil {
		return c.acceptTraced(reqCtx)
	}
	return c.accept(reqCtx)
}

func (c *Context) accept(reqCtx *RequestContext) (Input, error) {
	for _, e := range c.entries {
		reqCtx.HeadersContext = c
		reqCtx.ErrorHandlingContext = c

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

// acceptTraced wraps dispatch in a span carrying the request path and
// correlation id. The span's context replaces reqCtx.Ctx for the duration
// so nested handlers pick up the active span; the prior context is restored
// before returning, matching the save-and-restore done for Path.
func (c *Context) acceptTraced(reqCtx *RequestContext) (Input, error) {
	savedCtx := reqCtx.Ctx
	ctx, span := c.tracer.Start(savedCtx, "dispatch "+reqCtx.Path,
		trace.WithAttributes(
			attribute.String("http.path", reqCtx.Path),
			attribute.String("request.correlation_id", reqCtx.CorrelationID),
		))
	reqCtx.Ctx = ctx

	input, err := c.accept(reqCtx)

	reqCtx.Ctx = savedCtx
	if err != nil {
		span.SetAttributes(attribute.Int("http.status_code", xerror.New(err).StatusCode()))
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return input, err
}
