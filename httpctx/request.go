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

// Package httpctx implements the HTTP dispatch pipeline: Context, Endpoint,
// and Host form a composable tree of request-matching nodes that produce an
// Input sink per request.
package httpctx

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"rivaas.dev/appserver/object"
)

// Consumer is fed the request body by the transport once a RequestHandler
// has accepted a request.
type Consumer interface {
	Consume(body io.Reader) error
}

// Input is the result of dispatching a request through the tree: either
// empty ("not my request, try the next entry") or carrying a Consumer.
type Input struct {
	consumer Consumer
}

// NewInput wraps a Consumer into a non-empty Input.
func NewInput(c Consumer) Input { return Input{consumer: c} }

// Empty reports whether this Input carries no Consumer.
func (i Input) Empty() bool { return i.consumer == nil }

// Consumer returns the wrapped Consumer, or nil if Empty.
func (i Input) Consumer() Consumer { return i.consumer }

// RequestContext is the per-request value threaded through Accept calls.
// It is never shared across goroutines.
type RequestContext struct {
	// Ctx carries cancellation and, when tracing is wired, the active span.
	Ctx context.Context

	Request        *http.Request
	ResponseWriter http.ResponseWriter

	// ObjectContext is the root object registry, passed to Procedure.Run.
	ObjectContext *object.Context

	// Path is rewritten during endpoint traversal.
	Path string

	// HeadersContext and ErrorHandlingContext track the nearest enclosing
	// Context as dispatch descends, so a panic/error deep in the tree still
	// renders with the right header set and error documents.
	HeadersContext       *Context
	ErrorHandlingContext *Context

	// CorrelationID is a per-request id.
	CorrelationID string
}

// NewRequestContext builds a RequestContext for an inbound request.
func NewRequestContext(ctx context.Context, req *http.Request, w http.ResponseWriter, objCtx *object.Context) *RequestContext {
	return &RequestContext{
		Ctx:            ctx,
		Request:        req,
		ResponseWriter: w,
		ObjectContext:  objCtx,
		Path:           req.URL.Path,
		CorrelationID:  uuid.NewString(),
	}
}

// RequestHandler is the leaf contract for built-in and user handlers. Implementations that wish to reject a request short-circuit by
// returning an error (typically *xerror.HTTPStatusError) rather than a
// non-empty Input.
type RequestHandler interface {
	Accept(reqCtx *RequestContext) (Input, error)
}
