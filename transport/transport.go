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

// Package transport defines the contracts servers bind against. This
// package only fixes the shape an external wire transport must expose; a
// reference net/http adapter lives in the nethttp subpackage so the engine
// is runnable end-to-end.
package transport

import (
	"context"

	"rivaas.dev/appserver/basicctx"
	"rivaas.dev/appserver/httpctx"
)

// Listener accepts HTTP requests and feeds them through a ConsumerFactory
// until Release is called or ctx is cancelled. A request the factory
// returns an empty Input for is the transport's own responsibility (the
// default 404).
type Listener interface {
	Listen(ctx context.Context, factory ConsumerFactory) error
	Release() error
}

// ConsumerFactory turns an inbound request context into an Input the
// transport then uses to stream the request body. Server wrappers implement
// it by delegating to their root context's Accept.
type ConsumerFactory interface {
	CreateConsumer(reqCtx *httpctx.RequestContext) (httpctx.Input, error)
}

// BasicListener is the message-protocol analogue of Listener. The notifier
// set is advertised at listen time so the transport can pre-filter
// subscriptions before a request ever reaches the dispatch tree.
type BasicListener interface {
	Listen(ctx context.Context, factory BasicConsumerFactory, notifiers map[string]struct{}) error
	Release() error
}

// BasicConsumerFactory is ConsumerFactory for the basic protocol.
type BasicConsumerFactory interface {
	CreateConsumer(reqCtx *basicctx.RequestContext) (basicctx.Input, error)
}
