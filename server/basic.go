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

package server

import (
	"context"
	"log/slog"
	"sync"

	"rivaas.dev/appserver/basicctx"
	"rivaas.dev/appserver/object"
	"rivaas.dev/appserver/transport"
)

// BasicServer binds a basicctx.Context root to a notifier-aware transport.
// At listen time it advertises the aggregated notifier set from its root
// context so the transport can pre-filter subscriptions.
type BasicServer struct {
	Root     *basicctx.Context
	Listener transport.BasicListener
	Logger   *slog.Logger

	mu       sync.Mutex
	released bool
}

var (
	_ object.Procedure               = (*BasicServer)(nil)
	_ object.Initializable           = (*BasicServer)(nil)
	_ transport.BasicConsumerFactory = (*BasicServer)(nil)
)

// NewBasicServer constructs a basic-protocol server wrapper.
func NewBasicServer(root *basicctx.Context, l transport.BasicListener) *BasicServer {
	return &BasicServer{Root: root, Listener: l, Logger: slog.Default()}
}

// Initialize deep-initializes the root dispatch tree, unless the caller
// already did.
func (s *BasicServer) Initialize(_ *object.Context) error {
	if s.Root.Frozen() {
		return nil
	}
	return s.Root.Initialize()
}

// Notifiers returns the aggregated notifier set advertised to the
// transport.
func (s *BasicServer) Notifiers() map[string]struct{} {
	return s.Root.Notifiers()
}

// CreateConsumer feeds one inbound message through the root context tree.
func (s *BasicServer) CreateConsumer(reqCtx *basicctx.RequestContext) (basicctx.Input, error) {
	return s.Root.Accept(reqCtx)
}

// Run binds the transport, advertising the notifier set, and blocks until
// Cancel releases it.
func (s *BasicServer) Run(_ *object.Context) error {
	notifiers := s.Notifiers()
	s.Logger.Info("basic server starting", "notifiers", len(notifiers))
	return s.Listener.Listen(context.Background(), s, notifiers)
}

// Cancel releases the transport.
func (s *BasicServer) Cancel() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.mu.Unlock()
	_ = s.Listener.Release()
}
