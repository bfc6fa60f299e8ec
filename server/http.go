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

// Package server implements the engine's server wrappers: a Server owns a
// transport listener and a root dispatch context, and implements the
// Procedure contract so the supervisor can run and cancel it like any other
// top-level entry.
package server

import (
	"context"
	"log/slog"
	"sync"

	"rivaas.dev/appserver/httpctx"
	"rivaas.dev/appserver/object"
	"rivaas.dev/appserver/supervisor"
	"rivaas.dev/appserver/transport"
)

// CertificateProvider resolves a hostname to TLS material. supervisor.Main
// satisfies it directly.
type CertificateProvider interface {
	Certificate(hostname string) (supervisor.Certificate, bool)
}

// HTTPServer binds an httpctx.Context root to a transport.Listener and
// drives it as an object.Procedure. It is its own ConsumerFactory: the
// transport hands every inbound request back to CreateConsumer, which runs
// the root context's dispatch.
type HTTPServer struct {
	Root     *httpctx.Context
	Listener transport.Listener
	Logger   *slog.Logger

	mu       sync.Mutex
	released bool
}

var (
	_ object.Procedure          = (*HTTPServer)(nil)
	_ object.Initializable      = (*HTTPServer)(nil)
	_ transport.ConsumerFactory = (*HTTPServer)(nil)
)

// NewHTTPServer constructs a plain (non-TLS) HTTP server wrapper.
func NewHTTPServer(root *httpctx.Context, l transport.Listener) *HTTPServer {
	return &HTTPServer{Root: root, Listener: l, Logger: slog.Default()}
}

// Initialize deep-initializes the root dispatch tree, unless the caller
// already did.
func (s *HTTPServer) Initialize(_ *object.Context) error {
	if s.Root.Frozen() {
		return nil
	}
	return s.Root.Initialize()
}

// CreateConsumer feeds one inbound request through the root context tree.
// An empty Input means no entry claimed the request; the transport applies
// its default 404 then.
func (s *HTTPServer) CreateConsumer(reqCtx *httpctx.RequestContext) (httpctx.Input, error) {
	return s.Root.Accept(reqCtx)
}

// Run binds the transport and feeds it requests until Cancel releases it.
func (s *HTTPServer) Run(_ *object.Context) error {
	s.Logger.Info("http server starting")
	return s.Listener.Listen(context.Background(), s)
}

// Cancel releases the transport, which causes Run to return.
func (s *HTTPServer) Cancel() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.mu.Unlock()
	_ = s.Listener.Release()
}
