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

// Package nethttp is the reference transport.Listener adapter over
// net/http, so the engine can be run and tested end-to-end: listen, log,
// block until ctx is cancelled or Release is called, then shut down with a
// bounded grace period.
package nethttp

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"rivaas.dev/appserver/httpctx"
	"rivaas.dev/appserver/object"
	"rivaas.dev/appserver/transport"
	"rivaas.dev/appserver/xerror"
)

// Listener binds a *http.Server to an address, translating each inbound
// request into an httpctx.RequestContext handed to the ConsumerFactory
// supplied at Listen time.
type Listener struct {
	Addr            string
	Logger          *slog.Logger
	ShutdownTimeout time.Duration

	// ObjectContext is the registry passed to Procedure entries dispatched
	// during a request. May be nil; an empty root is used then.
	ObjectContext *object.Context

	// Interpolate renders builtin-script error documents; nil disables that
	// document language.
	Interpolate xerror.Interpolator

	// H2C serves cleartext HTTP/2 alongside HTTP/1.1. Ignored when a TLS
	// config is set (ALPN negotiates h2 there).
	H2C bool

	mu       sync.Mutex
	srv      *http.Server
	ln       net.Listener
	tlsConf  *tls.Config
	released bool
}

var _ transport.Listener = (*Listener)(nil)

// ConfigureTLS installs the TLS configuration used for the next Listen.
// The https server wrapper calls this during initialization, once the
// supervisor's certificate map has been consulted.
func (l *Listener) ConfigureTLS(conf *tls.Config) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tlsConf = conf
}

// BoundAddr returns the address the listener is actually bound to, which
// differs from Addr when Addr requests an ephemeral port. Empty until
// Listen has bound.
func (l *Listener) BoundAddr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return ""
	}
	return l.ln.Addr().String()
}

// Listen binds the address and serves requests through factory until ctx is
// cancelled or Release is called from another goroutine.
func (l *Listener) Listen(ctx context.Context, factory transport.ConsumerFactory) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	objRoot := l.ObjectContext
	if objRoot == nil {
		objRoot = object.NewContext(nil)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		reqCtx := httpctx.NewRequestContext(req.Context(), req, w, objRoot)
		input, err := factory.CreateConsumer(reqCtx)
		if err != nil {
			xerror.New(err).DumpHTTP(w, reqCtx.ErrorHandlingContext, reqCtx.HeadersContext, l.Interpolate)
			return
		}
		if input.Empty() {
			http.NotFound(w, req)
			return
		}
		if c := input.Consumer(); c != nil {
			_ = c.Consume(req.Body)
		}
	})

	var handler http.Handler = mux

	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return nil
	}
	tlsConf := l.tlsConf
	if tlsConf == nil && l.H2C {
		handler = h2c.NewHandler(mux, &http2.Server{})
	}
	l.srv = &http.Server{
		Addr:      l.Addr,
		Handler:   handler,
		TLSConfig: tlsConf,
	}

	ln, err := net.Listen("tcp", l.Addr)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if tlsConf != nil {
		ln = tls.NewListener(ln, tlsConf)
	}
	l.ln = ln
	srv := l.srv
	l.mu.Unlock()

	logger.Info("listener bound", "address", ln.Addr().String(), "tls", tlsConf != nil)

	errCh := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		if err := l.Release(); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// Release shuts the server down gracefully within ShutdownTimeout (default
// 5s if unset), causing Listen to return. Safe to call before Listen and
// more than once.
func (l *Listener) Release() error {
	l.mu.Lock()
	l.released = true
	srv := l.srv
	l.mu.Unlock()

	if srv == nil {
		return nil
	}
	timeout := l.ShutdownTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
