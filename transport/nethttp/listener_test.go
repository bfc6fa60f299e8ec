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

package nethttp_test

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/appserver/httpctx"
	"rivaas.dev/appserver/server"
	"rivaas.dev/appserver/transport/nethttp"
	"rivaas.dev/appserver/xerror"
)

type echoPathHandler struct{}

func (echoPathHandler) Accept(reqCtx *httpctx.RequestContext) (httpctx.Input, error) {
	io.WriteString(reqCtx.ResponseWriter, reqCtx.Path)
	return httpctx.NewInput(drainConsumer{}), nil
}

type drainConsumer struct{}

func (drainConsumer) Consume(body io.Reader) error {
	_, err := io.Copy(io.Discard, body)
	return err
}

type failingHandler struct{ code int }

func (h failingHandler) Accept(*httpctx.RequestContext) (httpctx.Input, error) {
	return httpctx.Input{}, &xerror.HTTPStatusError{Code: h.code}
}

// startServer runs an HTTP server wrapper over an ephemeral port and
// returns its base URL plus a shutdown func that waits for Run to return.
func startServer(t *testing.T, root *httpctx.Context) (string, func()) {
	t.Helper()
	require.NoError(t, root.Initialize())

	l := &nethttp.Listener{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}
	srv := server.NewHTTPServer(root, l)

	done := make(chan error, 1)
	go func() { done <- srv.Run(nil) }()

	var addr string
	require.Eventually(t, func() bool {
		addr = l.BoundAddr()
		return addr != ""
	}, 2*time.Second, 5*time.Millisecond)

	return "http://" + addr, func() {
		srv.Cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("server did not shut down")
		}
	}
}

func TestListener_DispatchesThroughNestedEndpoints(t *testing.T) {
	root := httpctx.NewContext(nil)
	api := httpctx.NewEndpoint(root, "/api")
	require.NoError(t, root.AddEndpoint("api", api))
	v1 := httpctx.NewEndpoint(api.Context, "/v1")
	require.NoError(t, api.AddEndpoint("v1", v1))
	v1.AddRequestHandler(echoPathHandler{})

	base, shutdown := startServer(t, root)
	defer shutdown()

	resp, err := http.Get(base + "/api/v1/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/ping", string(body))
}

func TestListener_DefaultNotFoundWhenNothingAccepts(t *testing.T) {
	root := httpctx.NewContext(nil)

	base, shutdown := startServer(t, root)
	defer shutdown()

	resp, err := http.Get(base + "/nowhere")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListener_RendersErrorDocumentRedirect(t *testing.T) {
	root := httpctx.NewContext(nil)
	require.NoError(t, root.AddErrorDocument(http.StatusNotFound, xerror.Document{Path: "http://errors.example/notfound"}))
	root.AddRequestHandler(failingHandler{code: http.StatusNotFound})

	base, shutdown := startServer(t, root)
	defer shutdown()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(base + "/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "http://errors.example/notfound", resp.Header.Get("Location"))
}

func TestListener_ErrorResponseCarriesEffectiveHeaders(t *testing.T) {
	root := httpctx.NewContext(nil)
	root.AddHeader("X-Server", "appserver")
	api := httpctx.NewEndpoint(root, "/api")
	require.NoError(t, root.AddEndpoint("api", api))
	api.AddHeader("X-Api", "1")
	api.AddRequestHandler(failingHandler{code: http.StatusNotFound})

	base, shutdown := startServer(t, root)
	defer shutdown()

	resp, err := http.Get(base + "/api/boom")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "appserver", resp.Header.Get("X-Server"))
	assert.Equal(t, "1", resp.Header.Get("X-Api"))
}

func TestListener_ReleaseBeforeListenIsSafe(t *testing.T) {
	l := &nethttp.Listener{Addr: "127.0.0.1:0"}
	require.NoError(t, l.Release())
}
