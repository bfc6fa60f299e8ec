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

// Command appserver is the composition root: it assembles a supervisor, an
// HTTP server with a small built-in dispatch tree (health, echo, metrics),
// and the observability providers, then runs until a stop signal arrives.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"rivaas.dev/appserver/httpctx"
	"rivaas.dev/appserver/pool"
	"rivaas.dev/appserver/server"
	"rivaas.dev/appserver/supervisor"
	"rivaas.dev/appserver/transport/nethttp"
	"rivaas.dev/appserver/xerror"
)

type settings struct {
	Addr                string   `env:"APPSERVER_ADDR" envDefault:":8080"`
	StopSignals         []string `env:"APPSERVER_STOP_SIGNALS" envDefault:"interrupt,terminate"`
	TerminateCounter    int      `env:"APPSERVER_TERMINATE_COUNTER" envDefault:"-1"`
	CatchException      bool     `env:"APPSERVER_CATCH_EXCEPTION" envDefault:"true"`
	DumpException       bool     `env:"APPSERVER_DUMP_EXCEPTION" envDefault:"true"`
	ExceptionReturnCode int      `env:"APPSERVER_EXCEPTION_RETURN_CODE" envDefault:"1"`
	Verbose             bool     `env:"APPSERVER_VERBOSE" envDefault:"false"`
	H2C                 bool     `env:"APPSERVER_H2C" envDefault:"false"`
}

func main() {
	os.Exit(run())
}

func run() int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var cfg settings
	if err := env.Parse(&cfg); err != nil {
		logger.Error("parsing environment", "error", err)
		return 1
	}

	registry := promclient.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		logger.Error("creating prometheus exporter", "error", err)
		return 1
	}
	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName("appserver"))
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetMeterProvider(meterProvider)
	otel.SetTracerProvider(tracerProvider)

	opts := []supervisor.Option{
		supervisor.WithLogger(logger),
		supervisor.WithCatchException(cfg.CatchException),
		supervisor.WithDumpException(cfg.DumpException),
		supervisor.WithExceptionReturnCode(cfg.ExceptionReturnCode),
		supervisor.WithVerbose(cfg.Verbose),
		supervisor.WithMeterProvider(meterProvider),
		supervisor.WithTracerProvider(tracerProvider),
	}
	for _, name := range cfg.StopSignals {
		sig, err := signalByName(name)
		if err != nil {
			logger.Error("unknown stop signal", "name", name)
			return 1
		}
		opts = append(opts, supervisor.WithStopSignals(sig))
	}
	if cfg.TerminateCounter >= 0 {
		opts = append(opts, supervisor.WithTerminateCounter(cfg.TerminateCounter))
	}

	m := supervisor.New(opts...)

	buffers := pool.New(func() (*bytes.Buffer, error) { return new(bytes.Buffer), nil },
		pool.WithMaxObjects[*bytes.Buffer](64))
	defer buffers.Close()
	if _, err := buffers.ObserveWith(meterProvider.Meter("rivaas.dev/appserver/cmd"), "appserver.echo_buffers"); err != nil {
		logger.Warn("registering buffer pool gauges failed", "error", err)
	}

	root := buildDispatchTree(m, registry, buffers)

	listener := &nethttp.Listener{
		Addr:          cfg.Addr,
		Logger:        logger,
		ObjectContext: m.Context,
		H2C:           cfg.H2C,
	}
	srv := server.NewHTTPServer(root, listener)
	srv.Logger = logger
	if err := m.AddProcedure("http-server", srv); err != nil {
		logger.Error("registering server", "error", err)
		return 1
	}

	if err := m.Run(nil); err != nil {
		logger.Error("supervisor exited with error", "error", err)
	}
	if code, ok := m.ReturnCode(); ok {
		return code
	}
	return 0
}

// buildDispatchTree assembles the built-in tree: a health endpoint, an echo
// endpoint backed by the buffer pool, and the prometheus scrape surface,
// all dispatched through the same context machinery user configurations
// use.
func buildDispatchTree(m *supervisor.Main, registry *promclient.Registry, buffers *pool.Pool[*bytes.Buffer]) *httpctx.Context {
	root := httpctx.NewContext(nil)
	root.SetTracer(m.Tracer())
	root.AddHeader("X-Server", "appserver")
	root.SetShowStacktrace(false)

	health := httpctx.NewEndpoint(root, "/healthz")
	_ = root.AddEndpoint("healthz", health)
	health.AddRequestHandler(plainHandler{body: "ok\n"})

	echo := httpctx.NewEndpoint(root, "/echo")
	_ = root.AddEndpoint("echo", echo)
	echo.AddRequestHandler(echoHandler{buffers: buffers})

	metrics := httpctx.NewEndpoint(root, "/metrics")
	_ = root.AddEndpoint("metrics", metrics)
	metrics.AddRequestHandler(promHandler{
		h: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	return root
}

func signalByName(name string) (os.Signal, error) {
	switch name {
	case "interrupt":
		return syscall.SIGINT, nil
	case "terminate":
		return syscall.SIGTERM, nil
	case "pipe":
		return syscall.SIGPIPE, nil
	case "hangup":
		return syscall.SIGHUP, nil
	default:
		return nil, fmt.Errorf("no signal named %q", name)
	}
}

type plainHandler struct{ body string }

func (h plainHandler) Accept(reqCtx *httpctx.RequestContext) (httpctx.Input, error) {
	reqCtx.ResponseWriter.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(reqCtx.ResponseWriter, h.body)
	return httpctx.NewInput(discardConsumer{}), nil
}

// echoHandler writes the endpoint-relative path back, then streams the
// request body after it. Response lines are assembled in a pooled buffer;
// a pool stuck at capacity turns into a 503 rather than an unbounded wait.
type echoHandler struct {
	buffers *pool.Pool[*bytes.Buffer]
}

func (h echoHandler) Accept(reqCtx *httpctx.RequestContext) (httpctx.Input, error) {
	item, err := h.buffers.Get(reqCtx.Ctx, time.Second, pool.LIFO)
	if err != nil || item.Empty() {
		return httpctx.Input{}, &xerror.HTTPStatusError{Code: http.StatusServiceUnavailable, MIME: "text/plain"}
	}
	defer item.Release()

	buf := item.Value()
	buf.Reset()
	buf.WriteString(reqCtx.Path)
	buf.WriteByte('\n')

	reqCtx.ResponseWriter.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := buf.WriteTo(reqCtx.ResponseWriter); err != nil {
		return httpctx.Input{}, err
	}
	return httpctx.NewInput(copyConsumer{w: reqCtx.ResponseWriter}), nil
}

// promHandler adapts the prometheus scrape handler to the request-handler
// contract. The response is written before the body consumer runs, like any
// other handler.
type promHandler struct{ h http.Handler }

func (p promHandler) Accept(reqCtx *httpctx.RequestContext) (httpctx.Input, error) {
	p.h.ServeHTTP(reqCtx.ResponseWriter, reqCtx.Request)
	return httpctx.NewInput(discardConsumer{}), nil
}

type discardConsumer struct{}

func (discardConsumer) Consume(body io.Reader) error {
	_, err := io.Copy(io.Discard, body)
	return err
}

type copyConsumer struct{ w io.Writer }

func (c copyConsumer) Consume(body io.Reader) error {
	_, err := io.Copy(c.w, body)
	return err
}
