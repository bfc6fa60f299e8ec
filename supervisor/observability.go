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

package supervisor

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "rivaas.dev/appserver/supervisor"

// WithMeterProvider overrides the global meter provider used for the
// supervisor's own instruments.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(m *Main) { m.meterProvider = mp }
}

// WithTracerProvider overrides the global tracer provider handed to
// components the supervisor wires up (the composition root attaches it to
// server root contexts).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Main) { m.tracerProvider = tp }
}

// Tracer returns a tracer from the configured (or global) provider, for
// attaching to dispatch trees.
func (m *Main) Tracer() trace.Tracer {
	tp := m.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentationName)
}

// registerInstruments publishes the running-procedure count as an
// observable gauge. Provider defaults to the otel global, which is a noop
// until the composition root installs an exporter.
func (m *Main) registerInstruments() {
	mp := m.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	gauge, err := meter.Int64ObservableGauge("appserver.procedures.running",
		metric.WithDescription("Procedures currently registered as running"))
	if err != nil {
		m.logger.Warn("registering procedure gauge failed", "error", err)
		return
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		m.mu.Lock()
		n := len(m.running)
		m.mu.Unlock()
		o.ObserveInt64(gauge, int64(n))
		return nil
	}, gauge)
	if err != nil {
		m.logger.Warn("registering procedure gauge callback failed", "error", err)
	}
}
