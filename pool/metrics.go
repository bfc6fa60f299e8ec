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

package pool

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// ObserveWith registers two observable gauges on meter, "<name>.idle" and
// "<name>.circulating", read from Stats on each collection cycle. The
// returned registration should be unregistered before the pool is closed.
func (p *Pool[T]) ObserveWith(meter metric.Meter, name string) (metric.Registration, error) {
	idleGauge, err := meter.Int64ObservableGauge(name+".idle",
		metric.WithDescription("Items currently idle in the pool"))
	if err != nil {
		return nil, fmt.Errorf("pool: registering %s.idle: %w", name, err)
	}
	circGauge, err := meter.Int64ObservableGauge(name+".circulating",
		metric.WithDescription("Items currently handed out by the pool"))
	if err != nil {
		return nil, fmt.Errorf("pool: registering %s.circulating: %w", name, err)
	}

	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		idle, circulating := p.Stats()
		o.ObserveInt64(idleGauge, int64(idle))
		o.ObserveInt64(circGauge, int64(circulating))
		return nil
	}, idleGauge, circGauge)
	if err != nil {
		return nil, fmt.Errorf("pool: registering %s callback: %w", name, err)
	}
	return reg, nil
}
