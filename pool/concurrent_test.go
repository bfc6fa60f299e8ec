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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hammer the pool from many goroutines and check the conservation
// invariant never breaks: circulating never exceeds the bound and every
// acquired item is eventually released.
func TestPool_ConcurrentGetRelease(t *testing.T) {
	const bound = 4
	const workers = 32
	const iterations = 50

	var created int32
	p := New(func() (int, error) {
		return int(atomic.AddInt32(&created, 1)), nil
	}, WithMaxObjects[int](bound))
	defer p.Close()

	var peak int32
	var inFlight int32
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				item, err := p.Get(context.Background(), 0, FIFO)
				if err != nil || item.Empty() {
					continue
				}
				n := atomic.AddInt32(&inFlight, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(time.Millisecond / 4)
				atomic.AddInt32(&inFlight, -1)
				item.Release()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, int32(bound))
	assert.LessOrEqual(t, created, int32(bound))

	idle, circulating := p.Stats()
	assert.Equal(t, 0, circulating)
	assert.LessOrEqual(t, idle, bound)
}

// Waiters blocked at capacity are woken by Close and come back with empty
// items instead of hanging.
func TestPool_CloseWakesBlockedWaiters(t *testing.T) {
	p := New(func() (int, error) { return 1, nil }, WithMaxObjects[int](1))

	held, err := p.Get(context.Background(), 0, FIFO)
	require.NoError(t, err)
	require.False(t, held.Empty())

	const waiters = 8
	results := make(chan bool, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			item, _ := p.Get(context.Background(), 0, FIFO)
			results <- item.Empty()
		}()
	}

	time.Sleep(20 * time.Millisecond)
	p.Close()

	for i := 0; i < waiters; i++ {
		select {
		case empty := <-results:
			assert.True(t, empty)
		case <-time.After(2 * time.Second):
			t.Fatal("waiter did not wake after Close")
		}
	}
}

// A release always hands the item to exactly one waiter; no item is ever
// observed by two goroutines at once.
func TestPool_NoDoubleCheckout(t *testing.T) {
	p := New(func() (int, error) { return 42, nil }, WithMaxObjects[int](1))
	defer p.Close()

	var holders int32
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				item, err := p.Get(context.Background(), 0, FIFO)
				if err != nil || item.Empty() {
					return
				}
				if atomic.AddInt32(&holders, 1) > 1 {
					t.Error("two goroutines hold the single pooled item")
				}
				atomic.AddInt32(&holders, -1)
				item.Release()
			}
		}()
	}
	wg.Wait()
}
