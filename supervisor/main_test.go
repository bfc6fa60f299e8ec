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
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/appserver/object"
)

// blockingProcedure runs until its own cancel channel is closed, recording
// whether Cancel was ever invoked, and how many times.
type blockingProcedure struct {
	mu        sync.Mutex
	cancelled int
	done      chan struct{}
	started   chan struct{}
}

func newBlockingProcedure() *blockingProcedure {
	return &blockingProcedure{done: make(chan struct{}), started: make(chan struct{}, 1)}
}

func (p *blockingProcedure) Run(_ *object.Context) error {
	select {
	case p.started <- struct{}{}:
	default:
	}
	<-p.done
	return nil
}

func (p *blockingProcedure) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled++
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}

func (p *blockingProcedure) cancelCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

type failingProcedure struct{ err error }

func (p failingProcedure) Run(_ *object.Context) error { return p.err }
func (p failingProcedure) Cancel()                     {}

func TestMain_RunDrainsAllEntriesBeforeReturning(t *testing.T) {
	m := New()
	p1 := newBlockingProcedure()
	p2 := newBlockingProcedure()
	require.NoError(t, m.AddProcedure("p1", p1))
	require.NoError(t, m.AddProcedure("p2", p2))

	runDone := make(chan error, 1)
	go func() { runDone <- m.Run(nil) }()

	<-p1.started
	<-p2.started

	m.Cancel()

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Cancel drained all entries")
	}

	assert.Equal(t, StateTerminated, m.State())
}

// A stop signal arrives while a long-running procedure is active; the
// supervisor cancels it and Run returns once the running set is empty.
func TestSignalDrivenShutdown(t *testing.T) {
	m := New(WithStopSignals(syscall.SIGUSR1))
	p := newBlockingProcedure()
	require.NoError(t, m.AddProcedure("worker", p))

	runDone := make(chan error, 1)
	go func() { runDone <- m.Run(nil) }()

	<-p.started
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after stop signal")
	}
	assert.GreaterOrEqual(t, p.cancelCount(), 1)
}

// Calling Cancel multiple times on an already-draining supervisor must not
// panic or deadlock, and Run still returns once the procedure exits.
func TestCancelIsIdempotent(t *testing.T) {
	m := New()
	p := newBlockingProcedure()
	require.NoError(t, m.AddProcedure("worker", p))

	runDone := make(chan error, 1)
	go func() { runDone <- m.Run(nil) }()
	<-p.started

	m.Cancel()
	m.Cancel()
	m.Cancel()

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestMain_TerminateCounterForceTerminatesWhenExhausted(t *testing.T) {
	m := New(WithTerminateCounter(1))
	terminated := false
	m.terminateFunc = func() { terminated = true }

	p := newBlockingProcedure()
	require.NoError(t, m.AddProcedure("worker", p))

	runDone := make(chan error, 1)
	go func() { runDone <- m.Run(nil) }()
	<-p.started

	m.Cancel() // counter 1 -> 0, procedure cancelled normally
	<-runDone

	m2 := New(WithTerminateCounter(0))
	terminated2 := false
	m2.terminateFunc = func() { terminated2 = true }
	m2.Cancel() // counter already <= 0: force-terminate immediately

	assert.False(t, terminated)
	assert.True(t, terminated2)
}

func TestMain_CatchExceptionSwallowsError(t *testing.T) {
	m := New(WithCatchException(true))
	require.NoError(t, m.AddProcedure("bad", failingProcedure{err: errors.New("boom")}))

	err := m.Run(nil)
	assert.NoError(t, err)
}

func TestMain_ExceptionPropagatesWhenNotCaught(t *testing.T) {
	m := New()
	require.NoError(t, m.AddProcedure("bad", failingProcedure{err: errors.New("boom")}))

	err := m.Run(nil)
	assert.Error(t, err)
}

func TestMain_ExceptionReturnCodePublished(t *testing.T) {
	m := New(WithExceptionReturnCode(7), WithCatchException(true))
	require.NoError(t, m.AddProcedure("bad", failingProcedure{err: errors.New("boom")}))

	require.NoError(t, m.Run(nil))
	code, ok := m.ReturnCode()
	require.True(t, ok)
	assert.Equal(t, 7, code)
}

func TestMain_CertificateLookup(t *testing.T) {
	m := New()
	m.AddCertificate(Certificate{Hostname: "example.com", Key: []byte("k"), Cert: []byte("c")})

	cert, ok := m.Certificate("example.com")
	require.True(t, ok)
	assert.Equal(t, []byte("k"), cert.Key)

	_, ok = m.Certificate("other.com")
	assert.False(t, ok)
}
