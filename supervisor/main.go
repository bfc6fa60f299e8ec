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

// Package supervisor implements the root object context and process
// lifecycle manager: procedure registry, signal loop, cooperative
// cancellation, and exception rendering at shutdown.
package supervisor

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/appserver/object"
	"rivaas.dev/appserver/xerror"
)

// State is the supervisor's lifecycle state.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateStopping
	StateExited
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateExited:
		return "exited"
	case StateTerminated:
		return "terminated"
	default:
		return "created"
	}
}

// Certificate is a hostname's TLS key/cert pair.
type Certificate struct {
	Hostname string
	Key      []byte
	Cert     []byte
}

// Main is the root supervisor: an object.Context that also owns the
// procedure registry, certificate map, and signal loop.
type Main struct {
	*object.Context

	logger *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	running map[string]object.Procedure

	entries []mainEntry

	certificates map[string]Certificate

	stopSignals         []os.Signal
	terminateCounter    *int // nil = unbounded, never force-terminates
	catchException      bool
	dumpException       bool
	exceptionReturnCode *int
	verbose             bool

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	cancelled bool

	terminateFunc func()

	state      State
	returnCode *int
}

type mainEntry struct {
	id        string
	procedure object.Procedure
}

// Option configures a Main at construction.
type Option func(*Main)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option { return func(m *Main) { m.logger = l } }

// WithStopSignals registers OS signals that trigger cooperative shutdown.
func WithStopSignals(sig ...os.Signal) Option {
	return func(m *Main) { m.stopSignals = append(m.stopSignals, sig...) }
}

// WithTerminateCounter bounds the number of cancel() calls tolerated before
// the next one force-terminates the process. The default is unbounded.
func WithTerminateCounter(n int) Option {
	return func(m *Main) { m.terminateCounter = &n }
}

// WithCatchException controls whether Run rethrows a procedure's error
// after rendering it, or swallows it.
func WithCatchException(v bool) Option { return func(m *Main) { m.catchException = v } }

// WithDumpException controls whether an exception is rendered to the
// logger before Run returns.
func WithDumpException(v bool) Option { return func(m *Main) { m.dumpException = v } }

// WithExceptionReturnCode records code, readable through ReturnCode, when
// Run captures an error from a procedure. The code is not registered as an
// object in the supervisor's context.
func WithExceptionReturnCode(code int) Option {
	return func(m *Main) { m.exceptionReturnCode = &code }
}

// WithVerbose enables the startup banner and config dump.
func WithVerbose(v bool) Option { return func(m *Main) { m.verbose = v } }

// WithTerminateFunc overrides the force-terminate action invoked when the
// terminate counter is exhausted. Defaults to os.Exit(1); tests should
// override this.
func WithTerminateFunc(fn func()) Option { return func(m *Main) { m.terminateFunc = fn } }

// New creates a supervisor with no parent object context (it is the root).
func New(opts ...Option) *Main {
	m := &Main{
		Context:       object.NewContext(nil),
		logger:        slog.Default(),
		running:       make(map[string]object.Procedure),
		certificates:  make(map[string]Certificate),
		terminateFunc: func() { os.Exit(1) },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cond = sync.NewCond(&m.mu)
	m.registerInstruments()
	return m
}

// AddCertificate registers a hostname's TLS material.
func (m *Main) AddCertificate(c Certificate) {
	m.certificates[c.Hostname] = c
}

// Certificate looks up a hostname's TLS material. Servers needing TLS call
// this during their own Initialize and fail fast (MissingCertificateError)
// if absent.
func (m *Main) Certificate(hostname string) (Certificate, bool) {
	c, ok := m.certificates[hostname]
	return c, ok
}

// AddProcedure appends an owned top-level procedure/server entry.
func (m *Main) AddProcedure(id string, p object.Procedure) error {
	if id != "" {
		if err := m.AddObject(id, p); err != nil {
			return err
		}
	}
	m.entries = append(m.entries, mainEntry{id: id, procedure: p})
	return nil
}

// State returns the supervisor's current lifecycle state.
func (m *Main) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Main) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Run executes the full lifecycle: install signal
// handlers, deep-initialize, run entries in order, block until the running
// set drains, then classify and handle any captured exception. Run itself
// satisfies object.Procedure so a Main can be nested as a top-level entry
// of another Main.
func (m *Main) Run(_ *object.Context) error {
	m.setState(StateRunning)

	if m.verbose {
		m.printBanner()
	}

	stopSignalLoop := m.installSignalLoop()
	defer stopSignalLoop()

	if err := m.Context.Initialize(); err != nil {
		m.setState(StateTerminated)
		return err
	}

	errCh := make(chan error, len(m.entries))
	var wg sync.WaitGroup

	for _, e := range m.entries {
		m.mu.Lock()
		cancelled := m.cancelled
		m.mu.Unlock()
		if cancelled {
			break
		}

		id := e.id
		if id == "" {
			id = uuid.NewString()
		}
		m.registerRunning(id, e.procedure)

		wg.Add(1)
		go func(id string, p object.Procedure) {
			defer wg.Done()
			defer m.unregisterRunning(id)
			if err := p.Run(m.Context); err != nil {
				select {
				case errCh <- err:
				default:
				}
			}
		}(id, e.procedure)
	}

	m.waitUntilRunningEmpty()
	wg.Wait()
	close(errCh)

	m.setState(StateExited)

	var firstErr error
	for err := range errCh {
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		m.handleRunException(firstErr)
		if !m.catchException {
			m.setState(StateTerminated)
			return firstErr
		}
	}

	m.mu.Lock()
	m.cancelled = false
	m.mu.Unlock()
	m.setState(StateTerminated)
	return nil
}

func (m *Main) handleRunException(err error) {
	if m.exceptionReturnCode != nil {
		code := *m.exceptionReturnCode
		m.mu.Lock()
		m.returnCode = &code
		m.mu.Unlock()
	}
	if m.dumpException {
		xerror.New(err).DumpLog(m.logger)
	}
}

// ReturnCode reports the process exit code published after an unhandled
// exception, when WithExceptionReturnCode is configured. The second result is false until an exception
// has actually occurred.
func (m *Main) ReturnCode() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnCode == nil {
		return 0, false
	}
	return *m.returnCode, true
}

func (m *Main) registerRunning(id string, p object.Procedure) {
	m.mu.Lock()
	m.running[id] = p
	m.mu.Unlock()
}

func (m *Main) unregisterRunning(id string) {
	m.mu.Lock()
	delete(m.running, id)
	empty := len(m.running) == 0
	m.mu.Unlock()
	if empty {
		m.cond.Broadcast()
	}
}

func (m *Main) waitUntilRunningEmpty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.running) > 0 {
		m.cond.Wait()
	}
}

// Cancel requests cooperative shutdown. It is
// idempotent with respect to already-finished procedures and safe to call
// from any goroutine, including a signal handler's notification hop.
func (m *Main) Cancel() {
	m.mu.Lock()

	if m.terminateCounter != nil {
		if *m.terminateCounter <= 0 {
			m.mu.Unlock()
			m.setState(StateStopping)
			m.terminateFunc()
			return
		}
		*m.terminateCounter--
	}

	snapshot := make(map[string]object.Procedure, len(m.running))
	for id, p := range m.running {
		snapshot[id] = p
	}
	selfIncluded := false
	for _, p := range snapshot {
		if asMain, ok := p.(*Main); ok && asMain == m {
			selfIncluded = true
		}
	}
	m.mu.Unlock()

	m.setState(StateStopping)

	for _, p := range snapshot {
		if asMain, ok := p.(*Main); ok && asMain == m {
			continue
		}
		p.Cancel()
	}

	if selfIncluded {
		m.mu.Lock()
		m.cancelled = true
		m.mu.Unlock()
	}
}

// Cancelled reports whether the entry-dispatch loop should stop launching
// further top-level entries.
func (m *Main) Cancelled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}

// ErrCancelled is a sentinel a Procedure may wrap into its Run error to
// signal it exited because of Cancel rather than failure.
var ErrCancelled = errors.New("supervisor: procedure cancelled")
