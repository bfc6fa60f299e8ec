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
	"os"
	"os/signal"
	"sync"
)

// installSignalLoop starts the dedicated signal goroutine iff stopSignals is
// non-empty: it waits on incoming OS signals and calls Cancel whenever the
// running set is non-empty, returning once it is empty. The handler side
// stays minimal; all shutdown work happens on the goroutine.
func (m *Main) installSignalLoop() func() {
	if len(m.stopSignals) == 0 {
		return func() {}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, m.stopSignals...)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case <-ch:
				m.mu.Lock()
				nonEmpty := len(m.running) > 0
				m.mu.Unlock()
				if nonEmpty {
					m.Cancel()
				} else {
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
		wg.Wait()
	}
}
