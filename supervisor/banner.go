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
	"fmt"
	"os"

	figure "github.com/common-nighthawk/go-figure"
	"github.com/charmbracelet/lipgloss"
)

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39")).
	Padding(0, 1)

var stateStyle = lipgloss.NewStyle().
	Faint(true)

// printBanner renders the startup banner to stdout when verbose mode is
// on and stdout is a terminal. This is purely cosmetic and has no effect on
// dispatch.
func (m *Main) printBanner() {
	if fi, err := os.Stdout.Stat(); err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		return
	}
	art := figure.NewFigure("appserver", "small", true)
	fmt.Fprintln(os.Stdout, bannerStyle.Render(art.String()))
	fmt.Fprintln(os.Stdout, stateStyle.Render(fmt.Sprintf("entries=%d  state=%s  signals=%d", len(m.entries), m.State(), len(m.stopSignals))))
}
