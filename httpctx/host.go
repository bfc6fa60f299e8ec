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

package httpctx

import "strings"

// Host is a Context whose matching predicate is a virtual-host name
// pattern. serverNamePattern supports "*" to match any single label, as
// virtual-host matching conventionally works.
type Host struct {
	*Context
	serverNamePattern string
}

// NewHost creates a host under parent matching serverNamePattern.
func NewHost(parent *Context, serverNamePattern string) *Host {
	return &Host{Context: NewContext(parent), serverNamePattern: serverNamePattern}
}

// Pattern returns the configured server-name pattern.
func (h *Host) Pattern() string { return h.serverNamePattern }

// IsMatch reports whether hostname (any ":port" suffix is ignored) matches
// this host's pattern. A pattern of "*" alone matches every hostname.
// Otherwise a "*" label matches exactly one label: it does not match
// several labels or none, so "*.example.com" matches neither
// "a.b.example.com" nor "example.com". Comparison of concrete labels is
// case-insensitive.
func (h *Host) IsMatch(hostname string) bool {
	hostname = stripPort(hostname)
	if h.serverNamePattern == "*" {
		return true
	}

	patternLabels := strings.Split(h.serverNamePattern, ".")
	hostLabels := strings.Split(hostname, ".")
	if len(patternLabels) != len(hostLabels) {
		return false
	}
	for i, pl := range patternLabels {
		if pl == "*" {
			continue
		}
		if !strings.EqualFold(pl, hostLabels[i]) {
			return false
		}
	}
	return true
}

func stripPort(hostname string) string {
	if idx := strings.LastIndex(hostname, ":"); idx >= 0 {
		return hostname[:idx]
	}
	return hostname
}
