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

package server

import "fmt"

// MissingCertificateError is returned by HTTPSServer.Initialize when the
// owning supervisor's certificate map has no entry for one of the server's
// configured hostnames (Hostname names the first such one), or with an
// empty Hostname when no hostnames or no certificate provider are set.
type MissingCertificateError struct {
	Hostname string
}

func (e MissingCertificateError) Error() string {
	return fmt.Sprintf("server: no certificate registered for hostname %q", e.Hostname)
}

func (e MissingCertificateError) Unwrap() error { return nil }
