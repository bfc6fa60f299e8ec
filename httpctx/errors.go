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

import "fmt"

// DuplicateErrorDocumentError is raised by AddErrorDocument when a document
// is already registered for the given status code.
type DuplicateErrorDocumentError struct {
	StatusCode int
}

func (e DuplicateErrorDocumentError) Error() string {
	return fmt.Sprintf("httpctx: error document already registered for status %d", e.StatusCode)
}

func (e DuplicateErrorDocumentError) Unwrap() error { return nil }
