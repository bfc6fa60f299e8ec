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

package object

import "fmt"

// DuplicateIDError is returned by AddObject/AddReference when id already
// names a reference in the context.
type DuplicateIDError struct {
	ID string
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("object: duplicate id %q", e.ID)
}

func (e DuplicateIDError) Unwrap() error { return nil }

// EmptyIDError is returned when AddObject/AddReference is called with an
// empty id.
type EmptyIDError struct{}

func (e EmptyIDError) Error() string {
	return "object: id must not be empty"
}

func (e EmptyIDError) Unwrap() error { return nil }

// EmptyObjectError is returned when AddObject/AddReference is called with a
// nil object or reference target.
type EmptyObjectError struct {
	ID string
}

func (e EmptyObjectError) Error() string {
	return fmt.Sprintf("object: cannot add nil object/reference with id %q", e.ID)
}

func (e EmptyObjectError) Unwrap() error { return nil }

// FrozenError is returned when AddObject/AddReference is called after
// Initialize has already run (the registry is write-once then read-only).
type FrozenError struct {
	ID string
}

func (e FrozenError) Error() string {
	return fmt.Sprintf("object: context already initialized, cannot add id %q", e.ID)
}

func (e FrozenError) Unwrap() error { return nil }

// ObjectNotFoundError is raised when a declared reference (refId) cannot be
// resolved against the context at load/add time.
type ObjectNotFoundError struct {
	RefID string
}

func (e ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object: reference id %q not found", e.RefID)
}

func (e ObjectNotFoundError) Unwrap() error { return nil }
