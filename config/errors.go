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

package config

import "fmt"

// ReferenceNotFoundError is raised while loading a MainConfig when a
// ReferenceDecl or a refId-only ProcedureDecl names an id that no
// ObjectDecl/ProcedureDecl in scope declares. Build also returns it, with
// the implementation name as RefID, when an owned ProcedureDecl's
// implementation does not yield an object.Procedure. Unlike
// object.ObjectNotFoundError (a runtime lookup miss
// against an already-built registry) this carries the declaration's source
// Position, since it is a load-time, not a request-time, failure.
type ReferenceNotFoundError struct {
	RefID    string
	Position Position
}

func (e ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("config: reference %q not found (%s:%d)", e.RefID, e.Position.File, e.Position.Line)
}

func (e ReferenceNotFoundError) Unwrap() error { return nil }

// DuplicateAttributeError, UnknownAttributeError, MissingAttributeError and
// InvalidValueError round out the configuration-time error set; the loader
// raises them while walking parameter lists.
type DuplicateAttributeError struct {
	Key      string
	Position Position
}

func (e DuplicateAttributeError) Error() string {
	return fmt.Sprintf("config: duplicate attribute %q (%s:%d)", e.Key, e.Position.File, e.Position.Line)
}
func (e DuplicateAttributeError) Unwrap() error { return nil }

type UnknownAttributeError struct {
	Key      string
	Position Position
}

func (e UnknownAttributeError) Error() string {
	return fmt.Sprintf("config: unknown attribute %q (%s:%d)", e.Key, e.Position.File, e.Position.Line)
}
func (e UnknownAttributeError) Unwrap() error { return nil }

type MissingAttributeError struct {
	Key      string
	Position Position
}

func (e MissingAttributeError) Error() string {
	return fmt.Sprintf("config: missing required attribute %q (%s:%d)", e.Key, e.Position.File, e.Position.Line)
}
func (e MissingAttributeError) Unwrap() error { return nil }

type InvalidValueError struct {
	Key      string
	Value    string
	Position Position
}

func (e InvalidValueError) Error() string {
	return fmt.Sprintf("config: invalid value %q for %q (%s:%d)", e.Value, e.Key, e.Position.File, e.Position.Line)
}
func (e InvalidValueError) Unwrap() error { return nil }
