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

// Package xerror classifies arbitrary Go errors into the engine's error
// taxonomy and renders them to a log or an HTTP response. Classification is
// lazy and idempotent: a captured error maps to a small fixed set of kinds,
// each contributing a plain message, optional details, and an optional
// stacktrace.
package xerror

import "fmt"

// Kind enumerates the engine's error taxonomy.
type Kind int

const (
	KindUnknown Kind = iota
	KindHTTPStatus
	KindSQLError
	KindPluginNotFound
	KindRuntimeError
	KindOutOfRange
	KindInvalidArgument
	KindLogicError
	KindGenericException
)

func (k Kind) String() string {
	switch k {
	case KindHTTPStatus:
		return "HTTPStatus"
	case KindSQLError:
		return "SQLError"
	case KindPluginNotFound:
		return "PluginNotFound"
	case KindRuntimeError:
		return "RuntimeError"
	case KindOutOfRange:
		return "OutOfRange"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindLogicError:
		return "LogicError"
	case KindGenericException:
		return "GenericException"
	default:
		return "Unknown"
	}
}

// HTTPStatusError is raised by request handlers to short-circuit dispatch
// with a specific HTTP status. What, if set, overrides the status's default
// reason phrase. MIME selects the synthesized response body's content type
// ("text/html" when empty).
type HTTPStatusError struct {
	Code int
	MIME string
	What string
}

func (e *HTTPStatusError) Error() string {
	if e.What != "" {
		return e.What
	}
	return fmt.Sprintf("http status %d", e.Code)
}

func (e *HTTPStatusError) Unwrap() error { return nil }

// SQLError carries a driver return code and free-form diagnostic text.
type SQLError struct {
	ReturnCode  int
	Diagnostics string
	msg         string
}

func (e *SQLError) Error() string { return e.msg }

// NewSQLError constructs a SQLError with a human message.
func NewSQLError(msg string, returnCode int, diagnostics string) *SQLError {
	return &SQLError{ReturnCode: returnCode, Diagnostics: diagnostics, msg: msg}
}

// PluginNotFoundError is raised when the plugin registry cannot resolve an
// implementation id.
type PluginNotFoundError struct {
	Requested string
	Available []string
}

func (e *PluginNotFoundError) Error() string {
	return fmt.Sprintf("plugin not found: %q", e.Requested)
}

// FilePosition optionally attaches a source location to an error.
type FilePosition struct {
	File string
	Line int
}

// WithStacktrace is implemented by errors that carry a captured stack.
type WithStacktrace interface {
	Stacktrace() string
}

// WithFilePosition is implemented by errors that carry a FilePosition.
type WithFilePosition interface {
	FilePosition() FilePosition
}
