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

// Endpoint is a Context whose matching predicate is a URL-path prefix; it
// rewrites the request path for its descendants.
type Endpoint struct {
	*Context
	path string
}

// NewEndpoint creates an endpoint under parent matching the given path
// prefix. The leading "/" is normalized onto path.
func NewEndpoint(parent *Context, path string) *Endpoint {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}
	return &Endpoint{Context: NewContext(parent), path: path}
}

// Path returns the endpoint's normalized prefix.
func (e *Endpoint) Path() string { return e.path }

// GetMatch reports whether p is matched by this endpoint (p equals the
// endpoint's path, or starts with path+"/"), and if so returns the
// remaining sub-path (retaining its leading "/") to pass to descendants.
func (e *Endpoint) GetMatch(p string) (string, bool) {
	if e.path == "/" {
		if !strings.HasPrefix(p, "/") {
			return "", false
		}
		return p, true
	}

	if p == e.path {
		return "/", true
	}
	if strings.HasPrefix(p, e.path+"/") {
		return p[len(e.path):], true
	}
	return "", false
}
