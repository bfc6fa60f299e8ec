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

// Package apploader implements the application loader: a directory scan
// that turns each subdirectory carrying its own manifest into an
// Application, an ObjectContext of its own, installed with its own
// sub-configuration and dispatched against at request time.
package apploader

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"rivaas.dev/appserver/config"
	"rivaas.dev/appserver/httpctx"
	"rivaas.dev/appserver/object"
)

// Parser turns a manifest file into a parsed configuration tree. XML
// parsing itself is out of scope; the composition root supplies
// a concrete Parser.
type Parser interface {
	Parse(path string) (config.MainConfig, error)
}

// Builder constructs an application's root httpctx.Context from its parsed
// sub-configuration and a Registry of named implementations.
type Builder interface {
	Build(parent *object.Context, cfg config.MainConfig) (*httpctx.Context, error)
}

// Application is itself an ObjectContext whose parent is the loader's
// context, plus the root httpctx.Context requests are
// dispatched against.
type Application struct {
	*object.Context
	Name string
	Root *httpctx.Context
}

// Applications is the loader's runtime registry, built once by Scan.
type Applications struct {
	*object.Context
	parser  Parser
	builder Builder
	logger  *slog.Logger
	byName  map[string]*Application
	order   []string
}

// New creates an application loader whose ObjectContext parent is parent.
func New(parent *object.Context, parser Parser, builder Builder, logger *slog.Logger) *Applications {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applications{
		Context: object.NewContext(parent),
		parser:  parser,
		builder: builder,
		logger:  logger,
		byName:  make(map[string]*Application),
	}
}

// Scan walks dir's direct subdirectories, loading each one that carries a
// "<leaf>.xml" manifest into an Application. Subdirectories
// without a manifest are skipped with a warning, not an error; a stray
// non-application directory must not abort the whole loader.
func (a *Applications) Scan(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("apploader: reading %s: %w", dir, err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		appDir := filepath.Join(dir, name)
		manifest := filepath.Join(appDir, name+".xml")

		if _, statErr := os.Stat(manifest); statErr != nil {
			if os.IsNotExist(statErr) {
				a.logger.Warn("apploader: skipping directory without manifest", "dir", appDir)
				continue
			}
			return statErr
		}

		if err := a.load(name, appDir, manifest); err != nil {
			return fmt.Errorf("apploader: loading %s: %w", name, err)
		}
	}
	return nil
}

func (a *Applications) load(name, appDir, manifest string) error {
	cfg, err := a.parser.Parse(manifest)
	if err != nil {
		return err
	}

	appCtx := object.NewContext(a.Context)
	root, err := a.builder.Build(appCtx, cfg)
	if err != nil {
		return err
	}

	if root == nil {
		root = staticFallbackContext(appCtx, appDir)
	}

	app := &Application{Context: appCtx, Name: name, Root: root}
	if err := appCtx.Initialize(); err != nil {
		return err
	}

	a.byName[name] = app
	a.order = append(a.order, name)
	return nil
}

// staticFallbackContext covers an application directory without its own
// declared root context: its static/ subtree is served verbatim.
func staticFallbackContext(parent *object.Context, appDir string) *httpctx.Context {
	root := httpctx.NewContext(nil)
	staticDir := filepath.Join(appDir, "static")
	if info, err := os.Stat(staticDir); err != nil || !info.IsDir() {
		return root
	}
	root.AddRequestHandler(staticFileHandler{root: staticDir})
	return root
}

type staticFileHandler struct{ root string }

func (h staticFileHandler) Accept(reqCtx *httpctx.RequestContext) (httpctx.Input, error) {
	rel := filepath.Clean(reqCtx.Path)
	if strings.Contains(rel, "..") {
		return httpctx.Input{}, nil
	}
	full := filepath.Join(h.root, rel)
	if info, err := os.Stat(full); err != nil || info.IsDir() {
		return httpctx.Input{}, nil
	}
	return httpctx.NewInput(staticFileConsumer{path: full, w: reqCtx.ResponseWriter}), nil
}

// staticFileConsumer ignores the request body and streams the matched file
// with a MIME type derived from its extension.
type staticFileConsumer struct {
	path string
	w    http.ResponseWriter
}

func (c staticFileConsumer) Consume(_ io.Reader) error {
	f, err := os.Open(c.path)
	if err != nil {
		return err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(c.path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.w.Header().Set("Content-Type", contentType)
	_, err = io.Copy(c.w, f)
	return err
}

// Dispatch iterates applications (optionally filtered by name), asking
// each to accept the request; the first non-empty Input wins.
func (a *Applications) Dispatch(reqCtx *httpctx.RequestContext, applicationName string) (httpctx.Input, error) {
	for _, name := range a.order {
		if applicationName != "" && applicationName != name {
			continue
		}
		app := a.byName[name]
		input, err := app.Root.Accept(reqCtx)
		if err != nil {
			return httpctx.Input{}, err
		}
		if !input.Empty() {
			return input, nil
		}
	}
	return httpctx.Input{}, nil
}

// Names returns the loaded application names in scan order.
func (a *Applications) Names() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}
