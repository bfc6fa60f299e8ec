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

import (
	"rivaas.dev/appserver/object"
)

// Registry resolves a named implementation to a constructed object.Object,
// the way the source's plugin registry does. It is supplied by the
// composition root; the core never hardcodes implementation names.
type Registry interface {
	New(implementation string, parameters []KeyValue) (object.Object, error)
}

// Build walks cfg.Objects and populates root, resolving ObjectDecl and
// owned ProcedureDecl entries via reg, and RefID-only ProcedureDecl /
// ReferenceDecl entries against root's registry. It returns the first
// error encountered and installs nothing further once one occurs. Entries
// built before the failing one stay registered in root; Build does not
// roll them back.
func Build(root *object.Context, cfg MainConfig, reg Registry) error {
	for _, entry := range cfg.Objects {
		if err := buildEntry(root, entry, reg); err != nil {
			return err
		}
	}
	return nil
}

func buildEntry(root *object.Context, entry Entry, reg Registry) error {
	switch {
	case entry.Object != nil:
		return buildObject(root, *entry.Object, reg)
	case entry.Procedure != nil:
		return buildProcedure(root, *entry.Procedure, reg)
	case entry.Reference != nil:
		return buildReference(root, *entry.Reference)
	default:
		// Context/Endpoint/Host/RequestHandler entries belong to the
		// HTTP/basic dispatch trees (httpctx/basicctx), built by their own
		// package-specific constructors once implementations are resolved;
		// wiring an XML-declared dispatch tree end-to-end is the
		// composition root's job (cmd/appserver), not this package's.
		return nil
	}
}

func buildObject(root *object.Context, decl ObjectDecl, reg Registry) error {
	obj, err := reg.New(decl.Implementation, decl.Parameters)
	if err != nil {
		return err
	}
	return root.AddObject(decl.ID, obj)
}

func buildProcedure(root *object.Context, decl ProcedureDecl, reg Registry) error {
	if decl.RefID != "" {
		proc, ok := object.FindObjectAs[object.Procedure](root, decl.RefID)
		if !ok {
			return ReferenceNotFoundError{RefID: decl.RefID, Position: decl.Position}
		}
		if decl.ID == "" {
			return nil
		}
		return root.AddReference(decl.ID, proc)
	}
	obj, err := reg.New(decl.Implementation, decl.Parameters)
	if err != nil {
		return err
	}
	proc, ok := obj.(object.Procedure)
	if !ok {
		return ReferenceNotFoundError{RefID: decl.Implementation, Position: decl.Position}
	}
	if decl.ID == "" {
		return nil
	}
	return root.AddObject(decl.ID, proc)
}

func buildReference(root *object.Context, decl ReferenceDecl) error {
	target := root.FindObject(decl.RefID)
	if target == nil {
		return ReferenceNotFoundError{RefID: decl.RefID, Position: decl.Position}
	}
	return root.AddReference(decl.ID, target)
}
