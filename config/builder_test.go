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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/appserver/object"
)

type stubRegistry struct{}

func (stubRegistry) New(implementation string, _ []KeyValue) (object.Object, error) {
	return implementation, nil
}

func TestReferenceNotFoundAtLoadFailsBeforeAnythingStarts(t *testing.T) {
	cfg := MainConfig{
		Objects: []Entry{
			{Reference: &ReferenceDecl{ID: "db", RefID: "db-main", Position: Position{File: "app.xml", Line: 12}}},
		},
	}

	root := object.NewContext(nil)
	err := Build(root, cfg, stubRegistry{})

	require.Error(t, err)
	var notFound ReferenceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "db-main", notFound.RefID)
	assert.Equal(t, "app.xml", notFound.Position.File)
	assert.Equal(t, 12, notFound.Position.Line)
}

func TestBuild_ResolvesObjectsAndReferencesInOrder(t *testing.T) {
	cfg := MainConfig{
		Objects: []Entry{
			{Object: &ObjectDecl{ID: "db-main", Implementation: "postgres"}},
			{Reference: &ReferenceDecl{ID: "db-alias", RefID: "db-main"}},
		},
	}

	root := object.NewContext(nil)
	require.NoError(t, Build(root, cfg, stubRegistry{}))

	assert.Equal(t, "postgres", root.FindObject("db-main"))
	assert.Equal(t, "postgres", root.FindObject("db-alias"))
}

func TestBuild_ProcedureRefIDMustAlreadyExist(t *testing.T) {
	cfg := MainConfig{
		Objects: []Entry{
			{Procedure: &ProcedureDecl{ID: "job", RefID: "missing-proc", Position: Position{File: "app.xml", Line: 4}}},
		},
	}

	root := object.NewContext(nil)
	err := Build(root, cfg, stubRegistry{})
	require.Error(t, err)
	var notFound ReferenceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing-proc", notFound.RefID)
}
