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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddObject_RegistersAndFinds(t *testing.T) {
	ctx := NewContext(nil)

	require.NoError(t, ctx.AddObject("db", "connection-pool"))

	found := ctx.FindObject("db")
	assert.Equal(t, "connection-pool", found)
}

func TestAddObject_DuplicateIDRejected(t *testing.T) {
	ctx := NewContext(nil)
	require.NoError(t, ctx.AddObject("db", "conn-a"))

	err := ctx.AddObject("db", "conn-b")
	require.Error(t, err)
	assert.Equal(t, DuplicateIDError{ID: "db"}, err)

	// registry is left unchanged by the failed add
	assert.Equal(t, "conn-a", ctx.FindObject("db"))
}

func TestAddObject_EmptyIDRejected(t *testing.T) {
	ctx := NewContext(nil)
	err := ctx.AddObject("", "x")
	assert.Equal(t, EmptyIDError{}, err)
}

func TestAddReference_DuplicateRejected(t *testing.T) {
	ctx := NewContext(nil)
	require.NoError(t, ctx.AddReference("shared", 42))

	err := ctx.AddReference("shared", 7)
	assert.Equal(t, DuplicateIDError{ID: "shared"}, err)
}

func TestFindObject_LookupTransitivity(t *testing.T) {
	root := NewContext(nil)
	require.NoError(t, root.AddObject("root-only", "r"))

	mid := NewContext(root)
	require.NoError(t, mid.AddObject("mid-only", "m"))

	leaf := NewContext(mid)
	require.NoError(t, leaf.AddObject("leaf-only", "l"))

	assert.Equal(t, "r", leaf.FindObject("root-only"))
	assert.Equal(t, "m", leaf.FindObject("mid-only"))
	assert.Equal(t, "l", leaf.FindObject("leaf-only"))
	assert.Nil(t, leaf.FindObject("nonexistent"))
}

func TestFindObject_LocalShadowsParent(t *testing.T) {
	root := NewContext(nil)
	require.NoError(t, root.AddObject("name", "root-value"))

	child := NewContext(root)
	require.NoError(t, child.AddObject("name", "child-value"))

	assert.Equal(t, "child-value", child.FindObject("name"))
	assert.Equal(t, "root-value", root.FindObject("name"))
}

func TestFindObjectAs_TypedView(t *testing.T) {
	ctx := NewContext(nil)
	require.NoError(t, ctx.AddObject("count", 5))

	v, ok := FindObjectAs[int](ctx, "count")
	require.True(t, ok)
	assert.Equal(t, 5, v)

	_, ok = FindObjectAs[string](ctx, "count")
	assert.False(t, ok)

	_, ok = FindObjectAs[int](ctx, "missing")
	assert.False(t, ok)
}

type recordingInitializable struct {
	initializedWith *Context
}

func (r *recordingInitializable) Initialize(ctx *Context) error {
	r.initializedWith = ctx
	return nil
}

func TestInitialize_RecursesIntoNestedContextsAndInitializesLeaves(t *testing.T) {
	root := NewContext(nil)
	nested := NewContext(root)
	require.NoError(t, root.AddObject("nested", nested))

	leaf := &recordingInitializable{}
	require.NoError(t, nested.AddObject("leaf", leaf))

	require.NoError(t, root.Initialize())

	assert.True(t, nested.Frozen())
	assert.Same(t, nested, leaf.initializedWith)
}

func TestInitialize_FreezesAgainstFurtherWrites(t *testing.T) {
	ctx := NewContext(nil)
	require.NoError(t, ctx.Initialize())

	err := ctx.AddObject("too-late", "x")
	assert.Equal(t, FrozenError{ID: "too-late"}, err)
}
