// Copyright 2026 cloudygreybeard
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

package bookmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	BaseTraverser
	events []string
}

func (r *recorder) Visit(b Bookmark)   { r.events = append(r.events, "visit "+b.FullText()) }
func (r *recorder) VisitEnter(g Group) { r.events = append(r.events, "enter "+g.FullText()) }
func (r *recorder) VisitLeave(g Group) { r.events = append(r.events, "leave "+g.FullText()) }

func TestTraverseOrder(t *testing.T) {
	root := newRoot(t)
	root.AddNewBookmark("a", "http://a/", "")
	f := root.CreateNewFolder("f")
	f.AddNewBookmark("b", "http://b/", "")
	f.CreateNewFolder("empty")
	g := f.CreateNewFolder("g")
	g.AddNewBookmark("c", "http://c/", "")
	root.AddNewBookmark("d", "http://d/", "")

	r := &recorder{}
	Traverse(root, r)
	assert.Equal(t, []string{
		"visit a",
		"enter f",
		"visit b",
		"enter empty",
		"leave empty",
		"enter g",
		"visit c",
		"leave g",
		"leave f",
		"visit d",
	}, r.events)
}

func TestTraverseEmptyAndNull(t *testing.T) {
	r := &recorder{}
	Traverse(newRoot(t), r)
	Traverse(Group{}, r)
	assert.Empty(t, r.events)
}

func TestTraverseDeepTree(t *testing.T) {
	root := newRoot(t)
	g := root
	const depth = 10000
	for i := 0; i < depth; i++ {
		g = g.CreateNewFolder("")
	}
	g.AddNewBookmark("leaf", "http://leaf/", "")

	enters, leaves, visits := 0, 0, 0
	Traverse(root, TraverserFuncs{
		OnEnter: func(Group) { enters++ },
		OnLeave: func(Group) { leaves++ },
		OnVisit: func(Bookmark) { visits++ },
	})
	assert.Equal(t, depth, enters)
	assert.Equal(t, depth, leaves)
	assert.Equal(t, 1, visits)
}

func TestBaseTraverserIsUsable(t *testing.T) {
	var tr Traverser = BaseTraverser{}
	root := newRoot(t)
	root.CreateNewFolder("x").AddNewBookmark("y", "http://y/", "")
	require.NotPanics(t, func() { Traverse(root, tr) })
}
