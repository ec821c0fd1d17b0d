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

// Traverser receives the entries of a group in depth-first order.
// VisitEnter and VisitLeave bracket every nested group; Visit is called
// for bookmarks and separators.
type Traverser interface {
	Visit(b Bookmark)
	VisitEnter(g Group)
	VisitLeave(g Group)
}

// BaseTraverser implements Traverser with no-ops. Embed it to override
// only the callbacks you need.
type BaseTraverser struct{}

func (BaseTraverser) Visit(Bookmark) {}
func (BaseTraverser) VisitEnter(Group) {}
func (BaseTraverser) VisitLeave(Group) {}

// TraverserFuncs adapts plain functions to Traverser. Nil fields are skipped.
type TraverserFuncs struct {
	OnVisit func(Bookmark)
	OnEnter func(Group)
	OnLeave func(Group)
}

func (f TraverserFuncs) Visit(b Bookmark) {
	if f.OnVisit != nil {
		f.OnVisit(b)
	}
}

func (f TraverserFuncs) VisitEnter(g Group) {
	if f.OnEnter != nil {
		f.OnEnter(g)
	}
}

func (f TraverserFuncs) VisitLeave(g Group) {
	if f.OnLeave != nil {
		f.OnLeave(g)
	}
}

// Traverse walks root with an explicit stack, so document depth does not
// grow the goroutine stack. root itself is not reported. The tree must not
// be modified during the walk.
func Traverse(root Group, t Traverser) {
	if root.IsNull() {
		return
	}
	stack := []Group{root}
	bk := root.First()
	for {
		if bk.IsNull() {
			if len(stack) == 1 {
				return
			}
			top := stack[len(stack)-1]
			t.VisitLeave(top)
			stack = stack[:len(stack)-1]
			bk = stack[len(stack)-1].Next(top.Bookmark)
			continue
		}
		if g, ok := bk.ToGroup(); ok {
			t.VisitEnter(g)
			stack = append(stack, g)
			bk = g.First()
			continue
		}
		t.Visit(bk)
		bk = stack[len(stack)-1].Next(bk)
	}
}
