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

package manager

import (
	"github.com/cloudygreybeard/xbel/pkg/bookmark"
	"github.com/cloudygreybeard/xbel/pkg/dom"
)

// urlIndex maps hrefs, in EncodeURL form, to the bookmarks that use them. It is rebuilt
// on lookup after a reparse or any mutation of the document.
type urlIndex struct {
	valid bool
	gen   uint64
	rev   uint64
	byURL map[string][]bookmark.Bookmark
}

func (ix *urlIndex) invalidate() {
	ix.valid = false
	ix.byURL = nil
}

func (ix *urlIndex) stale(doc *dom.Document) bool {
	return !ix.valid || ix.gen != doc.Generation() || ix.rev != doc.Revision()
}

func (ix *urlIndex) lookup(doc *dom.Document, root bookmark.Group, url string) []bookmark.Bookmark {
	if ix.stale(doc) {
		ix.rebuild(doc, root)
	}
	return ix.byURL[url]
}

func (ix *urlIndex) rebuild(doc *dom.Document, root bookmark.Group) {
	ix.byURL = make(map[string][]bookmark.Bookmark)
	bookmark.Traverse(root, bookmark.TraverserFuncs{
		OnVisit: func(b bookmark.Bookmark) {
			if b.IsSeparator() {
				return
			}
			u := bookmark.EncodeURL(b.URL())
			ix.byURL[u] = append(ix.byURL[u], b)
		},
	})
	ix.valid = true
	ix.gen = doc.Generation()
	ix.rev = doc.Revision()
}
