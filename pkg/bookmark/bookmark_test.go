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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudygreybeard/xbel/pkg/dom"
)

func newRoot(t *testing.T) Group {
	t.Helper()
	doc := dom.NewWithRoot(TagXBEL)
	root := NewGroup(doc, doc.Root())
	require.False(t, root.IsNull())
	return root
}

func parseRoot(t *testing.T, src string) Group {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return NewGroup(doc, doc.Root())
}

func TestNullBookmark(t *testing.T) {
	var b Bookmark
	assert.True(t, b.IsNull())
	assert.ErrorIs(t, b.Err(), ErrNull)
	assert.Empty(t, b.FullText())
	assert.Empty(t, b.URL())
	assert.Empty(t, b.Icon())
	assert.False(t, b.IsGroup())
	assert.False(t, b.HasParent())

	_, err := b.Address()
	assert.ErrorIs(t, err, ErrNull)

	_, ok := b.ToGroup()
	assert.False(t, ok)

	// mutators on a null value do nothing
	b.SetFullText("x")
	b.SetMetaDataItem("k", "v", Overwrite)
	assert.Empty(t, b.MetaDataItem("k"))

	var g Group
	assert.True(t, g.CreateNewFolder("f").IsNull())
	assert.True(t, g.CreateNewSeparator().IsNull())
	assert.True(t, g.First().IsNull())
}

func TestAddNewBookmarkOnEmptyRoot(t *testing.T) {
	root := newRoot(t)
	b := root.AddNewBookmark("Example", "http://example.com", "")

	addr, err := b.Address()
	require.NoError(t, err)
	assert.Equal(t, "/0", addr)
	assert.Equal(t, "text-html", b.Icon())
	assert.Equal(t, "Example", b.FullText())
	assert.True(t, b.HasParent())
	assert.True(t, b.ParentGroup().Equal(root.Bookmark))
}

func TestIndexOfMatchesURLList(t *testing.T) {
	root := newRoot(t)
	root.CreateNewFolder("Tools")
	root.AddNewBookmark("a", "http://a.example/", "")
	root.CreateNewSeparator()
	last := root.AddNewBookmark("b", "http://b.example/", "")

	urls := root.GroupURLList()
	assert.Equal(t, []string{"http://a.example/", "http://b.example/"}, urls)
	// folder, a, separator, b
	assert.Equal(t, 3, root.IndexOf(last))

	sub := root.CreateNewFolder("leaves")
	leaf := sub.AddNewBookmark("c", "http://c.example/", "")
	assert.Equal(t, len(sub.GroupURLList())-1, sub.IndexOf(leaf))
	assert.Equal(t, -1, sub.IndexOf(last))
}

func TestIterationSkipsUntrackedElements(t *testing.T) {
	root := parseRoot(t, `<xbel>
 <title>Root</title>
 <bookmark href="http://1/"><title>one</title></bookmark>
 <info><metadata owner="http://www.kde.org"/></info>
 <separator/>
 <folder><title>three</title></folder>
</xbel>`)

	var tags []string
	for b := root.First(); !b.IsNull(); b = root.Next(b) {
		tags = append(tags, root.Document().Tag(b.Node()))
	}
	assert.Equal(t, []string{TagBookmark, TagSeparator, TagFolder}, tags)

	folder := root.Children()[2]
	assert.True(t, root.Previous(folder).IsSeparator())
	assert.True(t, root.Previous(root.First()).IsNull())
}

func TestNextRejectsForeignEntries(t *testing.T) {
	root := newRoot(t)
	sub := root.CreateNewFolder("sub")
	inner := sub.AddNewBookmark("x", "http://x/", "")

	assert.True(t, root.Next(inner).IsNull())
	assert.True(t, root.Previous(inner).IsNull())
	assert.False(t, root.DeleteBookmark(inner))

	other := newRoot(t)
	assert.True(t, other.Next(sub.Bookmark).IsNull())
}

func TestDeleteOnlyChild(t *testing.T) {
	root := newRoot(t)
	g := root.CreateNewFolder("g")
	b := g.AddNewBookmark("x", "http://x/", "")

	require.True(t, g.DeleteBookmark(b))
	assert.True(t, g.First().IsNull())
	assert.False(t, b.HasParent())
}

func TestMoveBookmark(t *testing.T) {
	root := parseRoot(t, `<xbel><title>t</title>
 <bookmark href="http://a/"/><bookmark href="http://b/"/><bookmark href="http://c/"/>
</xbel>`)
	kids := root.Children()
	a, b, c := kids[0], kids[1], kids[2]

	require.True(t, root.MoveBookmark(a, c))
	assert.Equal(t, []string{"http://b/", "http://c/", "http://a/"}, root.GroupURLList())

	// null after: first tracked position, still after the title
	require.True(t, root.MoveBookmark(a, Bookmark{}))
	assert.Equal(t, []string{"http://a/", "http://b/", "http://c/"}, root.GroupURLList())
	assert.Equal(t, TagTitle, root.Document().Tag(root.Document().FirstChildElement(root.Node(), "")))

	// already first
	assert.True(t, root.MoveBookmark(a, Bookmark{}))

	// into another group
	sub := root.CreateNewFolder("sub")
	require.True(t, sub.MoveBookmark(b, Bookmark{}))
	assert.True(t, sub.First().Equal(b))
	assert.Equal(t, []string{"http://a/", "http://c/"}, root.GroupURLList())

	// a folder cannot move into itself
	assert.False(t, sub.MoveBookmark(sub.Bookmark, Bookmark{}))
}

func TestAddBookmarkImportsForeignEntry(t *testing.T) {
	src := newRoot(t)
	orig := src.AddNewBookmark("x", "http://x/", "")
	dst := newRoot(t)

	cp := dst.AddBookmark(orig)
	require.False(t, cp.IsNull())
	assert.False(t, cp.Equal(orig))
	assert.Equal(t, "http://x/", cp.URL())
	assert.Equal(t, orig, src.First())
}

func TestReplaceBookmark(t *testing.T) {
	root := newRoot(t)
	root.AddNewBookmark("a", "http://a/", "")
	old := root.AddNewBookmark("b", "http://b/", "")
	root.AddNewBookmark("c", "http://c/", "")

	src := newRoot(t)
	folder := src.CreateNewFolder("f")
	folder.AddNewBookmark("inner", "http://inner/", "")

	cp := root.ReplaceBookmark(old, folder.Bookmark)
	require.False(t, cp.IsNull())
	assert.True(t, cp.IsGroup())
	assert.Equal(t, 1, root.IndexOf(cp))
	assert.Equal(t, []string{"http://a/", "http://c/"}, root.GroupURLList())
	assert.False(t, old.HasParent())

	g, ok := cp.ToGroup()
	require.True(t, ok)
	assert.Equal(t, []string{"http://inner/"}, g.GroupURLList())
	// the source is left alone
	assert.Equal(t, []string{"http://inner/"}, folder.GroupURLList())

	assert.True(t, root.ReplaceBookmark(old, folder.Bookmark).IsNull())
}

func TestAddressAndFindPath(t *testing.T) {
	root := newRoot(t)
	root.AddNewBookmark("0", "http://0/", "")
	f := root.CreateNewFolder("1")
	f.CreateNewSeparator()
	g := f.CreateNewFolder("1/1")
	leaf := g.AddNewBookmark("leaf", "http://leaf/", "")

	addr, err := leaf.Address()
	require.NoError(t, err)
	assert.Equal(t, "/1/1/0", addr)

	rootAddr, err := root.Address()
	require.NoError(t, err)
	assert.Empty(t, rootAddr)
}

func TestAddressOfDetachedEntry(t *testing.T) {
	root := newRoot(t)
	f := root.CreateNewFolder("f")
	b := f.AddNewBookmark("b", "http://b/", "")
	require.True(t, root.DeleteBookmark(f.Bookmark))

	_, err := b.Address()
	assert.ErrorIs(t, err, ErrCorruptTree)
}

func TestStaleAfterReplace(t *testing.T) {
	root := newRoot(t)
	b := root.AddNewBookmark("x", "http://x/", "")
	doc := root.Document()

	doc.Replace(dom.NewWithRoot(TagXBEL))
	assert.True(t, b.IsNull())
	assert.ErrorIs(t, b.Err(), ErrStale)
	assert.Empty(t, b.URL())
	assert.True(t, root.First().IsNull())
}

func TestFullTextCollapsesNewlines(t *testing.T) {
	root := newRoot(t)
	b := root.AddNewBookmark("line one\nline two\r\nthree", "http://x/", "")
	assert.Equal(t, "line one line two three", b.FullText())

	// NFC: e + combining acute becomes a single rune
	b.SetFullText("e\u0301")
	assert.Equal(t, "\u00e9", b.FullText())
}

func TestTextElides(t *testing.T) {
	root := newRoot(t)
	long := strings.Repeat("a", 30) + strings.Repeat("b", 30)
	b := root.AddNewBookmark(long, "http://x/", "")

	assert.Equal(t, long, b.FullText())
	assert.Equal(t, strings.Repeat("a", 18)+"..."+strings.Repeat("b", 18), b.Text())
	assert.Equal(t, "ab...ij", Elide("abcdefghij", 7))
	assert.Equal(t, "short", Elide("short", 40))
}

func TestURLEncoding(t *testing.T) {
	root := newRoot(t)
	b := root.AddNewBookmark("x", "http://example.com/a b/ü", "")
	assert.Equal(t, "http://example.com/a%20b/%C3%BC", b.URL())
	assert.Equal(t, "http://example.com/a b/ü", b.PrettyURL())
}

func TestIconResolution(t *testing.T) {
	root := newRoot(t)
	folder := root.CreateNewFolder("f")
	sep := root.CreateNewSeparator()
	pdf := root.AddNewBookmark("doc", "file:///tmp/x.pdf", "")
	mailto := root.AddNewBookmark("mail", "mailto:me@example.com", "")

	assert.Equal(t, "folder-bookmarks", folder.Icon())
	assert.Equal(t, "edit-clear", sep.Icon())
	assert.Equal(t, "application-pdf", pdf.Icon())
	assert.Equal(t, "mail-message", mailto.Icon())

	folder.SetIcon("www")
	assert.Equal(t, "internet-web-browser", folder.Icon())

	plain := root.AddNewBookmark("p", "http://p/", "custom")
	assert.Equal(t, "custom", plain.Icon())
}

func TestIconFromMimeType(t *testing.T) {
	root := parseRoot(t, `<xbel><bookmark href="http://x/"/></xbel>`)
	b := root.First()
	b.SetMimeType("text/plain; charset=utf-8")
	assert.Equal(t, "text/plain; charset=utf-8", b.MimeType())
	assert.Equal(t, "text-plain", b.Icon())
}

func TestLegacyMetadataBlockAdoptedOnWrite(t *testing.T) {
	root := parseRoot(t, `<xbel><bookmark href="http://x/">
 <info><metadata><ID>7</ID></metadata></info>
</bookmark></xbel>`)
	b := root.First()
	doc := root.Document()
	meta := doc.FirstChildElement(doc.NamedChild(b.Node(), TagInfo, false), TagMetadata)

	assert.Equal(t, "7", b.MetaDataItem(KeyID))
	assert.False(t, doc.HasAttribute(meta, "owner"), "reads must not write")

	b.SetMetaDataItem(KeyUDI, "/dev/sda1", Overwrite)
	assert.Equal(t, MetadataOwner, doc.Attribute(meta, "owner", ""))
	assert.Equal(t, []string{KeyID, KeyUDI}, b.MetaDataKeys())
}

func TestSetMetaDataItemPolicy(t *testing.T) {
	root := newRoot(t)
	b := root.AddNewBookmark("x", "http://x/", "")
	b.SetMetaDataItem("k", "one", DontOverwriteIfAlreadySet)
	b.SetMetaDataItem("k", "two", DontOverwriteIfAlreadySet)
	assert.Equal(t, "one", b.MetaDataItem("k"))
	b.SetMetaDataItem("k", "three", Overwrite)
	assert.Equal(t, "three", b.MetaDataItem("k"))
}

func TestUpdateAccessMetadata(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	now = func() time.Time { return clock }
	t.Cleanup(func() { now = time.Now })

	root := newRoot(t)
	b := root.AddNewBookmark("x", "http://x/", "")
	b.UpdateAccessMetadata()
	clock = clock.Add(time.Hour)
	b.UpdateAccessMetadata()
	clock = clock.Add(time.Hour)
	b.UpdateAccessMetadata()

	assert.Equal(t, "1700000000", b.MetaDataItem(KeyTimeAdded))
	assert.Equal(t, "1700007200", b.MetaDataItem(KeyTimeVisited))
	assert.Equal(t, "3", b.MetaDataItem(KeyVisitCount))
	assert.Equal(t, time.Unix(1700000000, 0), b.TimeAdded())

	doc := root.Document()
	meta := b.metaData(MetadataOwner, false)
	for _, key := range []string{KeyTimeAdded, KeyTimeVisited, KeyVisitCount} {
		n := 0
		for c := doc.FirstChildElement(meta, key); c != dom.InvalidNode; c = doc.NextSiblingElement(c, key) {
			n++
		}
		assert.Equal(t, 1, n, key)
	}
}

func TestUpdateAccessMetadataResetsGarbageCount(t *testing.T) {
	root := newRoot(t)
	b := root.AddNewBookmark("x", "http://x/", "")
	b.SetMetaDataItem(KeyVisitCount, "many", Overwrite)
	b.UpdateAccessMetadata()
	assert.Equal(t, "1", b.MetaDataItem(KeyVisitCount))
}

func TestMigrateLegacyAttributes(t *testing.T) {
	root := parseRoot(t, `<xbel>
 <folder showintoolbar="yes" icon="folder-red"><title>f</title>
  <bookmark href="http://x/" showintoolbar="no"/>
 </folder>
 <bookmark href="http://y/"/>
</xbel>`)
	assert.Equal(t, 2, MigrateLegacyAttributes(root))

	f := root.First()
	doc := root.Document()
	assert.False(t, doc.HasAttribute(f.Node(), KeyShowInToolbar))
	assert.False(t, doc.HasAttribute(f.Node(), "icon"))
	assert.True(t, f.ShowInToolbar())
	assert.Equal(t, "folder-red", f.Icon())

	g, ok := f.ToGroup()
	require.True(t, ok)
	assert.False(t, g.First().ShowInToolbar())
	assert.Equal(t, "no", g.First().MetaDataItem(KeyShowInToolbar))

	// second run has nothing left to do
	assert.Equal(t, 0, MigrateLegacyAttributes(root))
}

func TestFindToolbar(t *testing.T) {
	root := newRoot(t)
	assert.True(t, root.FindToolbar().IsNull())

	a := root.CreateNewFolder("a")
	b := a.CreateNewFolder("b")
	c := root.CreateNewFolder("c")
	c.SetToolbarGroup(true)
	b.SetToolbarGroup(true)

	// depth-first: a/b comes before c
	assert.True(t, root.FindToolbar().Equal(b.Bookmark))
	assert.True(t, c.FindToolbar().Equal(c.Bookmark))
	assert.True(t, b.IsToolbarGroup())

	b.SetToolbarGroup(false)
	assert.True(t, root.FindToolbar().Equal(c.Bookmark))
}

func TestFolderOpenState(t *testing.T) {
	root := newRoot(t)
	f := root.CreateNewFolder("f")
	assert.False(t, f.IsOpen())
	f.SetOpen(true)
	assert.True(t, f.IsOpen())
}

func TestClear(t *testing.T) {
	root := parseRoot(t, `<xbel><title>keep</title><bookmark/><separator/><folder/></xbel>`)
	root.Clear()
	assert.True(t, root.First().IsNull())
	assert.Equal(t, TagTitle, root.Document().Tag(root.Document().FirstChildElement(root.Node(), "")))
}
