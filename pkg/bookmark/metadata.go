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
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/cloudygreybeard/xbel/pkg/dom"
)

const (
	tagIcon     = "bookmark:icon"
	tagMimeType = "mime:mime-type"

	iconSeparator = "edit-clear"
	iconFolder    = "folder-bookmarks"
	iconUnknown   = "unknown"
)

// schemeIcons maps URL schemes to icon names.
var schemeIcons = map[string]string{
	"http":         "text-html",
	"https":        "text-html",
	"ftp":          "folder-remote",
	"sftp":         "folder-remote",
	"smb":          "folder-remote",
	"fish":         "folder-remote",
	"webdav":       "folder-remote",
	"remote":       "folder-remote",
	"network":      "network-workgroup",
	"mailto":       "mail-message",
	"trash":        "user-trash",
	"recentlyused": "document-open-recent",
	"tags":         "tag",
}

// metaData returns the metadata block of owner. The unowned block written
// by old versions counts as MetadataOwner's and is claimed on create.
func (b Bookmark) metaData(owner string, create bool) dom.NodeID {
	id, ok := b.node()
	if !ok {
		return dom.InvalidNode
	}
	info := b.doc.NamedChild(id, TagInfo, create)
	if info == dom.InvalidNode {
		return dom.InvalidNode
	}

	legacy := dom.InvalidNode
	for m := b.doc.FirstChildElement(info, TagMetadata); m != dom.InvalidNode; m = b.doc.NextSiblingElement(m, TagMetadata) {
		o := b.doc.Attribute(m, "owner", "")
		if o == owner {
			return m
		}
		if o == "" && owner == MetadataOwner && legacy == dom.InvalidNode {
			legacy = m
		}
	}
	if legacy != dom.InvalidNode {
		if create {
			b.doc.SetAttribute(legacy, "owner", owner)
		}
		return legacy
	}
	if !create {
		return dom.InvalidNode
	}
	m := b.doc.AppendChild(info, b.doc.CreateElement(TagMetadata))
	b.doc.SetAttribute(m, "owner", owner)
	return m
}

// MetaDataItem returns the value stored under key, or "".
func (b Bookmark) MetaDataItem(key string) string {
	m := b.metaData(MetadataOwner, false)
	if m == dom.InvalidNode {
		return ""
	}
	return b.doc.Text(b.doc.FirstChildElement(m, key))
}

// SetMetaDataItem stores value under key.
func (b Bookmark) SetMetaDataItem(key, value string, policy MetaDataPolicy) {
	m := b.metaData(MetadataOwner, true)
	if m == dom.InvalidNode {
		return
	}
	item := b.doc.NamedChild(m, key, true)
	if policy == DontOverwriteIfAlreadySet && b.doc.Text(item) != "" {
		return
	}
	b.doc.SetText(item, value)
}

// MetaDataKeys lists the keys present in the consumer metadata block.
func (b Bookmark) MetaDataKeys() []string {
	m := b.metaData(MetadataOwner, false)
	var keys []string
	for c := b.doc.FirstChildElement(m, ""); c != dom.InvalidNode; c = b.doc.NextSiblingElement(c, "") {
		keys = append(keys, b.doc.Tag(c))
	}
	return keys
}

func (b Bookmark) freedesktopAttr(tag, attr string) string {
	m := b.metaData(OwnerFreedesktop, false)
	if m == dom.InvalidNode {
		return ""
	}
	return b.doc.Attribute(b.doc.FirstChildElement(m, tag), attr, "")
}

func (b Bookmark) setFreedesktopAttr(tag, attr, value string) {
	m := b.metaData(OwnerFreedesktop, true)
	if m == dom.InvalidNode {
		return
	}
	b.doc.SetAttribute(b.doc.NamedChild(m, tag, true), attr, value)
}

// Icon resolves the icon name: explicit metadata first, then a fixed icon
// for separators and folders, then the stored mime type, then the URL.
func (b Bookmark) Icon() string {
	if b.IsNull() {
		return ""
	}
	icon := b.freedesktopAttr(tagIcon, "name")
	if icon == "www" {
		icon = "internet-web-browser"
	}
	if icon != "" {
		return icon
	}
	switch {
	case b.IsSeparator():
		return iconSeparator
	case b.IsGroup():
		return iconFolder
	}
	if mt := b.MimeType(); mt != "" {
		return IconForMimeType(mt)
	}
	return IconForURL(b.URL())
}

// SetIcon stores an explicit icon name in the freedesktop block.
func (b Bookmark) SetIcon(name string) {
	b.setFreedesktopAttr(tagIcon, "name", name)
}

// MimeType returns the stored mime type.
func (b Bookmark) MimeType() string {
	return b.freedesktopAttr(tagMimeType, "type")
}

// SetMimeType stores the mime type.
func (b Bookmark) SetMimeType(t string) {
	b.setFreedesktopAttr(tagMimeType, "type", t)
}

// IconForMimeType maps "text/html" to the freedesktop icon "text-html".
func IconForMimeType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	mt = strings.TrimSpace(strings.ToLower(mt))
	switch mt {
	case "":
		return iconUnknown
	case "inode/directory":
		return "folder"
	}
	return strings.Replace(mt, "/", "-", 1)
}

// IconForURL derives an icon name from the scheme or file extension.
func IconForURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return iconUnknown
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "" && scheme != "file" {
		if icon, ok := schemeIcons[scheme]; ok {
			return icon
		}
		return iconUnknown
	}
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		if p == "/" {
			return "folder-root"
		}
		return "folder"
	}
	if ext := path.Ext(p); ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return IconForMimeType(mt)
		}
	}
	return "folder"
}

// MigrateLegacyAttributes moves attributes written by old versions into
// metadata: showintoolbar="yes|no" and icon="name". It returns the number
// of elements changed.
func MigrateLegacyAttributes(root Group) int {
	doc := root.Document()
	top, ok := root.node()
	if !ok {
		return 0
	}
	changed := 0
	stack := []dom.NodeID{top}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		b := New(doc, id)
		touched := false
		if doc.HasAttribute(id, KeyShowInToolbar) {
			show := doc.Attribute(id, KeyShowInToolbar, "") == "yes"
			doc.RemoveAttribute(id, KeyShowInToolbar)
			b.SetShowInToolbar(show)
			touched = true
		}
		if doc.HasAttribute(id, "icon") {
			icon := doc.Attribute(id, "icon", "")
			doc.RemoveAttribute(id, "icon")
			if icon != "" && b.freedesktopAttr(tagIcon, "name") == "" {
				b.SetIcon(icon)
			}
			touched = true
		}
		if touched {
			changed++
		}

		for c := doc.FirstChildElement(id, ""); c != dom.InvalidNode; c = doc.NextSiblingElement(c, "") {
			if t := doc.Tag(c); t == TagFolder || t == TagBookmark || t == TagSeparator {
				stack = append(stack, c)
			}
		}
	}
	return changed
}
