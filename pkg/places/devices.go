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

package places

import (
	"path"
	"slices"

	"github.com/cloudygreybeard/xbel/pkg/bookmark"
)

// Device is a removable or network volume known to the system.
type Device struct {
	UDI   string
	Label string
	URL   string
	Icon  string
}

// DeviceOracle answers which devices exist. Predicates are glob patterns
// over device UDIs.
type DeviceOracle interface {
	Matches(predicate, udi string) bool
	Enumerate(predicate string) []Device
}

// StaticDevices is a fixed device list.
type StaticDevices []Device

// Matches reports whether udi matches predicate. An empty predicate
// matches everything.
func (StaticDevices) Matches(predicate, udi string) bool {
	if predicate == "" {
		return true
	}
	ok, err := path.Match(predicate, udi)
	return err == nil && ok
}

// Enumerate returns the devices matching predicate.
func (s StaticDevices) Enumerate(predicate string) []Device {
	var out []Device
	for _, d := range s {
		if s.Matches(predicate, d.UDI) {
			out = append(out, d)
		}
	}
	return out
}

// SyncDevices makes the device entries of root match what the oracle
// reports for predicate. Entries of devices that are gone are removed,
// new devices are appended.
func SyncDevices(root bookmark.Group, oracle DeviceOracle, predicate string) (added, removed int) {
	present := oracle.Enumerate(predicate)
	known := make(map[string]bool, len(present))
	for _, d := range present {
		known[d.UDI] = true
	}

	seen := make(map[string]bool)
	for b := root.First(); !b.IsNull(); {
		next := root.Next(b)
		udi := b.MetaDataItem(bookmark.KeyUDI)
		switch {
		case udi == "" || !oracle.Matches(predicate, udi):
		case !known[udi] || seen[udi]:
			if root.DeleteBookmark(b) {
				removed++
			}
		default:
			seen[udi] = true
		}
		b = next
	}

	for _, d := range present {
		if seen[d.UDI] {
			continue
		}
		b := root.AddNewBookmark(d.Label, d.URL, d.Icon)
		if b.IsNull() {
			break
		}
		b.SetMetaDataItem(bookmark.KeyUDI, d.UDI, bookmark.Overwrite)
		seen[d.UDI] = true
		added++
	}
	return added, removed
}

// DeviceUDIs lists the UDIs of the device entries of root, sorted.
func DeviceUDIs(root bookmark.Group) []string {
	var out []string
	for b := root.First(); !b.IsNull(); b = root.Next(b) {
		if udi := b.MetaDataItem(bookmark.KeyUDI); udi != "" {
			out = append(out, udi)
		}
	}
	slices.Sort(out)
	return out
}
