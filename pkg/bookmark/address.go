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
	"strconv"
	"strings"
)

// AddressError is returned by CommonParent when either input is it.
const AddressError = "ERROR"

// ParentAddress returns the address of the group holding address.
func ParentAddress(address string) string {
	i := strings.LastIndexByte(address, '/')
	if i < 0 {
		return ""
	}
	return address[:i]
}

// PositionInParent returns the last index of address. Malformed input
// yields 0.
func PositionInParent(address string) int {
	n, err := strconv.Atoi(address[strings.LastIndexByte(address, '/')+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// PreviousAddress returns the address of the previous sibling, or "" for
// a first child.
func PreviousAddress(address string) string {
	pos := PositionInParent(address)
	if pos == 0 {
		return ""
	}
	return ParentAddress(address) + "/" + strconv.Itoa(pos-1)
}

// NextAddress returns the address of the next sibling.
func NextAddress(address string) string {
	return ParentAddress(address) + "/" + strconv.Itoa(PositionInParent(address)+1)
}

// CommonParent returns the deepest address that is an ancestor of, or
// equal to, both inputs.
func CommonParent(first, second string) string {
	if first == AddressError || second == AddressError {
		return AddressError
	}
	a, b := first+"/", second+"/"
	n := min(len(a), len(b))
	last := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:last]
		}
		if a[i] == '/' {
			last = i
		}
	}
	return a[:last]
}

// ParseAddress splits "/4/5/2" into indexes. A trailing "+" sets last.
// The root address "" yields no indexes.
func ParseAddress(address string) (path []int, last bool, ok bool) {
	address, last = strings.CutSuffix(address, "+")
	for _, seg := range strings.Split(address, "/") {
		if seg == "" {
			continue
		}
		n, err := strconv.Atoi(seg)
		if err != nil || n < 0 {
			return nil, false, false
		}
		path = append(path, n)
	}
	return path, last, true
}
