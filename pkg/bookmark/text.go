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

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultElideWidth is the width Text elides titles to.
const DefaultElideWidth = 40

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func collapseNewlines(s string) string {
	return newlines.Replace(s)
}

func normalizeTitle(s string) string {
	return norm.NFC.String(collapseNewlines(s))
}

// Elide shortens s to at most max runes by replacing its middle with "...".
// Strings that fit, and widths of 3 or less, are returned unchanged.
func Elide(s string, max int) string {
	r := []rune(s)
	if len(r) <= max || max <= 3 {
		return s
	}
	part := (max - 3) / 2
	return string(r[:part]) + "..." + string(r[len(r)-part:])
}

// DisplayName turns an identifier such as "user-places" into "User Places".
func DisplayName(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
