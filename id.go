// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package asciidoc

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// GenerateID returns the ID that a section with the given title text
// is assigned, like "_section_one" for "Section One".
// The title is case-folded and normalized,
// characters other than letters, digits, and underscores are removed,
// and runs of spaces, hyphens, and periods become separator.
func GenerateID(title, prefix, separator string) string {
	s := cases.Lower(language.Und).String(norm.NFC.String(title))
	var sb strings.Builder
	sb.WriteString(prefix)
	pendingSep := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingSep && sb.Len() > len(prefix) {
				sb.WriteString(separator)
			}
			pendingSep = false
			sb.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '.':
			pendingSep = true
		}
	}
	return sb.String()
}

// generateID assigns a unique ID to a section with the given title.
func (bp *blockParser) generateID(title []*Inline) string {
	prefix, _ := bp.attrs.Lookup("idprefix")
	sep, ok := bp.attrs.Lookup("idseparator")
	if !ok {
		sep = "_"
	}
	id := GenerateID(PlainText(title), prefix, sep)
	if id == prefix {
		id = prefix + "section"
	}
	if _, taken := bp.ids[id]; taken {
		if sep == "" {
			sep = "_"
		}
		base := id + sep
		n := max(bp.idSuffixes[base], 2)
		for {
			id = base + strconv.Itoa(n)
			n++
			if _, taken := bp.ids[id]; !taken {
				break
			}
		}
		bp.idSuffixes[base] = n
	}
	bp.ids[id] = bp.line
	return id
}

// registerID records an explicit ID,
// warning if another block already uses it.
func (bp *blockParser) registerID(id string, line int) {
	if prev, taken := bp.ids[id]; taken {
		bp.diags.addf(StructuralWarning, line, 1, "duplicate ID %q (first used on line %d)", id, prev)
		return
	}
	bp.ids[id] = line
}
