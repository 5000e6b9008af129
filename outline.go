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

import "strconv"

// OutlineEntry is a section in a document's table of contents.
type OutlineEntry struct {
	Section  *Block
	Children []*OutlineEntry
}

// Outline returns the document's section hierarchy
// down to the given section level.
// If maxLevel is zero or negative,
// the document's "toclevels" attribute is used.
func (doc *Document) Outline(maxLevel int) []*OutlineEntry {
	if maxLevel <= 0 {
		maxLevel = 2
		if v, ok := doc.Attributes().Lookup("toclevels"); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				maxLevel = n
			}
		}
	}
	var roots []*OutlineEntry
	var stack []*OutlineEntry
	Walk(doc.Root().AsNode(), &WalkOptions{
		BlocksOnly: true,
		Pre: func(c *Cursor) bool {
			b := c.Node().Block()
			switch b.Kind() {
			case DocumentKind:
				return true
			case SectionKind:
			default:
				return false
			}
			if b.Level() > maxLevel {
				return false
			}
			entry := &OutlineEntry{Section: b}
			if len(stack) == 0 {
				roots = append(roots, entry)
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, entry)
			}
			stack = append(stack, entry)
			return true
		},
		Post: func(c *Cursor) bool {
			if c.Node().Block().Kind() == SectionKind {
				stack = stack[:len(stack)-1]
			}
			return true
		},
	})
	return roots
}
