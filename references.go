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

import "strings"

// A type that implements ReferenceMatcher
// can be checked for the presence of cross reference targets.
type ReferenceMatcher interface {
	MatchReference(id string) bool
}

// Anchor is the definition of an ID in a document.
type Anchor struct {
	// Block is the block with the ID,
	// or the block containing an inline anchor.
	Block *Block
	// Inline is the inline anchor or span with the ID,
	// or nil if the ID belongs to a block.
	Inline *Inline
	// RefText is the default text of cross references to the anchor.
	RefText string
	// Line is the source line of the block.
	Line int
}

// AnchorMap is a mapping of IDs to their definitions.
type AnchorMap map[string]Anchor

// MatchReference reports whether the ID appears in the map.
func (m AnchorMap) MatchReference(id string) bool {
	_, ok := m[id]
	return ok
}

// Extract adds the IDs of any blocks, inline anchors,
// and formatting spans contained in node to the map.
// In case of conflicts,
// Extract will not replace any existing definitions in the map
// and will use the first definition in source order.
func (m AnchorMap) Extract(node Node) {
	Walk(node, &WalkOptions{
		Pre: func(c *Cursor) bool {
			if b := c.Node().Block(); b != nil {
				if id := b.ID(); id != "" {
					refText, _ := b.Attribute("reftext")
					if refText == "" && b.Kind() == SectionKind {
						refText = PlainText(b.Title())
					}
					m.add(id, Anchor{Block: b, RefText: refText, Line: b.Span().Start})
				}
				return true
			}
			inline := c.Node().Inline()
			if id := inline.ID(); id != "" {
				refText, _ := inline.Attribute("reftext")
				m.add(id, Anchor{Block: c.Block(), Inline: inline, RefText: refText, Line: c.Block().Span().Start})
			}
			return true
		},
	})
}

func (m AnchorMap) add(id string, a Anchor) {
	if _, exists := m[id]; !exists {
		m[id] = a
	}
}

// Reference is a cross reference found by [AnchorMap.UnresolvedReferences].
type Reference struct {
	Target string
	Inline *Inline
	// Line is the first source line of the block containing the reference.
	Line int
}

// UnresolvedReferences returns the cross references in node
// whose targets are not matched by m.
// References to other documents, like "other.adoc#id", are ignored.
func (m AnchorMap) UnresolvedReferences(node Node) []Reference {
	return unresolvedReferences(m, node)
}

func unresolvedReferences(matcher ReferenceMatcher, node Node) []Reference {
	var refs []Reference
	Walk(node, &WalkOptions{
		Pre: func(c *Cursor) bool {
			inline := c.Node().Inline()
			if inline.Kind() != MacroKind || inline.Name() != "xref" {
				return true
			}
			target := inline.Target()
			if path, _, ok := strings.Cut(target, "#"); ok && path != "" {
				return true
			}
			if strings.HasSuffix(target, ".adoc") {
				return true
			}
			id := strings.TrimPrefix(target, "#")
			if !matcher.MatchReference(id) {
				refs = append(refs, Reference{Target: id, Inline: inline, Line: c.Block().Span().Start})
			}
			return true
		},
	})
	return refs
}
