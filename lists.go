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

// listItem handles a list item marker line.
//
// An item joins the innermost open list with the same marker class,
// closing any lists nested inside it.
// Otherwise, the item starts a new list nested in the current item,
// or a new top-level list if no item is open.
func (bp *blockParser) listItem(info lineInfo) {
	m := info.list
	match := -1
	for i := len(bp.stack) - 1; i > 0; i-- {
		b := bp.stack[i]
		if b.delim != "" || b.kind == SectionKind {
			break
		}
		if b.kind == ListKind && b.marker.kind == m.kind && b.marker.class == m.class {
			match = i
			break
		}
	}
	if match > 0 {
		for len(bp.stack)-1 > match {
			bp.pop()
		}
	} else {
		if bp.top().kind != ListItemKind {
			bp.prepareContainer()
		}
		if !bp.checkDepth() {
			return
		}
		list := bp.newBlock(ListKind)
		list.marker = listMarker{kind: m.kind, class: m.class}
		bp.push(list)
	}
	if !bp.checkDepth() {
		return
	}
	list := bp.top()
	if m.checkbox != 0 && !list.HasOption("checklist") {
		list.setAttribute("checklist-option", "")
	}
	item := bp.newBlock(ListItemKind)
	item.marker = m
	item.textOpen = true
	if info.text != "" {
		item.lines = []string{info.text}
	}
	if m.kind == DescriptionMarker {
		item.rawTerm = m.term
		item.term = bp.parseInline(m.term, NormalSubs, bp.line, false)
	}
	bp.push(item)
}

// continuation attaches the next block to the current list item.
// It reports false if no list item is open,
// in which case the line is ordinary text.
func (bp *blockParser) continuation() bool {
	item := bp.top()
	if item.kind != ListItemKind {
		return false
	}
	item.attached = true
	item.textOpen = false
	return true
}

// finishListItem parses the item's principal text.
func (bp *blockParser) finishListItem(item *Block) {
	item.subs = NormalSubs
	if len(item.lines) > 0 {
		// The item is still on top of the stack for depth purposes.
		bp.stack = append(bp.stack, item)
		item.inlineChildren = bp.parseInline(strings.Join(item.lines, "\n"), NormalSubs, item.textLine, bp.hardbreaks(item))
		bp.stack = bp.stack[:len(bp.stack)-1]
	}
	if last := item.lastBlock(); last != nil && last.span.End > item.span.End {
		item.span.End = last.span.End
	}
}
