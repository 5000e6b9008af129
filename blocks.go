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
	"strings"
)

// admonitionLabels are the paragraph prefixes that produce admonitions,
// like "NOTE: Remember this."
var admonitionLabels = []string{"NOTE", "TIP", "IMPORTANT", "CAUTION", "WARNING"}

func isAdmonitionStyle(style string) bool {
	for _, label := range admonitionLabels {
		if style == label {
			return true
		}
	}
	return false
}

// masquerades lists the styles that change the kind of a delimited block,
// like "[source]" on an open block or "[verse]" on a quote block.
var masquerades = map[BlockKind]map[string]BlockKind{
	OpenKind: {
		"source":    ListingKind,
		"listing":   ListingKind,
		"literal":   LiteralKind,
		"pass":      PassKind,
		"comment":   CommentKind,
		"verse":     VerseKind,
		"quote":     QuoteKind,
		"example":   ExampleKind,
		"sidebar":   SidebarKind,
		"NOTE":      ExampleKind,
		"TIP":       ExampleKind,
		"IMPORTANT": ExampleKind,
		"CAUTION":   ExampleKind,
		"WARNING":   ExampleKind,
	},
	QuoteKind: {
		"verse": VerseKind,
	},
	ListingKind: {
		"literal": LiteralKind,
	},
	LiteralKind: {
		"listing": ListingKind,
		"source":  ListingKind,
	},
}

// paragraphStyles maps the styles that change the kind of a paragraph.
var paragraphStyles = map[string]BlockKind{
	"source":   ListingKind,
	"listing":  ListingKind,
	"literal":  LiteralKind,
	"pass":     PassKind,
	"stem":     PassKind,
	"comment":  CommentKind,
	"verse":    VerseKind,
	"quote":    QuoteKind,
	"example":  ExampleKind,
	"sidebar":  SidebarKind,
	"abstract": OpenKind,
	"normal":   ParagraphKind,
}

// collectsRaw reports whether a delimited block of the given kind
// collects its lines until the closing fence
// instead of parsing them as blocks.
func collectsRaw(kind BlockKind) bool {
	return blockRules[kind].verbatim || kind == VerseKind || kind == TableKind
}

func (bp *blockParser) top() *Block {
	return bp.stack[len(bp.stack)-1]
}

// appendChild adds b to the innermost open block.
func (bp *blockParser) appendChild(b *Block) {
	for len(bp.stack) > 1 && bp.top().delim == "" && !bp.top().kind.canContain(b.kind) {
		bp.pop()
	}
	parent := bp.top()
	parent.blockChildren = append(parent.blockChildren, b)
	if parent.kind == ListItemKind {
		parent.attached = false
		parent.textOpen = false
	}
}

// push adds b to the innermost open block and opens it.
// It reports false if the nesting limit was reached.
func (bp *blockParser) push(b *Block) bool {
	if !bp.checkDepth() {
		return false
	}
	bp.appendChild(b)
	bp.stack = append(bp.stack, b)
	return true
}

// pop closes the innermost open block.
func (bp *blockParser) pop() {
	b := bp.top()
	bp.stack = bp.stack[:len(bp.stack)-1]
	bp.closeBlock(b)
}

// closeBlock finishes a block and extends its parent's span to cover it.
func (bp *blockParser) closeBlock(b *Block) {
	switch b.kind {
	case ListItemKind:
		bp.finishListItem(b)
	case ListKind, SectionKind, QuoteKind, ExampleKind, SidebarKind, OpenKind:
		if last := b.lastBlock(); last != nil && last.span.End > b.span.End {
			b.span.End = last.span.End
		}
	default:
		bp.finishLeaf(b)
	}
	if len(bp.stack) > 0 {
		parent := bp.top()
		if b.span.End > parent.span.End {
			parent.span.End = b.span.End
		}
	}
}

// finishLeaf parses the content of a leaf block.
func (bp *blockParser) finishLeaf(b *Block) {
	subs := blockRules[b.kind].subs
	if v, ok := b.attrs["subs"]; ok {
		s, err := ParseSubstitutions(v, subs)
		if err != nil {
			bp.diags.addf(SyntaxWarning, b.span.Start, 1, "%v", err)
		} else {
			subs = s
		}
	}
	b.subs = subs
	switch b.kind {
	case CommentKind, BlockMacroKind, ThematicBreakKind, PageBreakKind, DiscreteHeadingKind:
	case TableKind:
		bp.buildTable(b)
	default:
		if len(b.lines) > 0 {
			b.inlineChildren = bp.parseInline(strings.Join(b.lines, "\n"), subs, b.textLine, bp.hardbreaks(b))
		}
	}
}

func (bp *blockParser) hardbreaks(b *Block) bool {
	return b.HasOption("hardbreaks") || bp.attrs.IsSet("hardbreaks-option") || bp.attrs.IsSet("hardbreaks")
}

// parseInline runs the inline parser over text
// that starts on the given line.
func (bp *blockParser) parseInline(text string, subs Substitutions, line int, hardbreaks bool) []*Inline {
	if text == "" {
		return nil
	}
	bp.inline.line = line
	bp.inline.depth = bp.depth() + 1
	bp.inline.hardbreaks = hardbreaks
	return bp.inline.parse(text, subs)
}

// parseTitle parses a title that starts at byte offset
// within its source line.
func (bp *blockParser) parseTitle(text string, line, offset int) []*Inline {
	bp.inline.offset = offset
	defer func() { bp.inline.offset = 0 }()
	return bp.parseInline(text, NormalSubs, line, false)
}

// newBlock creates a block starting on the current line
// that consumes the pending block attributes and title.
func (bp *blockParser) newBlock(kind BlockKind) *Block {
	b := &Block{
		kind:     kind,
		span:     LineSpan{Start: bp.line, End: bp.line},
		textLine: bp.line,
	}
	b.attrs = bp.attrs.takeBlockAttributes()
	if style, ok := b.attrs["1"]; ok {
		if _, set := b.attrs["style"]; !set {
			b.attrs["style"] = style
		}
	}
	bp.applyPositionalAttributes(b)
	if bp.pendingStart > 0 && bp.pendingStart < b.span.Start {
		b.span.Start = bp.pendingStart
	}
	title, titleLine, offset := bp.pendingTitle, bp.pendingTitleLine, bp.pendingTitleOffset
	if title == "" {
		title, titleLine, offset = b.attrs["title"], bp.line, 0
	}
	if title != "" {
		b.rawTitle = title
		b.titleLine = titleLine
		b.title = bp.parseTitle(title, titleLine, offset)
	}
	bp.clearPending()
	if id := b.attrs["id"]; id != "" {
		bp.registerID(id, b.span.Start)
	}
	return b
}

// applyPositionalAttributes names the positional attributes
// that have a meaning for the block's style.
func (bp *blockParser) applyPositionalAttributes(b *Block) {
	named := func(index, name string) {
		if v, ok := b.attrs[index]; ok {
			if _, set := b.attrs[name]; !set {
				b.attrs[name] = v
			}
		}
	}
	switch b.attrs["style"] {
	case "source":
		named("2", "language")
		named("3", "linenums")
	case "quote", "verse":
		named("2", "attribution")
		named("3", "citetitle")
	}
	if _, ok := b.attrs["language"]; !ok && b.attrs["style"] == "source" {
		if lang, ok := bp.attrs.Lookup("source-language"); ok {
			b.attrs["language"] = lang
		}
	}
}

// pendingStyle returns the style the next block will have.
func (bp *blockParser) pendingStyle() string {
	if style, ok := bp.attrs.blockAttribute("style"); ok {
		return style
	}
	style, _ := bp.attrs.blockAttribute("1")
	return style
}

func (bp *blockParser) markPending() {
	if bp.pendingStart == 0 {
		bp.pendingStart = bp.line
	}
}

func (bp *blockParser) clearPending() {
	bp.pendingTitle = ""
	bp.pendingTitleLine = 0
	bp.pendingTitleOffset = 0
	bp.pendingStart = 0
}

// discardPending drops block attributes that no block consumed.
func (bp *blockParser) discardPending() {
	bp.attrs.takeBlockAttributes()
	bp.clearPending()
}

// insideDelimited reports whether a compound delimited block is open.
func (bp *blockParser) insideDelimited() bool {
	for _, b := range bp.stack {
		if b.delim != "" {
			return true
		}
	}
	return false
}

// prepareContainer closes open lists
// unless a continuation attached the next block to the current list item.
func (bp *blockParser) prepareContainer() {
	for {
		switch top := bp.top(); top.kind {
		case ListItemKind:
			if top.attached {
				return
			}
			bp.pop()
		case ListKind:
			bp.pop()
		default:
			return
		}
	}
}

// blockLine handles a line outside of any raw content.
func (bp *blockParser) blockLine(info lineInfo, line string) {
	if bp.para != nil {
		switch {
		case info.kind == commentLine:
			return
		case bp.continuesParagraph(info):
			bp.para.lines = append(bp.para.lines, paragraphText(info, line))
			bp.para.span.End = bp.line
			return
		}
		bp.closeParagraph()
	}
	if item := bp.top(); item.kind == ListItemKind && item.textOpen {
		switch {
		case info.kind == commentLine:
			return
		case info.kind == blankLine && item.marker.kind == DescriptionMarker && len(item.lines) == 0:
			// A description may start after blank lines.
			return
		case continuesText(info):
			item.lines = append(item.lines, strings.TrimSpace(paragraphText(info, line)))
			item.span.End = bp.line
			return
		}
		item.textOpen = false
	}

	switch info.kind {
	case blankLine:
	case commentLine:
		// A line comment separates adjacent lists.
		bp.prepareContainer()
	case attributeEntryLine:
		bp.attributeEntry(info)
	case blockAttributeLine:
		bp.blockAttributes(info.text)
	case blockAnchorLine:
		bp.blockAnchor(info.text)
	case blockTitleLine:
		bp.pendingTitle = info.text
		bp.pendingTitleLine = bp.line
		bp.pendingTitleOffset = info.offset
		bp.markPending()
	case continuationLine:
		if !bp.continuation() {
			bp.startParagraph(info, line)
		}
	case listMarkerLine:
		bp.listItem(info)
	case delimiterLine:
		bp.delimiter(info)
	case headingLine:
		bp.heading(info, line)
	case thematicBreakLine:
		bp.leaf(ThematicBreakKind)
	case pageBreakLine:
		bp.leaf(PageBreakKind)
	case blockMacroLine:
		bp.blockMacro(info)
	default:
		bp.startParagraph(info, line)
	}
}

// continuesText reports whether a line continues the principal text of a list item.
func continuesText(info lineInfo) bool {
	switch info.kind {
	case blankLine, commentLine, delimiterLine, blockAttributeLine, blockAnchorLine,
		listMarkerLine, continuationLine:
		return false
	default:
		return true
	}
}

// continuesParagraph reports whether a line continues the open paragraph.
func (bp *blockParser) continuesParagraph(info lineInfo) bool {
	switch info.kind {
	case blankLine, delimiterLine, blockAttributeLine, blockAnchorLine:
		return false
	case listMarkerLine, continuationLine:
		return bp.top().kind != ListItemKind
	default:
		return true
	}
}

// paragraphText returns the text a line contributes to a paragraph.
func paragraphText(info lineInfo, line string) string {
	if info.kind == textLine {
		return info.text
	}
	return line
}

// leaf adds a single-line block like a thematic break.
func (bp *blockParser) leaf(kind BlockKind) {
	bp.prepareContainer()
	if !bp.checkDepth() {
		return
	}
	b := bp.newBlock(kind)
	bp.appendChild(b)
	bp.closeBlock(b)
}

func (bp *blockParser) blockMacro(info lineInfo) {
	bp.prepareContainer()
	if !bp.checkDepth() {
		return
	}
	b := bp.newBlock(BlockMacroKind)
	b.macro = info.macro
	b.macro.target, _ = bp.attrs.resolveReferences(b.macro.target)
	attrlist, _ := bp.attrs.resolveReferences(b.macro.attrlist)
	for k, v := range parseAttributeList(attrlist, false) {
		if k == "role" {
			addRole(b.attrs, v)
			continue
		}
		b.setAttribute(k, v)
	}
	if b.macro.name == "image" {
		if alt, ok := b.attrs["1"]; ok {
			b.setAttribute("alt", alt)
		}
	}
	bp.appendChild(b)
	bp.closeBlock(b)
}

// blockAttributes records a block attribute list like "[source,go]"
// for the next block.
func (bp *blockParser) blockAttributes(text string) {
	text, _ = bp.attrs.resolveReferences(text)
	list := parseAttributeList(text, true)
	for _, name := range sortedKeys(list) {
		value := list[name]
		switch name {
		case "role":
			if existing, ok := bp.attrs.blockAttribute("role"); ok && existing != "" {
				value = existing + " " + value
			}
		case "options":
			if existing, ok := bp.attrs.blockAttribute("options"); ok && existing != "" {
				value = existing + "," + value
			}
		}
		bp.attrs.Define(name, value, ScopeBlock)
	}
	bp.markPending()
}

// blockAnchor records a block anchor like "[[id,reference text]]".
func (bp *blockParser) blockAnchor(text string) {
	id, reftext, _ := strings.Cut(text, ",")
	id = strings.TrimSpace(id)
	if !isValidID(id) {
		bp.diags.addf(SyntaxWarning, bp.line, 1, "invalid block anchor ID %q", id)
		return
	}
	bp.attrs.Define("id", id, ScopeBlock)
	if reftext = strings.TrimSpace(reftext); reftext != "" {
		bp.attrs.Define("reftext", reftext, ScopeBlock)
	}
	bp.markPending()
}

// startParagraph opens a paragraph-like block with its first line.
func (bp *blockParser) startParagraph(info lineInfo, line string) {
	bp.prepareContainer()
	if !bp.checkDepth() {
		return
	}
	text := paragraphText(info, line)
	style := bp.pendingStyle()
	kind := ParagraphKind
	if k, ok := paragraphStyles[style]; ok {
		kind = k
	} else if style == "" && info.kind == textLine && info.indent > 0 && bp.top().kind != ListItemKind {
		kind = LiteralKind
	}
	var wrapper *Block
	switch kind {
	case QuoteKind, ExampleKind, SidebarKind, OpenKind:
		// The paragraph is the only content of a styled container.
		wrapper = bp.newBlock(kind)
		bp.appendChild(wrapper)
		kind = ParagraphKind
	}
	var b *Block
	if wrapper != nil {
		b = &Block{kind: kind, span: LineSpan{Start: bp.line, End: bp.line}, textLine: bp.line}
		wrapper.blockChildren = append(wrapper.blockChildren, b)
	} else {
		b = bp.newBlock(kind)
		if kind == LiteralKind && b.attrs["style"] == "" {
			b.setAttribute("style", "literal")
		}
		bp.appendChild(b)
	}
	if kind == ParagraphKind && b.attrs["style"] == "" {
		for _, label := range admonitionLabels {
			if rest, ok := strings.CutPrefix(text, label+": "); ok {
				b.setAttribute("style", label)
				b.setAttribute("name", strings.ToLower(label))
				text = strings.TrimLeft(rest, " \t")
				break
			}
		}
	}
	b.lines = []string{text}
	bp.para = b
	bp.paraWrapper = wrapper
}

// closeParagraph finishes the open paragraph, if any.
func (bp *blockParser) closeParagraph() {
	b := bp.para
	if b == nil {
		return
	}
	bp.para = nil
	switch b.kind {
	case LiteralKind:
		if b.Style() == "literal" && b.attrs["1"] == "" {
			b.lines = trimCommonIndent(b.lines)
		}
	case ParagraphKind, VerseKind:
		for i, line := range b.lines {
			b.lines[i] = strings.TrimRight(line, " \t")
		}
	}
	if w := bp.paraWrapper; w != nil {
		bp.paraWrapper = nil
		bp.stack = append(bp.stack, w)
		bp.closeBlock(b)
		bp.stack = bp.stack[:len(bp.stack)-1]
		if b.span.End > w.span.End {
			w.span.End = b.span.End
		}
		bp.closeBlock(w)
		return
	}
	bp.closeBlock(b)
}

// trimCommonIndent removes the indentation shared by all non-blank lines.
func trimCommonIndent(lines []string) []string {
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if n := leadingIndent(line); indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return lines
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = ""
		}
	}
	return lines
}

// delimiter closes the innermost open block with a matching fence
// or opens a new delimited block.
func (bp *blockParser) delimiter(info lineInfo) {
	for i := len(bp.stack) - 1; i > 0; i-- {
		if bp.stack[i].delim != info.fence {
			continue
		}
		for len(bp.stack)-1 > i {
			if inner := bp.top(); inner.delim != "" {
				bp.diags.addf(StructuralWarning, inner.span.Start, 1, "unterminated %s block closed by enclosing %q fence on line %d", inner.kind, info.fence, bp.line)
			}
			bp.pop()
		}
		bp.top().span.End = bp.line
		bp.pop()
		bp.discardPending()
		return
	}
	bp.openDelimited(info)
}

func (bp *blockParser) openDelimited(info lineInfo) {
	bp.prepareContainer()
	if !bp.checkDepth() {
		return
	}
	kind := info.delimKind
	if info.lang != "" || info.fence == "```" {
		bp.attrs.Define("style", "source", ScopeBlock)
		if info.lang != "" {
			bp.attrs.Define("language", info.lang, ScopeBlock)
		}
	}
	if k, ok := masquerades[kind][bp.pendingStyle()]; ok {
		kind = k
	}
	b := bp.newBlock(kind)
	b.delim = info.fence
	b.textLine = bp.line + 1
	if kind == ListingKind && b.attrs["style"] == "" && b.attrs["language"] != "" {
		b.setAttribute("style", "source")
	}
	if isAdmonitionStyle(b.attrs["style"]) {
		b.setAttribute("name", strings.ToLower(b.attrs["style"]))
	}
	if collectsRaw(kind) {
		bp.appendChild(b)
		bp.raw = b
		return
	}
	bp.push(b)
}

// rawLine adds a line to the open raw block or closes it.
func (bp *blockParser) rawLine(line string) {
	b := bp.raw
	b.span.End = bp.line
	if strings.TrimRight(line, " \t") == b.delim {
		bp.closeRaw()
		bp.discardPending()
		return
	}
	b.lines = append(b.lines, line)
}

func (bp *blockParser) closeRaw() {
	b := bp.raw
	bp.raw = nil
	bp.closeBlock(b)
}

// heading handles a section title line.
func (bp *blockParser) heading(info lineInfo, line string) {
	if bp.nested || bp.insideDelimited() {
		// Sections cannot appear inside delimited blocks.
		bp.startParagraph(lineInfo{kind: textLine, text: line}, line)
		return
	}
	level := min(max(info.level+bp.levelOffset(), 0), maxHeadingLevel)
	for bp.top().kind == ListItemKind || bp.top().kind == ListKind {
		bp.pop()
	}
	if style := bp.pendingStyle(); style == "discrete" || style == "float" {
		if !bp.checkDepth() {
			return
		}
		b := bp.newBlock(DiscreteHeadingKind)
		bp.initHeading(b, info, level)
		bp.appendChild(b)
		bp.closeBlock(b)
		return
	}
	for {
		top := bp.top()
		if top.kind == DocumentKind || (top.kind == SectionKind && top.level < level) {
			break
		}
		bp.pop()
	}
	book := bp.attrs.isBook()
	parentLevel := -1
	if top := bp.top(); top.kind == SectionKind {
		parentLevel = top.level
	} else if !book {
		parentLevel = 0
	}
	switch {
	case level == 0 && !book:
		bp.diags.addf(StructuralWarning, bp.line, 1, "level 0 section %q is only allowed in a book", info.text)
	case level > parentLevel+1 && !(parentLevel < 0 && level == 1):
		bp.diags.addf(StructuralWarning, bp.line, 1, "section title out of sequence: expected level %d, got level %d", parentLevel+1, level)
	}
	b := bp.newBlock(SectionKind)
	bp.initHeading(b, info, level)
	bp.push(b)
}

func (bp *blockParser) initHeading(b *Block, info lineInfo, level int) {
	if b.rawTitle != "" {
		bp.diags.addf(Informational, b.titleLine, 1, "block title %q ignored before section heading", b.rawTitle)
	}
	b.level = level
	b.rawTitle = info.text
	b.titleLine = bp.line
	b.title = bp.parseTitle(info.text, bp.line, info.offset)
	if b.ID() == "" && bp.attrs.IsSet("sectids") {
		b.setAttribute("id", bp.generateID(b.title))
	}
}

func (a *Attributes) isBook() bool {
	doctype, _ := a.Lookup("doctype")
	return doctype == "book"
}

// attributeEntry applies an attribute entry line,
// waiting for its continuation lines if it has any.
func (bp *blockParser) attributeEntry(info lineInfo) {
	if info.continued {
		bp.entry = &info
		bp.entryLine = bp.line
		return
	}
	bp.applyEntry(info, bp.line)
}

func (bp *blockParser) continueEntry(line string) {
	text := strings.TrimSpace(line)
	v, more := strings.CutSuffix(text, `\`)
	if more && v != "" && !strings.HasSuffix(v, " ") {
		more = false
		v = text
	}
	v = strings.TrimSpace(v)
	if bp.entry.value != "" && v != "" {
		bp.entry.value += " "
	}
	bp.entry.value += v
	if !more {
		bp.finishEntry()
	}
}

func (bp *blockParser) finishEntry() {
	info := *bp.entry
	bp.entry = nil
	bp.applyEntry(info, bp.entryLine)
}

func (bp *blockParser) applyEntry(info lineInfo, line int) {
	var err error
	if info.unset {
		err = bp.attrs.Unset(info.name)
	} else {
		value, missing := bp.attrs.resolveReferences(info.value)
		for _, name := range missing {
			bp.diags.addf(SyntaxWarning, line, 1, "unresolved attribute reference {%s} in value of %s", name, info.name)
		}
		err = bp.attrs.Define(info.name, value, ScopeDocument)
	}
	if err != nil {
		bp.log.Debug().Err(err).Int("line", line).Msg("attribute entry ignored")
	}
}
