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
)

// LineSpan is a range of 1-based source line numbers.
// End is inclusive.
type LineSpan struct {
	Start int
	End   int
}

// NullSpan returns an invalid span.
func NullSpan() LineSpan {
	return LineSpan{Start: -1, End: -1}
}

// IsValid reports whether the span refers to at least one line.
func (span LineSpan) IsValid() bool {
	return span.Start > 0 && span.End >= span.Start
}

func (span LineSpan) String() string {
	if !span.IsValid() {
		return "-"
	}
	if span.Start == span.End {
		return strconv.Itoa(span.Start)
	}
	return strconv.Itoa(span.Start) + "-" + strconv.Itoa(span.End)
}

// A Block is a structural element in an AsciiDoc document.
// Blocks are immutable once returned from a parse.
type Block struct {
	kind  BlockKind
	span  LineSpan
	level int
	delim string

	marker listMarker
	macro  blockMacro

	attrs map[string]string
	title []*Inline
	term  []*Inline

	// lines holds the raw content of leaf blocks.
	lines          []string
	inlineChildren []*Inline
	blockChildren  []*Block
	subs           Substitutions
	columns        []TableColumn

	// Fields used only while parsing.
	rawTitle  string
	titleLine int
	rawTerm   string
	textLine  int
	// attached is set on a list item after a continuation line.
	attached bool
	// textOpen is set while lines may be appended to a list item's principal text.
	textOpen bool
}

// Kind returns the type of block
// or zero if the block is nil.
func (b *Block) Kind() BlockKind {
	if b == nil {
		return 0
	}
	return b.kind
}

// Span returns the source lines the block occupies,
// including any delimiters and attribute lines that introduced it,
// or an invalid span if the block is nil.
func (b *Block) Span() LineSpan {
	if b == nil {
		return NullSpan()
	}
	return b.span
}

// Level returns the section level of a [SectionKind] or [DiscreteHeadingKind] block.
// "== Title" is level 1.
// Level returns -1 for other blocks.
func (b *Block) Level() int {
	switch b.Kind() {
	case SectionKind, DiscreteHeadingKind:
		return b.level
	default:
		return -1
	}
}

// Delimiter returns the opening fence of a delimited block
// or the empty string if the block was not delimited.
func (b *Block) Delimiter() string {
	if b == nil {
		return ""
	}
	return b.delim
}

// IsDelimited reports whether the block was enclosed by fence lines.
func (b *Block) IsDelimited() bool {
	return b.Delimiter() != ""
}

// Title returns the block's title:
// the heading text of a section or discrete heading,
// or the text of a ".Title" line preceding any other block.
func (b *Block) Title() []*Inline {
	if b == nil {
		return nil
	}
	return b.title
}

// TitleSource returns the unparsed text of the block's title.
func (b *Block) TitleSource() string {
	if b == nil {
		return ""
	}
	return b.rawTitle
}

// Attribute returns the value of the named block attribute.
// Positional attributes are named by their 1-based index ("1", "2", ...).
func (b *Block) Attribute(name string) (value string, ok bool) {
	if b == nil {
		return "", false
	}
	value, ok = b.attrs[strings.ToLower(name)]
	return value, ok
}

// AttributeNames returns the sorted names of the block's attributes.
func (b *Block) AttributeNames() []string {
	if b == nil {
		return nil
	}
	return sortedKeys(b.attrs)
}

// ID returns the block's anchor ID or the empty string if it has none.
// Sections are assigned generated IDs when the sectids attribute is set.
func (b *Block) ID() string {
	id, _ := b.Attribute("id")
	return id
}

// Style returns the block's style, like "source", "verse", or "NOTE",
// or the empty string.
func (b *Block) Style() string {
	style, _ := b.Attribute("style")
	return style
}

// Roles returns the block's roles in the order they were declared.
func (b *Block) Roles() []string {
	roles, _ := b.Attribute("role")
	return strings.Fields(roles)
}

// HasRole reports whether the block has the given role.
func (b *Block) HasRole(role string) bool {
	for _, r := range b.Roles() {
		if r == role {
			return true
		}
	}
	return false
}

// HasOption reports whether the block has the given option set,
// either through "%name" shorthand, an "options" attribute,
// or a "name-option" attribute.
func (b *Block) HasOption(name string) bool {
	_, ok := b.Attribute(name + "-option")
	return ok
}

// Lines returns the raw content lines of a leaf block.
// Verbatim blocks preserve their content byte-for-byte.
func (b *Block) Lines() []string {
	if b == nil {
		return nil
	}
	return b.lines
}

// Content returns the block's raw lines joined by newlines.
func (b *Block) Content() string {
	return strings.Join(b.Lines(), "\n")
}

// InlineChildren returns the parsed inline content of a leaf block
// or the principal text of a list item.
func (b *Block) InlineChildren() []*Inline {
	if b == nil {
		return nil
	}
	return b.inlineChildren
}

// BlockChildren returns the block's child blocks.
func (b *Block) BlockChildren() []*Block {
	if b == nil {
		return nil
	}
	return b.blockChildren
}

// ChildCount returns the number of children the block has:
// its inline children followed by its block children.
// Calling ChildCount on nil returns 0.
func (b *Block) ChildCount() int {
	if b == nil {
		return 0
	}
	return len(b.inlineChildren) + len(b.blockChildren)
}

// Child returns the i'th child of the block
// in the order described by [*Block.ChildCount].
func (b *Block) Child(i int) Node {
	if i < len(b.inlineChildren) {
		return b.inlineChildren[i].AsNode()
	}
	return b.blockChildren[i-len(b.inlineChildren)].AsNode()
}

// Term returns the term of a description list item.
func (b *Block) Term() []*Inline {
	if b.Kind() != ListItemKind {
		return nil
	}
	return b.term
}

// TermSource returns the unparsed term of a description list item.
func (b *Block) TermSource() string {
	if b.Kind() != ListItemKind {
		return ""
	}
	return b.rawTerm
}

// ListMarkerKind returns the marker kind of a [ListKind] or [ListItemKind] block
// or zero for other blocks.
func (b *Block) ListMarkerKind() ListMarkerKind {
	switch b.Kind() {
	case ListKind, ListItemKind:
		return b.marker.kind
	default:
		return 0
	}
}

// ListMarker returns the marker class of a [ListKind] or [ListItemKind] block,
// like "*", "..", "1.", or "::".
// All items of a list share their list's marker class.
func (b *Block) ListMarker() string {
	switch b.Kind() {
	case ListKind, ListItemKind:
		return b.marker.class
	default:
		return ""
	}
}

// ListItemNumber returns the explicit ordinal of an ordered list item,
// like 3 for "3." or "c.", or 0 if the item was not explicitly numbered.
func (b *Block) ListItemNumber() int {
	if b.Kind() != ListItemKind {
		return 0
	}
	return b.marker.number
}

// IsChecklistItem reports whether the block is a list item with a checkbox.
func (b *Block) IsChecklistItem() bool {
	return b.Kind() == ListItemKind && b.marker.checkbox != 0
}

// Checked reports whether the block is a checked checklist item.
func (b *Block) Checked() bool {
	return b.IsChecklistItem() && b.marker.checkbox == 'x'
}

// MacroName returns the name of a [BlockMacroKind] block, like "image".
func (b *Block) MacroName() string {
	if b.Kind() != BlockMacroKind {
		return ""
	}
	return b.macro.name
}

// Target returns the target of a [BlockMacroKind] block.
func (b *Block) Target() string {
	if b.Kind() != BlockMacroKind {
		return ""
	}
	return b.macro.target
}

// Substitutions returns the substitutions applied to the block's content.
func (b *Block) Substitutions() Substitutions {
	if b == nil {
		return 0
	}
	return b.subs
}

func (b *Block) lastBlock() *Block {
	if b == nil || len(b.blockChildren) == 0 {
		return nil
	}
	return b.blockChildren[len(b.blockChildren)-1]
}

func (b *Block) setAttribute(name, value string) {
	if b.attrs == nil {
		b.attrs = make(map[string]string)
	}
	b.attrs[name] = value
}

// BlockKind is an enumeration of values returned by [*Block.Kind].
type BlockKind uint16

const (
	// SectionKind is a section introduced by a heading.
	// Its children are the blocks and subsections up to the next heading
	// of the same or a lower level.
	SectionKind BlockKind = 1 + iota
	ParagraphKind
	// ListKind is a list of [ListItemKind] blocks
	// that share a marker class.
	ListKind
	// ListItemKind is a list item.
	// Its inline children are the item's principal text
	// and its block children are the blocks attached to it.
	ListItemKind
	// ListingKind is a verbatim block of source code or program output.
	// It is either delimited by "----" or a paragraph with the "source" or "listing" style.
	ListingKind
	// LiteralKind is a verbatim block that is displayed as-is.
	// It is either delimited by "....",
	// a paragraph with the "literal" style,
	// or an indented paragraph.
	LiteralKind
	QuoteKind
	// VerseKind is a quote block with the "verse" style.
	// Its content is inline text rather than blocks.
	VerseKind
	ExampleKind
	SidebarKind
	OpenKind
	// TableKind is a table.
	// Its children are [TableRowKind] blocks.
	TableKind
	// TableRowKind is a table row.
	// Its children are [TableCellKind] blocks.
	TableRowKind
	// TableCellKind is a table cell.
	// Cells with the "asciidoc" style contain blocks,
	// all others contain inline text.
	TableCellKind
	// PassKind is a passthrough block whose content
	// is handed to the backend without substitutions.
	PassKind
	// CommentKind is a delimited comment block.
	// Single-line comments do not produce blocks.
	CommentKind
	// BlockMacroKind is a block macro like "image::target[]".
	BlockMacroKind
	ThematicBreakKind
	PageBreakKind
	// DiscreteHeadingKind is a heading that does not start a section.
	DiscreteHeadingKind
	// DocumentKind is the root block of a document,
	// returned by [*Document.Root].
	DocumentKind
)

var blockKindNames = map[BlockKind]string{
	SectionKind:         "section",
	ParagraphKind:       "paragraph",
	ListKind:            "list",
	ListItemKind:        "list item",
	ListingKind:         "listing",
	LiteralKind:         "literal",
	QuoteKind:           "quote",
	VerseKind:           "verse",
	ExampleKind:         "example",
	SidebarKind:         "sidebar",
	OpenKind:            "open",
	TableKind:           "table",
	TableRowKind:        "table row",
	TableCellKind:       "table cell",
	PassKind:            "pass",
	CommentKind:         "comment",
	BlockMacroKind:      "block macro",
	ThematicBreakKind:   "thematic break",
	PageBreakKind:       "page break",
	DiscreteHeadingKind: "discrete heading",
	DocumentKind:        "document",
}

func (kind BlockKind) String() string {
	if name, ok := blockKindNames[kind]; ok {
		return name
	}
	return "BlockKind(" + strconv.Itoa(int(kind)) + ")"
}

// blockKindByName returns the kind of the delimited block with the given name
// or zero if there is no such kind.
func blockKindByName(name string) BlockKind {
	for kind, n := range blockKindNames {
		if n == name && isDelimitedKind(kind) {
			return kind
		}
	}
	return 0
}

func isDelimitedKind(kind BlockKind) bool {
	switch kind {
	case ListingKind, LiteralKind, QuoteKind, ExampleKind, SidebarKind,
		OpenKind, TableKind, PassKind, CommentKind, VerseKind:
		return true
	default:
		return false
	}
}

// blockRule is the parse behavior of a block kind.
type blockRule struct {
	// verbatim blocks keep their content lines byte-for-byte
	// and ignore all markup until their closing fence.
	verbatim bool
	// compound blocks contain other blocks.
	compound bool
	// subs is the default substitution set for the block's content.
	subs Substitutions
}

var blockRules = map[BlockKind]blockRule{
	DocumentKind:        {compound: true},
	SectionKind:         {compound: true},
	ParagraphKind:       {subs: NormalSubs},
	ListKind:            {compound: true},
	ListItemKind:        {compound: true, subs: NormalSubs},
	ListingKind:         {verbatim: true, subs: VerbatimSubs},
	LiteralKind:         {verbatim: true, subs: VerbatimSubs},
	QuoteKind:           {compound: true},
	VerseKind:           {subs: NormalSubs},
	ExampleKind:         {compound: true},
	SidebarKind:         {compound: true},
	OpenKind:            {compound: true},
	TableKind:           {compound: true},
	TableRowKind:        {compound: true},
	TableCellKind:       {subs: NormalSubs},
	PassKind:            {verbatim: true, subs: NoSubs},
	CommentKind:         {verbatim: true, subs: NoSubs},
	BlockMacroKind:      {},
	ThematicBreakKind:   {},
	PageBreakKind:       {},
	DiscreteHeadingKind: {subs: NormalSubs},
}

// canContain reports whether a block of the given kind
// may directly contain a child of childKind.
func (kind BlockKind) canContain(childKind BlockKind) bool {
	switch kind {
	case ListKind:
		return childKind == ListItemKind
	case TableKind:
		return childKind == TableRowKind
	case TableRowKind:
		return childKind == TableCellKind
	case DocumentKind, SectionKind:
		return childKind != ListItemKind && childKind != TableRowKind && childKind != TableCellKind
	default:
		return blockRules[kind].compound &&
			childKind != SectionKind &&
			childKind != ListItemKind &&
			childKind != TableRowKind &&
			childKind != TableCellKind
	}
}

// ListMarkerKind is an enumeration of list marker types.
type ListMarkerKind uint8

const (
	UnorderedMarker ListMarkerKind = 1 + iota
	OrderedMarker
	DescriptionMarker
)

func (k ListMarkerKind) String() string {
	switch k {
	case UnorderedMarker:
		return "unordered"
	case OrderedMarker:
		return "ordered"
	case DescriptionMarker:
		return "description"
	default:
		return "ListMarkerKind(" + strconv.Itoa(int(k)) + ")"
	}
}
