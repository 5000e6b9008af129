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

// Package format provides a function to write a parsed AsciiDoc document
// back out as AsciiDoc in a normalized form.
package format

import (
	"io"
	"strconv"
	"strings"

	"zombiezen.com/go/asciidoc"
)

// Format writes the given document to w in a normalized form.
// Block structure is rewritten with canonical delimiters and markers,
// while the text of leaf blocks is copied from the source unchanged.
// Parsing the output produces a document with the same structure.
func Format(w io.Writer, doc *asciidoc.Document) error {
	ew := &errWriter{w: w}
	f := &formatter{
		w:     ew,
		attrs: doc.Attributes(),
		prev:  make(map[*asciidoc.Block]*asciidoc.Block),
	}
	f.header(doc)
	asciidoc.Walk(doc.Root().AsNode(), &asciidoc.WalkOptions{
		BlocksOnly: true,
		Pre:        f.pre,
		Post:       f.post,
	})
	return ew.err
}

type formatter struct {
	w     *errWriter
	attrs *asciidoc.Attributes
	// prev maps a parent to its most recently written child.
	prev map[*asciidoc.Block]*asciidoc.Block
	// written is set once anything has been written.
	written bool
}

// headerAttributes are document attributes derived from the header lines.
var headerAttributes = []string{
	"doctitle",
	"author",
	"authorcount",
	"authorinitials",
	"email",
	"firstname",
	"middlename",
	"lastname",
	"revnumber",
	"revdate",
	"revremark",
}

func isHeaderAttribute(name string) bool {
	base, _, _ := strings.Cut(name, "_")
	for _, h := range headerAttributes {
		if name == h || (base == h && base != name) {
			return true
		}
	}
	return false
}

func (f *formatter) header(doc *asciidoc.Document) {
	h := doc.Header()
	if title, ok := f.attrs.Lookup("doctitle"); ok && h.Title != nil {
		f.w.WriteString("= ")
		f.w.WriteString(title)
		f.w.WriteString("\n")
		if len(h.Authors) > 0 {
			for i, a := range h.Authors {
				if i > 0 {
					f.w.WriteString("; ")
				}
				f.w.WriteString(a.Name)
				if a.Email != "" {
					f.w.WriteString(" <")
					f.w.WriteString(a.Email)
					f.w.WriteString(">")
				}
			}
			f.w.WriteString("\n")
		}
		if r := h.Revision; r.Number != "" || r.Date != "" || r.Remark != "" {
			if len(h.Authors) == 0 {
				// A revision line must follow an author line.
				f.w.WriteString(":revnumber: " + r.Number + "\n")
				if r.Date != "" {
					f.w.WriteString(":revdate: " + r.Date + "\n")
				}
				if r.Remark != "" {
					f.w.WriteString(":revremark: " + r.Remark + "\n")
				}
			} else {
				f.w.WriteString(revisionLine(r))
				f.w.WriteString("\n")
			}
		}
		f.written = true
	}

	defaults := asciidoc.NewAttributes()
	for _, name := range defaults.Names() {
		if !f.attrs.IsSet(name) {
			f.w.WriteString(":" + name + "!:\n")
			f.written = true
		}
	}
	for _, name := range f.attrs.Names() {
		if isHeaderAttribute(name) {
			continue
		}
		value, _ := f.attrs.Lookup(name)
		if d, ok := defaults.Lookup(name); ok && d == value {
			continue
		}
		f.w.WriteString(":" + name + ":")
		if value != "" {
			f.w.WriteString(" ")
			f.w.WriteString(value)
		}
		f.w.WriteString("\n")
		f.written = true
	}
}

func revisionLine(r asciidoc.Revision) string {
	sb := new(strings.Builder)
	if r.Number != "" {
		sb.WriteString("v")
		sb.WriteString(r.Number)
	}
	if r.Date != "" {
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.Date)
	}
	if r.Remark != "" {
		sb.WriteString(": ")
		sb.WriteString(r.Remark)
	}
	return sb.String()
}

func (f *formatter) pre(c *asciidoc.Cursor) bool {
	b := c.Node().Block()
	if b.Kind() == asciidoc.DocumentKind {
		return true
	}
	parent := c.Parent().Block()
	f.separate(parent, b)
	f.prev[parent] = b

	switch b.Kind() {
	case asciidoc.SectionKind:
		f.blockAttributes(b)
		f.w.WriteString(strings.Repeat("=", b.Level()+1))
		f.w.WriteString(" ")
		f.w.WriteString(b.TitleSource())
		f.w.WriteString("\n")
		return true
	case asciidoc.DiscreteHeadingKind:
		f.blockAttributes(b)
		f.w.WriteString(strings.Repeat("=", b.Level()+1))
		f.w.WriteString(" ")
		f.w.WriteString(b.TitleSource())
		f.w.WriteString("\n")
		return false
	case asciidoc.ListKind:
		f.blockAttributes(b)
		return true
	case asciidoc.ListItemKind:
		f.listItem(b)
		return true
	case asciidoc.TableKind:
		f.blockAttributes(b)
		f.table(b)
		return false
	case asciidoc.BlockMacroKind:
		f.blockTitle(b)
		f.w.WriteString(b.MacroName())
		f.w.WriteString("::")
		f.w.WriteString(b.Target())
		f.w.WriteString("[")
		f.w.WriteString(attributeList(b, macroSkip))
		f.w.WriteString("]\n")
		return false
	case asciidoc.ThematicBreakKind:
		f.blockAttributes(b)
		f.w.WriteString("'''\n")
		return false
	case asciidoc.PageBreakKind:
		f.blockAttributes(b)
		f.w.WriteString("<<<\n")
		return false
	}

	f.blockAttributes(b)
	if !b.IsDelimited() {
		if children := b.BlockChildren(); len(children) > 0 {
			// Styled paragraph like [quote] or [NOTE].
			f.lines(children[0].Lines())
		} else {
			f.lines(b.Lines())
		}
		return false
	}
	fence := canonicalFence(b)
	f.w.WriteString(fence)
	f.w.WriteString("\n")
	if len(b.BlockChildren()) == 0 {
		f.lines(b.Lines())
		f.w.WriteString(fence)
		f.w.WriteString("\n")
		return false
	}
	return true
}

func (f *formatter) post(c *asciidoc.Cursor) bool {
	b := c.Node().Block()
	if b.Kind() == asciidoc.DocumentKind || !b.IsDelimited() {
		return true
	}
	switch b.Kind() {
	case asciidoc.ExampleKind, asciidoc.SidebarKind, asciidoc.QuoteKind, asciidoc.OpenKind:
		// Make sure the closing fence is not swallowed by a trailing paragraph.
		f.w.WriteString("\n")
		fence := canonicalFence(b)
		f.w.WriteString(fence)
		f.w.WriteString("\n")
	}
	return true
}

// separate writes whatever must come between the previous block and b.
func (f *formatter) separate(parent, b *asciidoc.Block) {
	if parent.Kind() == asciidoc.ListKind {
		return
	}
	if parent.Kind() == asciidoc.ListItemKind {
		if b.Kind() != asciidoc.ListKind {
			f.w.WriteString("+\n")
		}
		return
	}
	prev := f.prev[parent]
	if f.written && (prev != nil || !parent.IsDelimited()) {
		f.w.WriteString("\n")
	}
	f.written = true
	if prev.Kind() == asciidoc.ListKind && b.Kind() == asciidoc.ListKind {
		// Adjacent lists would otherwise be merged.
		f.w.WriteString("//-\n\n")
	}
}

func (f *formatter) lines(lines []string) {
	for _, line := range lines {
		f.w.WriteString(line)
		f.w.WriteString("\n")
	}
}

func (f *formatter) blockTitle(b *asciidoc.Block) {
	if t := b.TitleSource(); t != "" {
		f.w.WriteString(".")
		f.w.WriteString(t)
		f.w.WriteString("\n")
	}
}

// blockAttributes writes the block's title and attribute list lines.
// Headings carry their title on the heading line instead.
func (f *formatter) blockAttributes(b *asciidoc.Block) {
	switch b.Kind() {
	case asciidoc.SectionKind, asciidoc.DiscreteHeadingKind:
		// The title is written on the heading line itself.
	default:
		f.blockTitle(b)
	}
	skip := blockSkip
	if b.Kind() == asciidoc.SectionKind {
		if id := b.ID(); id != "" && id == f.generatedID(b) {
			skip = sectionSkip
		}
	}
	if list := attributeList(b, skip); list != "" {
		f.w.WriteString("[")
		f.w.WriteString(list)
		f.w.WriteString("]\n")
	}
}

func (f *formatter) generatedID(b *asciidoc.Block) string {
	prefix, _ := f.attrs.Lookup("idprefix")
	sep, _ := f.attrs.Lookup("idseparator")
	return asciidoc.GenerateID(asciidoc.PlainText(b.Title()), prefix, sep)
}

func (f *formatter) listItem(item *asciidoc.Block) {
	if item.ListMarkerKind() == asciidoc.DescriptionMarker {
		f.w.WriteString(item.TermSource())
		f.w.WriteString(item.ListMarker())
	} else {
		f.w.WriteString(itemMarker(item))
		if item.IsChecklistItem() {
			if item.Checked() {
				f.w.WriteString(" [x]")
			} else {
				f.w.WriteString(" [ ]")
			}
		}
	}
	lines := item.Lines()
	if len(lines) == 0 {
		f.w.WriteString("\n")
		return
	}
	f.w.WriteString(" ")
	f.lines(lines)
}

func itemMarker(item *asciidoc.Block) string {
	class := item.ListMarker()
	n := item.ListItemNumber()
	if n <= 0 {
		return class
	}
	switch class {
	case "1.":
		return strconv.Itoa(n) + "."
	case "a.":
		if n <= 26 {
			return string(rune('a'+n-1)) + "."
		}
	case "A.":
		if n <= 26 {
			return string(rune('A'+n-1)) + "."
		}
	}
	return class
}

// cellStyles maps cell styles to their specifier letters.
var cellStyles = map[string]string{
	"asciidoc":  "a",
	"emphasis":  "e",
	"header":    "h",
	"literal":   "l",
	"monospace": "m",
	"strong":    "s",
	"verse":     "v",
}

var (
	hAlignSpecs = map[string]string{"left": "<", "center": "^", "right": ">"}
	vAlignSpecs = map[string]string{"top": "<", "middle": "^", "bottom": ">"}
)

func (f *formatter) table(t *asciidoc.Block) {
	sep, fence := "|", "|==="
	if t.Delimiter() == "!===" {
		sep, fence = "!", "!==="
	}
	f.w.WriteString(fence)
	f.w.WriteString("\n")
	for _, row := range t.BlockChildren() {
		for i, cell := range row.BlockChildren() {
			if i > 0 {
				f.w.WriteString(" ")
			}
			f.w.WriteString(cellSpec(cell))
			f.w.WriteString(sep)
			content := strings.Join(cell.Lines(), "\n")
			f.w.WriteString(escapeSeparator(content, sep))
		}
		f.w.WriteString("\n")
		if style, _ := row.Attribute("style"); style == "header" {
			f.w.WriteString("\n")
		}
	}
	f.w.WriteString(fence)
	f.w.WriteString("\n")
}

func cellSpec(cell *asciidoc.Block) string {
	sb := new(strings.Builder)
	colspan, _ := cell.Attribute("colspan")
	rowspan, _ := cell.Attribute("rowspan")
	if colspan != "" || rowspan != "" {
		sb.WriteString(colspan)
		if rowspan != "" {
			sb.WriteString(".")
			sb.WriteString(rowspan)
		}
		sb.WriteString("+")
	}
	if h, ok := cell.Attribute("halign"); ok {
		sb.WriteString(hAlignSpecs[h])
	}
	if v, ok := cell.Attribute("valign"); ok && vAlignSpecs[v] != "" {
		sb.WriteString(".")
		sb.WriteString(vAlignSpecs[v])
	}
	if style, ok := cell.Attribute("style"); ok {
		sb.WriteString(cellStyles[style])
	}
	return sb.String()
}

func escapeSeparator(s, sep string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == sep[0] && (i == 0 || s[i-1] != '\\') {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// canonicalFence returns the delimiter line written for a delimited block.
// Fenced code is rewritten as a listing block
// since its style and language are written as attributes.
func canonicalFence(b *asciidoc.Block) string {
	if d := b.Delimiter(); d != "```" {
		return d
	}
	return "----"
}

// Attribute names that are written in another form
// or derived from other attributes.
var (
	blockSkip = map[string]bool{
		"style":            true,
		"language":         true,
		"linenums":         true,
		"attribution":      true,
		"citetitle":        true,
		"name":             true,
		"title":            true,
		"options":          true,
		"colcount":         true,
		"rowcount":         true,
		"format":           true,
		"separator":        true,
		"checklist-option": true,
	}
	sectionSkip = withSkip(blockSkip, "id")
	macroSkip   = withSkip(blockSkip, "alt")
)

func withSkip(m map[string]bool, names ...string) map[string]bool {
	m2 := make(map[string]bool, len(m)+len(names))
	for k, v := range m {
		m2[k] = v
	}
	for _, name := range names {
		m2[name] = true
	}
	return m2
}

// attributeList returns the block's attributes as the contents
// of an attribute list line, without the brackets.
func attributeList(b *asciidoc.Block, skip map[string]bool) string {
	var parts []string
	for i := 1; ; i++ {
		v, ok := b.Attribute(strconv.Itoa(i))
		if !ok {
			break
		}
		parts = append(parts, quoteValue(v))
	}
	if len(parts) == 0 && b.Kind() != asciidoc.BlockMacroKind {
		if style := b.Style(); style != "" {
			parts = append(parts, quoteValue(style))
			switch style {
			case "source":
				if lang, ok := b.Attribute("language"); ok {
					parts = append(parts, quoteValue(lang))
				}
			case "quote", "verse":
				if a, ok := b.Attribute("attribution"); ok {
					parts = append(parts, quoteValue(a))
				}
			}
		}
	}
	var opts []string
	for _, name := range b.AttributeNames() {
		if skip[name] || isPositional(name) {
			continue
		}
		if opt, ok := strings.CutSuffix(name, "-option"); ok {
			opts = append(opts, opt)
			continue
		}
		v, _ := b.Attribute(name)
		parts = append(parts, name+"="+quoteValue(v))
	}
	if len(opts) > 0 {
		parts = append(parts, `opts="`+strings.Join(opts, ",")+`"`)
	}
	return strings.Join(parts, ",")
}

func isPositional(name string) bool {
	_, err := strconv.Atoi(name)
	return err == nil
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ",\"= ]") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}

type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err = w.w.Write(p)
	w.err = err
	return n, err
}

func (w *errWriter) WriteString(s string) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err = io.WriteString(w.w, s)
	w.err = err
	return n, err
}
