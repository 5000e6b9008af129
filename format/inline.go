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

package format

import (
	"io"
	"strconv"
	"strings"

	"zombiezen.com/go/asciidoc"
)

// FormatInline writes inline nodes to w as AsciiDoc text.
// subs is the substitution set the text will be parsed with:
// parsing the output with [asciidoc.ParseInline] and the same substitutions
// produces an equivalent sequence of nodes.
// Literal text that would otherwise be interpreted as markup
// is wrapped in a "++" passthrough.
func FormatInline(w io.Writer, nodes []*asciidoc.Inline, subs asciidoc.Substitutions) error {
	ew := &errWriter{w: w}
	f := &inlineFormatter{
		w:       ew,
		protect: subs&^(asciidoc.SpecialCharsSub|asciidoc.PostReplacementsSub) != 0,
	}
	f.inlines(nodes)
	return ew.err
}

type inlineFormatter struct {
	w *errWriter
	// protect is set if passthroughs are recognized.
	protect bool
}

var markChars = map[asciidoc.InlineKind]string{
	asciidoc.StrongKind:      "*",
	asciidoc.EmphasisKind:    "_",
	asciidoc.MonospaceKind:   "`",
	asciidoc.MarkKind:        "#",
	asciidoc.SuperscriptKind: "^",
	asciidoc.SubscriptKind:   "~",
}

func (f *inlineFormatter) inlines(nodes []*asciidoc.Inline) {
	for _, n := range nodes {
		f.inline(n)
	}
}

func (f *inlineFormatter) inline(n *asciidoc.Inline) {
	switch n.Kind() {
	case asciidoc.TextKind:
		f.text(n.Text())
	case asciidoc.LineBreakKind:
		f.w.WriteString(" +\n")
	case asciidoc.PassthroughKind:
		if t := n.Text(); !strings.Contains(t, "+++") {
			f.w.WriteString("+++" + t + "+++")
		} else {
			f.w.WriteString("pass:[" + escapeBracket(t) + "]")
		}
	case asciidoc.AttributeReferenceKind:
		f.w.WriteString("{" + n.Name() + "}")
	case asciidoc.LinkKind:
		f.link(n)
	case asciidoc.MacroKind:
		f.macro(n)
	default:
		mark, ok := markChars[n.Kind()]
		if !ok {
			return
		}
		if n.IsUnconstrained() {
			mark += mark
		}
		if attrs := spanAttributeList(n); attrs != "" {
			f.w.WriteString("[" + attrs + "]")
		}
		f.w.WriteString(mark)
		f.inlines(n.Children())
		f.w.WriteString(mark)
	}
}

// text writes literal text,
// protecting it if it contains characters that could start markup.
func (f *inlineFormatter) text(s string) {
	if f.protect && needsProtection(s) && canProtect(s) {
		f.w.WriteString("++" + s + "++")
		return
	}
	f.w.WriteString(s)
}

// markupSequences are substrings that the inline parser
// may interpret in otherwise literal text.
var markupSequences = []string{"...", "--", "->", "=>", "://"}

func needsProtection(s string) bool {
	if strings.ContainsAny(s, "*_`#^~+\\{}[]<>(&@'") {
		return true
	}
	for _, seq := range markupSequences {
		if strings.Contains(s, seq) {
			return true
		}
	}
	return false
}

// canProtect reports whether s can be wrapped in a "++" passthrough.
func canProtect(s string) bool {
	return s != "" &&
		!strings.Contains(s, "++") &&
		!strings.HasPrefix(s, "+") &&
		!strings.HasSuffix(s, "+")
}

func (f *inlineFormatter) link(n *asciidoc.Inline) {
	f.w.WriteString("link:" + n.Target() + "[")
	named := namedAttributes(n)
	if len(named) == 0 {
		f.bracketed(n.Children())
	} else {
		// Link text in a quoted attribute is parsed without passthroughs.
		sb := new(strings.Builder)
		sub := &inlineFormatter{w: &errWriter{w: sb}}
		sub.inlines(n.Children())
		text := `"` + strings.ReplaceAll(sb.String(), `"`, `\"`) + `"`
		f.w.WriteString(escapeBracket(strings.Join(append([]string{text}, named...), ",")))
	}
	f.w.WriteString("]")
}

func (f *inlineFormatter) macro(n *asciidoc.Inline) {
	name, target := n.Name(), n.Target()
	first, _ := n.Attribute("1")
	switch name {
	case "xref":
		f.w.WriteString("<<" + target)
		if children := n.Children(); len(children) > 0 {
			f.w.WriteString(",")
			f.inlines(children)
		}
		f.w.WriteString(">>")
	case "anchor":
		f.w.WriteString("[[" + target)
		if reftext, ok := n.Attribute("reftext"); ok {
			f.w.WriteString("," + reftext)
		}
		f.w.WriteString("]]")
	case "indexterm":
		if n.ChildCount() > 0 {
			f.w.WriteString("((" + first + "))")
			return
		}
		f.w.WriteString("(((" + strings.Join(positionalValues(n), ",") + ")))")
	case "footnote":
		f.w.WriteString("footnote:" + target + "[")
		f.bracketed(n.Children())
		f.w.WriteString("]")
	case "stem", "latexmath", "asciimath":
		f.w.WriteString(name + ":[" + escapeBracket(asciidoc.PlainText(n.Children())) + "]")
	case "kbd", "btn", "menu":
		f.w.WriteString(name + ":" + target + "[" + escapeBracket(first) + "]")
	default:
		f.w.WriteString(name + ":" + target + "[" + macroAttributeList(n) + "]")
	}
}

// bracketed writes macro text that appears between brackets.
func (f *inlineFormatter) bracketed(nodes []*asciidoc.Inline) {
	sb := new(strings.Builder)
	sub := &inlineFormatter{w: &errWriter{w: sb}, protect: f.protect}
	sub.inlines(nodes)
	f.w.WriteString(escapeBracketText(sb.String()))
}

// escapeBracket escapes the closing brackets in s.
func escapeBracket(s string) string {
	return strings.ReplaceAll(s, "]", `\]`)
}

// escapeBracketText escapes closing brackets outside of "++" passthroughs.
func escapeBracketText(s string) string {
	var sb strings.Builder
	for s != "" {
		start := strings.Index(s, "++")
		if start < 0 {
			sb.WriteString(escapeBracket(s))
			break
		}
		end := strings.Index(s[start+2:], "++")
		if end < 0 {
			sb.WriteString(escapeBracket(s))
			break
		}
		end += start + 4
		sb.WriteString(escapeBracket(s[:start]))
		sb.WriteString(s[start:end])
		s = s[end:]
	}
	return sb.String()
}

// spanAttributeList returns the attribute list of a formatting span
// in shorthand form, like "#id.role", or the empty string.
func spanAttributeList(n *asciidoc.Inline) string {
	shorthand := new(strings.Builder)
	if id, ok := n.Attribute("id"); ok {
		shorthand.WriteString("#" + id)
	}
	for _, role := range n.Roles() {
		shorthand.WriteString("." + role)
	}
	if opts, ok := n.Attribute("options"); ok {
		for _, opt := range strings.Split(opts, ",") {
			shorthand.WriteString("%" + opt)
		}
	}
	var parts []string
	if shorthand.Len() > 0 {
		parts = append(parts, shorthand.String())
	}
	for _, name := range n.AttributeNames() {
		if name == "id" || isSpecialInlineAttribute(name) {
			continue
		}
		v, _ := n.Attribute(name)
		parts = append(parts, name+"="+quoteValue(v))
	}
	return strings.Join(parts, ",")
}

// macroAttributeList returns the attribute list of a macro
// like "image:cat.png[Cat,200,role=thumb]", without the brackets.
func macroAttributeList(n *asciidoc.Inline) string {
	parts := positionalValues(n)
	for i, v := range parts {
		if v != "" {
			parts[i] = quoteValue(v)
		}
	}
	return escapeBracket(strings.Join(append(parts, namedAttributes(n)...), ","))
}

// namedAttributes returns the non-positional attributes of n
// as "name=value" items.
func namedAttributes(n *asciidoc.Inline) []string {
	var parts []string
	if role, ok := n.Attribute("role"); ok {
		parts = append(parts, "role="+quoteValue(role))
	}
	if opts, ok := n.Attribute("options"); ok {
		parts = append(parts, "opts="+quoteValue(opts))
	}
	for _, name := range n.AttributeNames() {
		if isSpecialInlineAttribute(name) {
			continue
		}
		v, _ := n.Attribute(name)
		parts = append(parts, name+"="+quoteValue(v))
	}
	return parts
}

// positionalValues returns the positional attributes of n in order.
// Missing positions are empty.
func positionalValues(n *asciidoc.Inline) []string {
	last := 0
	for _, name := range n.AttributeNames() {
		if i, err := strconv.Atoi(name); err == nil && i > last {
			last = i
		}
	}
	values := make([]string, last)
	for i := range values {
		values[i], _ = n.Attribute(strconv.Itoa(i + 1))
	}
	return values
}

// isSpecialInlineAttribute reports whether the attribute is written
// positionally or in a shorthand form rather than as name=value.
func isSpecialInlineAttribute(name string) bool {
	return isPositional(name) || name == "role" || name == "options" || strings.HasSuffix(name, "-option")
}
