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

// Inline represents AsciiDoc content elements like text, links, or emphasis.
type Inline struct {
	kind InlineKind
	text string
	// name is the macro name of a MacroKind node
	// or the attribute name of an AttributeReferenceKind node.
	name   string
	target string
	attrs  map[string]string
	// unconstrained is set for formatting spans written with doubled marks.
	unconstrained bool
	children      []*Inline

	// origin is the attribute reference instance the node's text came from
	// while parsing, or zero for document text.
	origin int32
}

// Kind returns the type of inline node
// or zero if the node is nil.
func (inline *Inline) Kind() InlineKind {
	if inline == nil {
		return 0
	}
	return inline.kind
}

// Text returns the literal content of a [TextKind] or [PassthroughKind] node.
// Text values are not escaped for any output format:
// characters like "<" and "&" appear as-is.
func (inline *Inline) Text() string {
	switch inline.Kind() {
	case TextKind, PassthroughKind:
		return inline.text
	case LineBreakKind:
		return "\n"
	default:
		return ""
	}
}

// Name returns the macro name of a [MacroKind] node
// (like "image" or "footnote")
// or the attribute name of an [AttributeReferenceKind] node.
func (inline *Inline) Name() string {
	switch inline.Kind() {
	case MacroKind, AttributeReferenceKind:
		return inline.name
	default:
		return ""
	}
}

// Target returns the destination of a [LinkKind] node
// or the target of a [MacroKind] node
// (like the image path or the cross reference ID).
func (inline *Inline) Target() string {
	switch inline.Kind() {
	case LinkKind, MacroKind:
		return inline.target
	default:
		return ""
	}
}

// Attribute returns the value of the named attribute
// from the node's attribute list.
// Positional attributes are named by their 1-based index.
func (inline *Inline) Attribute(name string) (value string, ok bool) {
	if inline == nil {
		return "", false
	}
	value, ok = inline.attrs[name]
	return value, ok
}

// AttributeNames returns the sorted names of the node's attributes.
func (inline *Inline) AttributeNames() []string {
	if inline == nil {
		return nil
	}
	return sortedKeys(inline.attrs)
}

// Roles returns the roles assigned to a formatting span,
// like "big" for "[.big]#text#".
func (inline *Inline) Roles() []string {
	role, _ := inline.Attribute("role")
	return strings.Fields(role)
}

// ID returns the ID assigned to a formatting span with "[#id]" or to an inline anchor.
func (inline *Inline) ID() string {
	if inline.Kind() == MacroKind && inline.name == "anchor" {
		return inline.target
	}
	id, _ := inline.Attribute("id")
	return id
}

// IsUnconstrained reports whether a formatting span
// was written with doubled marks, like "**strong**".
func (inline *Inline) IsUnconstrained() bool {
	return inline != nil && inline.unconstrained
}

// ChildCount returns the number of children the node has.
// Calling ChildCount on nil returns 0.
func (inline *Inline) ChildCount() int {
	if inline == nil {
		return 0
	}
	return len(inline.children)
}

// Child returns the i'th child of the node.
func (inline *Inline) Child(i int) *Inline {
	return inline.children[i]
}

// Children returns the node's children.
func (inline *Inline) Children() []*Inline {
	if inline == nil {
		return nil
	}
	return inline.children
}

// InlineKind is an enumeration of values returned by [*Inline.Kind].
type InlineKind uint16

const (
	// TextKind is literal text.
	TextKind InlineKind = 1 + iota
	// EmphasisKind is "_emphasized_" text.
	EmphasisKind
	// StrongKind is "*strong*" text.
	StrongKind
	// MonospaceKind is "`monospace`" text.
	MonospaceKind
	// SuperscriptKind is "^superscript^" text.
	SuperscriptKind
	// SubscriptKind is "~subscript~" text.
	SubscriptKind
	// MarkKind is "#highlighted#" text
	// or a span with an attribute list like "[.role]#text#".
	MarkKind
	// LinkKind is a hyperlink.
	// Its children are the link text,
	// which is empty for bare URLs.
	LinkKind
	// MacroKind is an inline macro like an image, cross reference, or footnote.
	// Its children are the macro's text, if any.
	MacroKind
	// AttributeReferenceKind groups the nodes
	// produced by substituting an attribute reference.
	AttributeReferenceKind
	// PassthroughKind is content excluded from all substitutions,
	// like "+++<u>raw</u>+++" or "pass:[raw]".
	PassthroughKind
	// LineBreakKind is a hard line break.
	LineBreakKind
)

var inlineKindNames = map[InlineKind]string{
	TextKind:               "text",
	EmphasisKind:           "emphasis",
	StrongKind:             "strong",
	MonospaceKind:          "monospace",
	SuperscriptKind:        "superscript",
	SubscriptKind:          "subscript",
	MarkKind:               "mark",
	LinkKind:               "link",
	MacroKind:              "macro",
	AttributeReferenceKind: "attribute reference",
	PassthroughKind:        "passthrough",
	LineBreakKind:          "line break",
}

func (kind InlineKind) String() string {
	if name, ok := inlineKindNames[kind]; ok {
		return name
	}
	return "InlineKind(" + strconv.Itoa(int(kind)) + ")"
}

// isFormatting reports whether the kind is a formatting span
// produced by the quotes substitution.
func (kind InlineKind) isFormatting() bool {
	switch kind {
	case EmphasisKind, StrongKind, MonospaceKind, SuperscriptKind, SubscriptKind, MarkKind:
		return true
	default:
		return false
	}
}

// PlainText returns the text content of the inline sequence
// with all markup removed.
// Macros contribute their text or, lacking text, their target.
func PlainText(inlines []*Inline) string {
	sb := new(strings.Builder)
	writePlainText(sb, inlines)
	return sb.String()
}

func writePlainText(sb *strings.Builder, inlines []*Inline) {
	for _, inline := range inlines {
		switch inline.Kind() {
		case TextKind, PassthroughKind, LineBreakKind:
			sb.WriteString(inline.Text())
		case LinkKind:
			if len(inline.children) == 0 {
				sb.WriteString(inline.target)
			} else {
				writePlainText(sb, inline.children)
			}
		case MacroKind:
			switch {
			case len(inline.children) > 0:
				writePlainText(sb, inline.children)
			case inline.name == "image":
				alt, _ := inline.Attribute("1")
				sb.WriteString(alt)
			case inline.name == "kbd" || inline.name == "btn":
				v, _ := inline.Attribute("1")
				sb.WriteString(v)
			case inline.name == "xref":
				sb.WriteString("[" + inline.target + "]")
			}
		default:
			writePlainText(sb, inline.children)
		}
	}
}

// mergeText combines adjacent text nodes and removes empty ones, recursively.
func mergeText(nodes []*Inline) []*Inline {
	out := nodes[:0]
	for _, node := range nodes {
		if node.kind == TextKind {
			if node.text == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].kind == TextKind {
				out[n-1] = &Inline{kind: TextKind, text: out[n-1].text + node.text}
				continue
			}
		}
		if len(node.children) > 0 {
			node.children = mergeText(node.children)
		}
		out = append(out, node)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
