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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSection(t *testing.T) {
	doc, diags := Parse([]byte("== Title\n\nSome *bold* text."))
	if len(diags) > 0 {
		t.Errorf("diagnostics:\n%s", formatDiagnostics(diags))
	}
	blocks := doc.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("len(doc.Blocks()) = %d; want 1", len(blocks))
	}
	section := blocks[0]
	if got, want := section.Kind(), SectionKind; got != want {
		t.Errorf("section.Kind() = %v; want %v", got, want)
	}
	if got, want := section.Level(), 1; got != want {
		t.Errorf("section.Level() = %d; want %d", got, want)
	}
	if got, want := dumpInlines(section.Title()), `"Title"`; got != want {
		t.Errorf("section.Title() = %s; want %s", got, want)
	}
	if got, want := section.ID(), "_title"; got != want {
		t.Errorf("section.ID() = %q; want %q", got, want)
	}
	children := section.BlockChildren()
	if len(children) != 1 {
		t.Fatalf("len(section.BlockChildren()) = %d; want 1", len(children))
	}
	para := children[0]
	if got, want := para.Kind(), ParagraphKind; got != want {
		t.Errorf("para.Kind() = %v; want %v", got, want)
	}
	if got, want := dumpInlines(para.InlineChildren()), `"Some " strong("bold") " text."`; got != want {
		t.Errorf("para.InlineChildren() = %s; want %s", got, want)
	}
	if got, want := para.Span(), (LineSpan{Start: 3, End: 3}); got != want {
		t.Errorf("para.Span() = %v; want %v", got, want)
	}
	if got, want := section.Span(), (LineSpan{Start: 1, End: 3}); got != want {
		t.Errorf("section.Span() = %v; want %v", got, want)
	}
}

func TestParseSectionNesting(t *testing.T) {
	doc, _ := Parse([]byte("= Root\n\n== One\n\n=== One A\n\n== Two\n"))
	var got []string
	Walk(doc.Root().AsNode(), &WalkOptions{
		BlocksOnly: true,
		Pre: func(c *Cursor) bool {
			if b := c.Node().Block(); b.Kind() == SectionKind {
				got = append(got, fmt.Sprintf("%d:%d:%s", c.Depth(), b.Level(), PlainText(b.Title())))
			}
			return true
		},
	})
	want := []string{"1:1:One", "2:2:One A", "1:1:Two"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sections (-want +got):\n%s", diff)
	}
	if got, want := PlainText(doc.Title()), "Root"; got != want {
		t.Errorf("PlainText(doc.Title()) = %q; want %q", got, want)
	}
}

func TestParseVerbatim(t *testing.T) {
	doc, diags := Parse([]byte("----\ncode *not bold*\n  indented <b>\n----"))
	if len(diags) > 0 {
		t.Errorf("diagnostics:\n%s", formatDiagnostics(diags))
	}
	blocks := doc.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("len(doc.Blocks()) = %d; want 1", len(blocks))
	}
	b := blocks[0]
	if got, want := b.Kind(), ListingKind; got != want {
		t.Errorf("Kind() = %v; want %v", got, want)
	}
	if got, want := b.Delimiter(), "----"; got != want {
		t.Errorf("Delimiter() = %q; want %q", got, want)
	}
	const want = "code *not bold*\n  indented <b>"
	if got := b.Content(); got != want {
		t.Errorf("Content() = %q; want %q", got, want)
	}
	if got := PlainText(b.InlineChildren()); got != want {
		t.Errorf("PlainText(InlineChildren()) = %q; want %q", got, want)
	}
	Walk(b.AsNode(), &WalkOptions{
		Pre: func(c *Cursor) bool {
			if k := c.Node().Inline().Kind(); k == StrongKind {
				t.Errorf("found %v node in listing block", k)
			}
			return true
		},
	})
}

func TestParseListContinuation(t *testing.T) {
	doc, diags := Parse([]byte("* a\n* b\n+\ncontinued"))
	if len(diags) > 0 {
		t.Errorf("diagnostics:\n%s", formatDiagnostics(diags))
	}
	blocks := doc.Blocks()
	if len(blocks) != 1 || blocks[0].Kind() != ListKind {
		t.Fatalf("doc.Blocks() = %s; want one list", dumpTree(doc))
	}
	items := blocks[0].BlockChildren()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d; want 2", len(items))
	}
	if got := len(items[0].BlockChildren()); got != 0 {
		t.Errorf("len(items[0].BlockChildren()) = %d; want 0", got)
	}
	attached := items[1].BlockChildren()
	if len(attached) != 1 {
		t.Fatalf("len(items[1].BlockChildren()) = %d; want 1", len(attached))
	}
	if got, want := attached[0].Kind(), ParagraphKind; got != want {
		t.Errorf("attached block kind = %v; want %v", got, want)
	}
	if got, want := PlainText(attached[0].InlineChildren()), "continued"; got != want {
		t.Errorf("attached block text = %q; want %q", got, want)
	}
	if got, want := PlainText(items[1].InlineChildren()), "b"; got != want {
		t.Errorf("items[1] text = %q; want %q", got, want)
	}
}

func TestParseSkippedConditional(t *testing.T) {
	doc, diags := Parse([]byte("ifdef::flag[]\nhidden\nifdef::flag[]"))
	if blocks := doc.Blocks(); len(blocks) != 0 {
		t.Errorf("doc.Blocks() =\n%s\nwant no blocks", dumpTree(doc))
	}
	for _, d := range diags {
		if d.Severity != SeverityInfo {
			t.Errorf("unexpected diagnostic: %v", d)
		}
	}
}

func TestParseConditionals(t *testing.T) {
	tests := []struct {
		name   string
		source string
		attrs  map[string]string
		want   string
	}{
		{
			name:   "IfdefSet",
			source: "ifdef::flag[]\nshown\nendif::[]",
			attrs:  map[string]string{"flag": ""},
			want:   "shown",
		},
		{
			name:   "IfdefUnset",
			source: "ifdef::flag[]\nhidden\nendif::[]\nafter",
			want:   "after",
		},
		{
			name:   "Ifndef",
			source: "ifndef::flag[]\nshown\nendif::[]",
			want:   "shown",
		},
		{
			name:   "AnyOf",
			source: "ifdef::a,b[]\nshown\nendif::[]",
			attrs:  map[string]string{"b": ""},
			want:   "shown",
		},
		{
			name:   "AllOf",
			source: "ifdef::a+b[]\nhidden\nendif::[]\nafter",
			attrs:  map[string]string{"b": ""},
			want:   "after",
		},
		{
			name:   "Ifeval",
			source: "ifeval::[{level} > 1]\nshown\nendif::[]",
			attrs:  map[string]string{"level": "2"},
			want:   "shown",
		},
		{
			name:   "Nested",
			source: "ifdef::a[]\nifdef::b[]\nhidden\nendif::b[]\nendif::a[]\nafter",
			attrs:  map[string]string{"b": ""},
			want:   "after",
		},
		{
			name:   "InsideListing",
			source: "----\nifdef::flag[]\nhidden\nendif::[]\ncode\n----",
			want:   "code",
		},
		{
			name:   "DefinedInDocument",
			source: ":flag:\n\nifdef::flag[]\nshown\nendif::[]",
			want:   "shown",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := new(Parser)
			if len(test.attrs) > 0 {
				p.Attributes = NewAttributes()
				for k, v := range test.attrs {
					if err := p.Attributes.Define(k, v, ScopeDocument); err != nil {
						t.Fatal(err)
					}
				}
			}
			doc, diags := p.Parse([]byte(test.source))
			var texts []string
			for _, b := range doc.Blocks() {
				texts = append(texts, PlainText(b.InlineChildren()))
			}
			if got := strings.Join(texts, "|"); got != test.want {
				t.Errorf("block text = %q; want %q", got, test.want)
			}
			if n := countWarnings(diags); n > 0 {
				t.Errorf("diagnostics:\n%s", formatDiagnostics(diags))
			}
		})
	}
}

func TestParseMismatchedEndif(t *testing.T) {
	_, diags := Parse([]byte("ifdef::a[]\nendif::b[]\n"))
	if got := countKind(diags, StructuralWarning); got != 1 {
		t.Errorf("got %d structural warnings; want 1. Diagnostics:\n%s", got, formatDiagnostics(diags))
	}
}

func TestParseUnterminatedFence(t *testing.T) {
	doc, diags := Parse([]byte("----\nunterminated"))
	blocks := doc.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("len(doc.Blocks()) = %d; want 1", len(blocks))
	}
	if got, want := blocks[0].Kind(), ListingKind; got != want {
		t.Errorf("Kind() = %v; want %v", got, want)
	}
	if got, want := blocks[0].Content(), "unterminated"; got != want {
		t.Errorf("Content() = %q; want %q", got, want)
	}
	if got := countKind(diags, StructuralWarning); got != 1 || len(diags) != 1 {
		t.Errorf("diagnostics:\n%swant exactly one %v", formatDiagnostics(diags), StructuralWarning)
	}
}

func TestParseUnterminatedCompound(t *testing.T) {
	doc, diags := Parse([]byte("====\nInside.\n\n****\nDeeper."))
	if got, want := dumpTree(doc), "example\n  paragraph \"Inside.\"\n  sidebar\n    paragraph \"Deeper.\"\n"; got != want {
		t.Errorf("tree =\n%s\nwant\n%s", got, want)
	}
	if got := countKind(diags, StructuralWarning); got != 2 {
		t.Errorf("got %d structural warnings; want 2. Diagnostics:\n%s", got, formatDiagnostics(diags))
	}
}

func TestParseUnsetReference(t *testing.T) {
	doc, diags := Parse([]byte("Hello, {missing}!"))
	blocks := doc.Blocks()
	if len(blocks) != 1 {
		t.Fatalf("len(doc.Blocks()) = %d; want 1", len(blocks))
	}
	if got, want := PlainText(blocks[0].InlineChildren()), "Hello, {missing}!"; got != want {
		t.Errorf("text = %q; want %q", got, want)
	}
	if len(diags) != 1 || diags[0].Kind != SyntaxWarning {
		t.Fatalf("diagnostics:\n%swant exactly one %v", formatDiagnostics(diags), SyntaxWarning)
	}
	if got, want := diags[0].Line, 1; got != want {
		t.Errorf("diags[0].Line = %d; want %d", got, want)
	}
	if got, want := diags[0].Column, 8; got != want {
		t.Errorf("diags[0].Column = %d; want %d", got, want)
	}
}

func TestParseTitleWarningColumn(t *testing.T) {
	tests := []struct {
		source string
		line   int
		column int
	}{
		{"= Doc {missing}\n", 1, 7},
		{"== Sec {missing}\n\ntext\n", 1, 8},
		{"text\n\n.Title {missing}\nmore\n", 3, 8},
	}
	for _, test := range tests {
		_, diags := Parse([]byte(test.source))
		if len(diags) != 1 {
			t.Errorf("Parse(%q) diagnostics:\n%swant exactly one", test.source, formatDiagnostics(diags))
			continue
		}
		if d := diags[0]; d.Line != test.line || d.Column != test.column {
			t.Errorf("Parse(%q) warning at %d:%d; want %d:%d", test.source, d.Line, d.Column, test.line, test.column)
		}
	}
}

func TestParseDepthLimit(t *testing.T) {
	var sb strings.Builder
	for i := 4; i < 12; i++ {
		sb.WriteString(strings.Repeat("=", i))
		sb.WriteString("\n")
	}
	sb.WriteString("text\n")
	p := &Parser{MaxDepth: 3}
	doc, diags := p.Parse([]byte(sb.String()))
	if doc == nil {
		t.Fatal("Parse returned nil document")
	}
	if !doc.HasFatal() {
		t.Errorf("doc.HasFatal() = false; want true. Diagnostics:\n%s", formatDiagnostics(diags))
	}
	if got := countKind(diags, LimitExceeded); got != 1 {
		t.Errorf("got %d %v diagnostics; want 1", got, LimitExceeded)
	}
	depth := 0
	Walk(doc.Root().AsNode(), &WalkOptions{
		BlocksOnly: true,
		Pre: func(c *Cursor) bool {
			depth = max(depth, c.Depth())
			return true
		},
	})
	if depth > p.MaxDepth {
		t.Errorf("tree depth = %d; want <= %d", depth, p.MaxDepth)
	}
}

func TestParseSizeLimit(t *testing.T) {
	p := &Parser{MaxSize: 20}
	doc, diags := p.Parse([]byte("first line\nsecond line\nthird line\n"))
	if !doc.HasFatal() {
		t.Errorf("doc.HasFatal() = false; want true")
	}
	if got := countKind(diags, LimitExceeded); got != 1 {
		t.Errorf("got %d %v diagnostics; want 1. Diagnostics:\n%s", got, LimitExceeded, formatDiagnostics(diags))
	}
	if got, want := dumpTree(doc), "paragraph \"first line\"\n"; got != want {
		t.Errorf("tree =\n%s\nwant\n%s", got, want)
	}
}

func TestParseNestedSingleLineConditional(t *testing.T) {
	nest := func(n int) string {
		return strings.Repeat("ifndef::a[", n) + "x" + strings.Repeat("]", n) + "\n"
	}
	p := &Parser{MaxDepth: 4}

	doc, diags := p.Parse([]byte(nest(4)))
	if got, want := dumpTree(doc), "paragraph \"x\"\n"; got != want {
		t.Errorf("nest(4) tree = %q; want %q", got, want)
	}
	if len(diags) > 0 {
		t.Errorf("nest(4) diagnostics:\n%s", formatDiagnostics(diags))
	}

	doc, diags = p.Parse([]byte(nest(5)))
	if got := dumpTree(doc); got != "" {
		t.Errorf("nest(5) tree = %q; want empty", got)
	}
	if got := countKind(diags, LimitExceeded); got != 1 {
		t.Errorf("nest(5) got %d %v diagnostics; want 1. Diagnostics:\n%s", got, LimitExceeded, formatDiagnostics(diags))
	}

	// Deep nesting fails closed instead of exhausting the stack.
	doc, diags = Parse([]byte(nest(200000)))
	if !doc.HasFatal() {
		t.Errorf("nest(200000): doc.HasFatal() = false; want true. Diagnostics:\n%s", formatDiagnostics(diags))
	}
}

func TestParseHeader(t *testing.T) {
	const source = "= The Title\n" +
		"Jane Q. Doe <jane@example.com>; John Smith\n" +
		"v2.1, 2024-03-01: Revised\n" +
		":toc:\n" +
		":description: A test\n" +
		"\n" +
		"Body text.\n"
	doc, diags := Parse([]byte(source))
	if len(diags) > 0 {
		t.Errorf("diagnostics:\n%s", formatDiagnostics(diags))
	}
	h := doc.Header()
	if got, want := PlainText(h.Title), "The Title"; got != want {
		t.Errorf("title = %q; want %q", got, want)
	}
	wantAuthors := []Author{
		{Name: "Jane Q. Doe", FirstName: "Jane", MiddleName: "Q.", LastName: "Doe", Email: "jane@example.com"},
		{Name: "John Smith", FirstName: "John", LastName: "Smith"},
	}
	if diff := cmp.Diff(wantAuthors, h.Authors); diff != "" {
		t.Errorf("authors (-want +got):\n%s", diff)
	}
	wantRev := Revision{Number: "2.1", Date: "2024-03-01", Remark: "Revised"}
	if diff := cmp.Diff(wantRev, h.Revision); diff != "" {
		t.Errorf("revision (-want +got):\n%s", diff)
	}
	if got, want := h.Span, (LineSpan{Start: 1, End: 5}); got != want {
		t.Errorf("header span = %v; want %v", got, want)
	}
	attrs := doc.Attributes()
	for name, want := range map[string]string{
		"doctitle":       "The Title",
		"author":         "Jane Q. Doe",
		"email":          "jane@example.com",
		"authorinitials": "JQD",
		"author_2":       "John Smith",
		"authorcount":    "2",
		"revnumber":      "2.1",
		"revdate":        "2024-03-01",
		"revremark":      "Revised",
		"toc":            "",
		"description":    "A test",
	} {
		if got, ok := attrs.Lookup(name); !ok || got != want {
			t.Errorf("attrs.Lookup(%q) = %q, %t; want %q, true", name, got, ok, want)
		}
	}
	if got, want := dumpTree(doc), "paragraph \"Body text.\"\n"; got != want {
		t.Errorf("tree =\n%s\nwant\n%s", got, want)
	}
}

func TestParseAttributeEntries(t *testing.T) {
	const source = ":product: Widget\n" +
		"\n" +
		"The {product} is great.\n" +
		"\n" +
		":product: Gadget\n" +
		"\n" +
		"The {product} is better.\n" +
		"\n" +
		":product!:\n" +
		"\n" +
		":long: first \\\n" +
		"second\n" +
		"\n" +
		"{long}\n"
	doc, diags := Parse([]byte(source))
	want := []string{"The Widget is great.", "The Gadget is better.", "first second"}
	var got []string
	for _, b := range doc.Blocks() {
		got = append(got, PlainText(b.InlineChildren()))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paragraphs (-want +got):\n%s", diff)
	}
	if len(diags) > 0 {
		t.Errorf("diagnostics:\n%s", formatDiagnostics(diags))
	}
	if doc.Attributes().IsSet("product") {
		t.Error("product is set at end of document")
	}
}

func TestParseLockedAttribute(t *testing.T) {
	p := &Parser{Attributes: NewAttributes()}
	if err := p.Attributes.Define("env", "prod", ScopeDocument); err != nil {
		t.Fatal(err)
	}
	doc, _ := p.Parse([]byte(":env: dev\n\n{env}"))
	if got, want := PlainText(doc.Blocks()[0].InlineChildren()), "prod"; got != want {
		t.Errorf("text = %q; want %q", got, want)
	}
	if v, _ := p.Attributes.Lookup("env"); v != "prod" {
		t.Errorf("caller environment modified: env = %q", v)
	}
}

func TestParseBlockAttributes(t *testing.T) {
	doc, diags := Parse([]byte(".Example title\n[#intro.lead%collapsible,reftext=Intro]\nSome text.\n"))
	if len(diags) > 0 {
		t.Errorf("diagnostics:\n%s", formatDiagnostics(diags))
	}
	b := doc.Blocks()[0]
	if got, want := b.ID(), "intro"; got != want {
		t.Errorf("ID() = %q; want %q", got, want)
	}
	if got, want := b.Roles(), []string{"lead"}; !cmp.Equal(got, want) {
		t.Errorf("Roles() = %q; want %q", got, want)
	}
	if !b.HasOption("collapsible") {
		t.Error("HasOption(\"collapsible\") = false; want true")
	}
	if got, want := PlainText(b.Title()), "Example title"; got != want {
		t.Errorf("PlainText(Title()) = %q; want %q", got, want)
	}
	if got, want := b.Span(), (LineSpan{Start: 1, End: 3}); got != want {
		t.Errorf("Span() = %v; want %v", got, want)
	}
	if a, ok := doc.Anchors()["intro"]; !ok || a.RefText != "Intro" {
		t.Errorf("doc.Anchors()[\"intro\"] = %+v, %t; want RefText=\"Intro\"", a, ok)
	}
}

func TestParseMasquerade(t *testing.T) {
	tests := []struct {
		source string
		kind   BlockKind
		style  string
	}{
		{"[source,go]\n----\nx := 1\n----", ListingKind, "source"},
		{"[verse]\n____\nA line\n____", VerseKind, "verse"},
		{"[NOTE]\n====\nCareful.\n====", ExampleKind, "NOTE"},
		{"[sidebar]\n--\nAside.\n--", SidebarKind, "sidebar"},
		{"[literal]\n----\nraw\n----", LiteralKind, "literal"},
		{"[quote]\nWise words.", QuoteKind, "quote"},
		{"[abstract]\nSummary.", OpenKind, "abstract"},
	}
	for _, test := range tests {
		doc, _ := Parse([]byte(test.source))
		blocks := doc.Blocks()
		if len(blocks) != 1 {
			t.Errorf("Parse(%q) produced %d blocks; want 1", test.source, len(blocks))
			continue
		}
		if got := blocks[0].Kind(); got != test.kind {
			t.Errorf("Parse(%q) kind = %v; want %v", test.source, got, test.kind)
		}
		if got := blocks[0].Style(); got != test.style {
			t.Errorf("Parse(%q) style = %q; want %q", test.source, got, test.style)
		}
	}
}

func TestParseSourceLanguage(t *testing.T) {
	doc, _ := Parse([]byte("[source,go]\n----\nx := 1\n----\n\n```python\nprint()\n```"))
	var langs []string
	for _, b := range doc.Blocks() {
		lang, _ := b.Attribute("language")
		langs = append(langs, lang)
	}
	if diff := cmp.Diff([]string{"go", "python"}, langs); diff != "" {
		t.Errorf("languages (-want +got):\n%s", diff)
	}
}

func TestParseAdmonition(t *testing.T) {
	doc, _ := Parse([]byte("WARNING: Hot surface."))
	b := doc.Blocks()[0]
	if got, want := b.Style(), "WARNING"; got != want {
		t.Errorf("Style() = %q; want %q", got, want)
	}
	if got, want := PlainText(b.InlineChildren()), "Hot surface."; got != want {
		t.Errorf("text = %q; want %q", got, want)
	}
}

func TestParseHeadingInsideDelimited(t *testing.T) {
	doc, _ := Parse([]byte("====\n== Not a section\n===="))
	if got, want := dumpTree(doc), "example\n  paragraph \"== Not a section\"\n"; got != want {
		t.Errorf("tree =\n%s\nwant\n%s", got, want)
	}
}

func TestParseLevelZeroInArticle(t *testing.T) {
	_, diags := Parse([]byte("= Title\n\ntext\n\n= Another\n"))
	if got := countKind(diags, StructuralWarning); got != 1 {
		t.Errorf("got %d structural warnings; want 1. Diagnostics:\n%s", got, formatDiagnostics(diags))
	}

	p := &Parser{Attributes: NewAttributes()}
	p.Attributes.Define("doctype", "book", ScopeDocument)
	_, diags = p.Parse([]byte("= Title\n\n= Part One\n\n== Chapter\n"))
	if got := countWarnings(diags); got != 0 {
		t.Errorf("book: diagnostics:\n%s", formatDiagnostics(diags))
	}
}

func TestParseTitleBeforeHeading(t *testing.T) {
	doc, diags := Parse([]byte(".Ignored\n== Title\n\ntext\n"))
	section := doc.Blocks()[0]
	if got, want := section.TitleSource(), "Title"; got != want {
		t.Errorf("section.TitleSource() = %q; want %q", got, want)
	}
	if len(diags) != 1 || diags[0].Kind != Informational || diags[0].Line != 1 {
		t.Errorf("diagnostics = %v; want one %v on line 1", diags, Informational)
	}
}

func TestParseSectionIDs(t *testing.T) {
	doc, diags := Parse([]byte("== Getting Started\n\n== Getting Started\n\n[[custom]]\n== Other\n\n[#custom]\n== Dup\n"))
	var ids []string
	for _, b := range doc.Blocks() {
		ids = append(ids, b.ID())
	}
	want := []string{"_getting_started", "_getting_started_2", "custom", "custom"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("IDs (-want +got):\n%s", diff)
	}
	if got := countKind(diags, StructuralWarning); got != 1 {
		t.Errorf("got %d structural warnings; want 1 for duplicate ID. Diagnostics:\n%s", got, formatDiagnostics(diags))
	}
}

func TestParseInclude(t *testing.T) {
	files := map[string]string{
		"chapter.adoc": "== Included\n\nFrom file.",
		"nested.adoc":  "include::chapter.adoc[]",
		"lines.adoc":   "one\ntwo\nthree\nfour",
	}
	var gotAttrs map[string]string
	p := &Parser{
		Include: func(target string, attrs map[string]string) (string, error) {
			gotAttrs = attrs
			text, ok := files[target]
			if !ok {
				return "", errors.New("not found")
			}
			return text, nil
		},
	}

	t.Run("Basic", func(t *testing.T) {
		doc, diags := p.Parse([]byte("Before.\n\ninclude::chapter.adoc[]\n"))
		if len(diags) > 0 {
			t.Errorf("diagnostics:\n%s", formatDiagnostics(diags))
		}
		if got, want := dumpTree(doc), "paragraph \"Before.\"\nsection \"Included\"\n  paragraph \"From file.\"\n"; got != want {
			t.Errorf("tree =\n%s\nwant\n%s", got, want)
		}
		section := doc.Blocks()[1]
		if got, want := section.Span().Start, 3; got != want {
			t.Errorf("section.Span().Start = %d; want %d", got, want)
		}
	})
	t.Run("Nested", func(t *testing.T) {
		doc, _ := p.Parse([]byte("include::nested.adoc[]\n"))
		if got, want := dumpTree(doc), "section \"Included\"\n  paragraph \"From file.\"\n"; got != want {
			t.Errorf("tree =\n%s\nwant\n%s", got, want)
		}
	})
	t.Run("Lines", func(t *testing.T) {
		doc, _ := p.Parse([]byte("include::lines.adoc[lines=2..3]\n"))
		if got, want := dumpTree(doc), "paragraph \"two\\nthree\"\n"; got != want {
			t.Errorf("tree =\n%s\nwant\n%s", got, want)
		}
		if got, want := gotAttrs["lines"], "2..3"; got != want {
			t.Errorf("attrs[\"lines\"] = %q; want %q", got, want)
		}
	})
	t.Run("LevelOffset", func(t *testing.T) {
		doc, _ := p.Parse([]byte("== Top\n\ninclude::chapter.adoc[leveloffset=+1]\n"))
		if got, want := dumpTree(doc), "section \"Top\"\n  section \"Included\"\n    paragraph \"From file.\"\n"; got != want {
			t.Errorf("tree =\n%s\nwant\n%s", got, want)
		}
	})
	t.Run("Missing", func(t *testing.T) {
		doc, diags := p.Parse([]byte("include::missing.adoc[]\nAfter.\n"))
		if got := countKind(diags, StructuralWarning); got != 1 {
			t.Errorf("got %d structural warnings; want 1. Diagnostics:\n%s", got, formatDiagnostics(diags))
		}
		if got, want := dumpTree(doc), "paragraph \"After.\"\n"; got != want {
			t.Errorf("tree =\n%s\nwant\n%s", got, want)
		}
	})
	t.Run("Recursive", func(t *testing.T) {
		rp := &Parser{
			MaxIncludeDepth: 4,
			Include: func(target string, attrs map[string]string) (string, error) {
				return "include::self.adoc[]", nil
			},
		}
		doc, diags := rp.Parse([]byte("include::self.adoc[]\n"))
		if !doc.HasFatal() {
			t.Errorf("doc.HasFatal() = false; want true. Diagnostics:\n%s", formatDiagnostics(diags))
		}
	})
	t.Run("NoResolver", func(t *testing.T) {
		doc, diags := Parse([]byte("include::chapter.adoc[]\n"))
		if countWarnings(diags) > 0 {
			t.Errorf("diagnostics:\n%s", formatDiagnostics(diags))
		}
		blocks := doc.Blocks()
		if len(blocks) != 1 || len(blocks[0].InlineChildren()) == 0 {
			t.Fatalf("tree =\n%s\nwant one paragraph with a link", dumpTree(doc))
		}
		link := blocks[0].InlineChildren()[0]
		if link.Kind() != LinkKind || link.Target() != "chapter.adoc" {
			t.Errorf("first inline = %s; want link to chapter.adoc", dumpInline(link))
		}
	})
}

func TestParseInsecureCharacters(t *testing.T) {
	for _, source := range []string{"Hello,\x00World", "Hello,\xffWorld", "Hello,\xe2\x82World"} {
		doc, _ := Parse([]byte(source))
		if got, want := PlainText(doc.Blocks()[0].InlineChildren()), "Hello,\uFFFDWorld"; got != want {
			t.Errorf("Parse(%q) text = %q; want %q", source, got, want)
		}
	}
}

func TestParseLineEndings(t *testing.T) {
	for _, source := range []string{
		"\ufeff== Title\n\ntext\n",
		"== Title\r\n\r\ntext\r\n",
		"== Title\r\rtext",
	} {
		doc, diags := Parse([]byte(source))
		if got, want := dumpTree(doc), "section \"Title\"\n  paragraph \"text\"\n"; got != want {
			t.Errorf("Parse(%q) tree =\n%s\nwant\n%s", source, got, want)
		}
		if len(diags) > 0 {
			t.Errorf("Parse(%q) diagnostics:\n%s", source, formatDiagnostics(diags))
		}
	}
}

func TestParseEmpty(t *testing.T) {
	doc, diags := Parse(nil)
	if doc == nil || doc.Root().Kind() != DocumentKind {
		t.Fatalf("Parse(nil) = %v; want empty document", doc)
	}
	if len(doc.Blocks()) != 0 || len(diags) != 0 {
		t.Errorf("Parse(nil) = %d blocks, %v; want 0 blocks, no diagnostics", len(doc.Blocks()), diags)
	}
}

func TestParseMaxDiagnostics(t *testing.T) {
	source := strings.Repeat("{a} {b} {c}\n", 10)
	p := &Parser{MaxDiagnostics: 5}
	_, diags := p.Parse([]byte(source))
	if got, want := len(diags), 6; got != want {
		t.Fatalf("len(diags) = %d; want %d", got, want)
	}
	if last := diags[len(diags)-1]; last.Kind != Informational || !strings.Contains(last.Message, "25 more") {
		t.Errorf("last diagnostic = %v; want note about 25 omitted diagnostics", last)
	}
}

func countKind(diags []Diagnostic, kind DiagnosticKind) int {
	n := 0
	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
