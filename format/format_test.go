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
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/asciidoc"
	"zombiezen.com/go/asciidoc/internal/corpus"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "Paragraph",
			source: "Hello,   *World*!\n",
			want:   "Hello,   *World*!\n",
		},
		{
			name:   "BlankLines",
			source: "\n\nfirst\n\n\n\nsecond\n\n",
			want:   "first\n\nsecond\n",
		},
		{
			name:   "Section",
			source: "== Title\ntext\n",
			want:   "== Title\n\ntext\n",
		},
		{
			name:   "CustomSectionID",
			source: "[#intro]\n== Title\n",
			want:   "[id=intro]\n== Title\n",
		},
		{
			name:   "FencedCode",
			source: "```go\nfmt.Println()\n```\n",
			want:   "[source,go]\n----\nfmt.Println()\n----\n",
		},
		{
			name:   "UnorderedList",
			source: "* one\n* two\n",
			want:   "* one\n* two\n",
		},
		{
			name:   "ListContinuation",
			source: "* item\n+\n----\ncode\n----\n",
			want:   "* item\n+\n----\ncode\n----\n",
		},
		{
			name:   "Checklist",
			source: "* [x] done\n* [ ] todo\n",
			want:   "* [x] done\n* [ ] todo\n",
		},
		{
			name:   "Example",
			source: "====\ninside\n====\n",
			want:   "====\ninside\n\n====\n",
		},
		{
			name:   "Table",
			source: "|===\n|a |b\n\n|1 |2\n|===\n",
			want:   "[opts=\"header\"]\n|===\n|a |b\n\n|1 |2\n|===\n",
		},
		{
			name:   "BlockTitle",
			source: ".Caption\nsome text\n",
			want:   ".Caption\nsome text\n",
		},
		{
			name:   "UnsetDefault",
			source: ":sectids!:\n\ntext\n",
			want:   ":sectids!:\n\ntext\n",
		},
		{
			name:   "ThematicBreak",
			source: "before\n\n'''\n\nafter\n",
			want:   "before\n\n'''\n\nafter\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc, _ := asciidoc.Parse([]byte(test.source))
			got := new(strings.Builder)
			if err := Format(got, doc); err != nil {
				t.Error("Format:", err)
			}
			if diff := cmp.Diff(test.want, got.String()); diff != "" {
				t.Errorf("Format(Parse(%q)) (-want +got):\n%s", test.source, diff)
			}
		})
	}
}

func TestFormatHeader(t *testing.T) {
	const source = "= Document Title\n" +
		"Jane Doe <jane@example.com>; John Smith\n" +
		"v1.2, 2024-01-02: Draft\n" +
		":toc:\n" +
		"\n" +
		"Body.\n"
	doc, diags := asciidoc.Parse([]byte(source))
	if len(diags) > 0 {
		t.Fatalf("Parse diagnostics: %v", diags)
	}
	got := new(strings.Builder)
	if err := Format(got, doc); err != nil {
		t.Error("Format:", err)
	}
	if diff := cmp.Diff(source, got.String()); diff != "" {
		t.Errorf("Format (-want +got):\n%s", diff)
	}
}

func TestFormatWriteError(t *testing.T) {
	doc, _ := asciidoc.Parse([]byte("== Title\n\ntext\n"))
	want := errors.New("disk full")
	if err := Format(failWriter{want}, doc); err != want {
		t.Errorf("Format(failWriter, doc) = %v; want %v", err, want)
	}
}

type failWriter struct {
	err error
}

func (w failWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

func TestEscapeSeparator(t *testing.T) {
	tests := []struct {
		s    string
		sep  string
		want string
	}{
		{"", "|", ""},
		{"a|b", "|", `a\|b`},
		{`a\|b`, "|", `a\|b`},
		{"|", "|", `\|`},
		{"a!b|c", "!", `a\!b|c`},
	}
	for _, test := range tests {
		if got := escapeSeparator(test.s, test.sep); got != test.want {
			t.Errorf("escapeSeparator(%q, %q) = %q; want %q", test.s, test.sep, got, test.want)
		}
	}
}

func TestQuoteValue(t *testing.T) {
	tests := []struct {
		v    string
		want string
	}{
		{"", `""`},
		{"plain", "plain"},
		{"two words", `"two words"`},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say \"hi\""`},
	}
	for _, test := range tests {
		if got := quoteValue(test.v); got != test.want {
			t.Errorf("quoteValue(%q) = %q; want %q", test.v, got, test.want)
		}
	}
}

func TestFormatCorpus(t *testing.T) {
	examples, err := corpus.Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, ex := range examples {
		if ex.Warnings > 0 {
			continue
		}
		t.Run(ex.Section+"/"+ex.Name, func(t *testing.T) {
			checkRoundTrip(t, ex.Source, t.Errorf)
		})
	}
}

func FuzzFormat(f *testing.F) {
	examples, err := corpus.Load()
	if err != nil {
		f.Fatal(err)
	}
	for _, ex := range examples {
		f.Add(ex.Source)
	}

	f.Fuzz(func(t *testing.T, source string) {
		if !utf8.ValidString(source) {
			t.Skip("Invalid UTF-8")
		}
		// TODO(soon): Once all cases are handled, change this to Errorf.
		checkRoundTrip(t, source, t.Skipf)
	})
}

// checkRoundTrip formats the parsed source,
// verifies that the output parses to the same outline,
// and verifies that formatting is idempotent.
// Structural differences are reported with structureErrorf.
func checkRoundTrip(t *testing.T, source string, structureErrorf func(string, ...any)) {
	t.Helper()
	doc, _ := asciidoc.Parse([]byte(source))
	got := new(bytes.Buffer)
	if err := Format(got, doc); err != nil {
		t.Fatal("Format #1:", err)
	}

	formattedDoc, _ := asciidoc.Parse(got.Bytes())
	if diff := cmp.Diff(outline(doc), outline(formattedDoc)); diff != "" {
		structureErrorf("Reformatting changed structure. Original:\n%s\nReformatting:\n%s\nOutline diff (-want +got):\n%s", source, got, diff)
	}

	reformatted := new(bytes.Buffer)
	if err := Format(reformatted, formattedDoc); err != nil {
		t.Fatal("Format #2:", err)
	}
	if diff := cmp.Diff(got.String(), reformatted.String()); diff != "" {
		t.Errorf("Format not idempotent (-first +second):\n%s", diff)
	}
}

// outline returns one line per block of doc
// with its kind, depth, and plain text.
func outline(doc *asciidoc.Document) []string {
	var lines []string
	asciidoc.Walk(doc.Root().AsNode(), &asciidoc.WalkOptions{
		BlocksOnly: true,
		Pre: func(c *asciidoc.Cursor) bool {
			b := c.Node().Block()
			text := asciidoc.PlainText(b.InlineChildren())
			if b.Kind() == asciidoc.SectionKind || b.Kind() == asciidoc.DiscreteHeadingKind {
				text = asciidoc.PlainText(b.Title())
			}
			lines = append(lines, fmt.Sprintf("%s%v %q", strings.Repeat(" ", c.Depth()), b.Kind(), text))
			return true
		},
	})
	return lines
}
